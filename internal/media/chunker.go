package media

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/plumetext/convertd/internal/config"
	"github.com/plumetext/convertd/internal/extract"
	"github.com/plumetext/convertd/shared/logger"
)

// videoExtensions are container formats that carry a video stream. They
// are transcoded to an audio-only track before segmentation.
var videoExtensions = map[string]struct{}{
	"mp4":  {},
	"mpeg": {},
	"webm": {},
}

// FFmpegChunker splits audio files into consecutive fixed-length windows
// using the ffmpeg and ffprobe binaries.
type FFmpegChunker struct {
	ffmpegPath     string
	ffprobePath    string
	segmentSeconds float64
	commandTimeout time.Duration
	workDir        string
	logger         *logger.Logger
}

// NewFFmpegChunker creates a chunker from media configuration.
func NewFFmpegChunker(cfg config.MediaConfig, log *logger.Logger) *FFmpegChunker {
	ffmpegPath := cfg.FFmpegPath
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	ffprobePath := cfg.FFprobePath
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}

	return &FFmpegChunker{
		ffmpegPath:     ffmpegPath,
		ffprobePath:    ffprobePath,
		segmentSeconds: cfg.SegmentSeconds,
		commandTimeout: cfg.CommandTimeout,
		workDir:        os.TempDir(),
		logger:         log,
	}
}

// window is one planned segment of the audio timeline.
type window struct {
	start  float64
	length float64
}

// planWindows slices a duration into consecutive windows of at most size
// seconds. The last window is truncated to the remainder; a non-positive
// duration yields no windows. Starts are computed per index rather than
// accumulated so boundaries stay exact over long streams.
func planWindows(duration, size float64) []window {
	if duration <= 0 || size <= 0 {
		return nil
	}

	count := int(math.Ceil(duration / size))
	windows := make([]window, 0, count)
	for i := 0; i < count; i++ {
		start := float64(i) * size
		length := size
		if remaining := duration - start; remaining < size {
			length = remaining
		}
		windows = append(windows, window{start: start, length: length})
	}
	return windows
}

// Chunk plans the segments of the file at path. Segments are lazy: no
// audio is exported until a segment's Export is called. The returned
// cleanup removes the transcoded intermediate track, if one was needed.
func (c *FFmpegChunker) Chunk(ctx context.Context, path, ext string) ([]extract.AudioSegment, func(), error) {
	sourcePath := path
	cleanup := func() {}

	if _, ok := videoExtensions[ext]; ok {
		audioPath := filepath.Join(c.workDir, uuid.New().String()+".mp3")
		if err := c.runFFmpeg(ctx, "-y", "-i", path, "-vn", "-acodec", "libmp3lame", audioPath); err != nil {
			return nil, cleanup, fmt.Errorf("failed to extract audio track: %w", err)
		}
		sourcePath = audioPath
		cleanup = func() { os.Remove(audioPath) }
	}

	duration, err := c.probeDuration(ctx, sourcePath)
	if err != nil {
		return nil, cleanup, err
	}

	windows := planWindows(duration, c.segmentSeconds)
	segments := make([]extract.AudioSegment, 0, len(windows))
	for i, w := range windows {
		segments = append(segments, &ffmpegSegment{
			chunker: c,
			source:  sourcePath,
			index:   i,
			window:  w,
		})
	}

	c.logger.Debug("planned audio segments",
		"path", path,
		"duration_seconds", duration,
		"segments", len(segments),
	)

	return segments, cleanup, nil
}

// probeDuration asks ffprobe for the stream duration in seconds.
func (c *FFmpegChunker) probeDuration(ctx context.Context, path string) (float64, error) {
	out, err := c.run(ctx, c.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to probe duration: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected ffprobe output %q: %w", strings.TrimSpace(out), err)
	}
	return duration, nil
}

func (c *FFmpegChunker) runFFmpeg(ctx context.Context, args ...string) error {
	_, err := c.run(ctx, c.ffmpegPath, args...)
	return err
}

func (c *FFmpegChunker) run(ctx context.Context, bin string, args ...string) (string, error) {
	if c.commandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.commandTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, bin, args...)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s failed: %w, stderr: %s", filepath.Base(bin), err, stderr.String())
	}
	return out.String(), nil
}

// ffmpegSegment is a lazily exported window of the source audio.
type ffmpegSegment struct {
	chunker *FFmpegChunker
	source  string
	index   int
	window  window
}

func (s *ffmpegSegment) Index() int { return s.index }

// Export cuts the segment's window into a standalone mp3 file. The
// returned release func removes the file.
func (s *ffmpegSegment) Export(ctx context.Context) (string, func(), error) {
	outPath := filepath.Join(s.chunker.workDir, fmt.Sprintf("%s-%03d.mp3", uuid.New().String(), s.index))

	err := s.chunker.runFFmpeg(ctx,
		"-y",
		"-i", s.source,
		"-ss", formatSeconds(s.window.start),
		"-t", formatSeconds(s.window.length),
		"-acodec", "libmp3lame",
		outPath,
	)
	if err != nil {
		os.Remove(outPath)
		return "", nil, fmt.Errorf("failed to export segment %d: %w", s.index, err)
	}

	return outPath, func() { os.Remove(outPath) }, nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
