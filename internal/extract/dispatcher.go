package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/plumetext/convertd/shared/logger"
)

// Source describes one conversion input. Exactly one of FilePath or URL
// is set.
type Source struct {
	// FilePath is the local path of an uploaded file.
	FilePath string
	// Ext is the lowercased extension of the original filename, without dot.
	Ext string
	// URL is the remote source.
	URL string
	// Credential is the caller's transcription credential. Set only for
	// uploads with an audio extension.
	Credential string
}

// IsURL reports whether the source is URL-backed.
func (s Source) IsURL() bool {
	return s.URL != ""
}

// Dispatcher routes a source to the right extraction path and returns
// plain text. It is total: reader panics are recovered into errors and
// never escape to the job goroutine.
type Dispatcher struct {
	registry    *Registry
	chunker     AudioChunker
	transcriber Transcriber
	pages       PageReader
	captions    CaptionReader
	logger      *logger.Logger
}

// NewDispatcher wires the dispatcher from its collaborators.
func NewDispatcher(
	registry *Registry,
	chunker AudioChunker,
	transcriber Transcriber,
	pages PageReader,
	captions CaptionReader,
	log *logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		registry:    registry,
		chunker:     chunker,
		transcriber: transcriber,
		pages:       pages,
		captions:    captions,
		logger:      log,
	}
}

// Extract converts the source to plain text.
func (d *Dispatcher) Extract(ctx context.Context, src Source) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("extraction panicked", "panic", fmt.Sprintf("%v", r))
			text = ""
			err = fmt.Errorf("extraction failed: %v", r)
		}
	}()

	if src.IsURL() {
		if id, ok := YouTubeVideoID(src.URL); ok {
			return d.captions.CaptionText(ctx, id)
		}
		return d.pages.PageText(ctx, src.URL)
	}

	if IsAudioExt(src.Ext) {
		return d.extractAudio(ctx, src)
	}

	reader, ok := d.registry.Lookup(src.Ext)
	if !ok {
		return "", fmt.Errorf("%w: .%s", ErrUnsupportedFormat, src.Ext)
	}

	data, err := os.ReadFile(src.FilePath)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	return reader.Read(data)
}

// extractAudio chunks the file and transcribes every segment strictly in
// index order, aborting on the first segment failure.
func (d *Dispatcher) extractAudio(ctx context.Context, src Source) (string, error) {
	segments, cleanup, err := d.chunker.Chunk(ctx, src.FilePath, src.Ext)
	// Chunk may have materialized intermediate artifacts before failing;
	// cleanup runs on the error path too.
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return "", err
	}

	texts := make([]string, 0, len(segments))
	for _, seg := range segments {
		t, err := d.transcriber.Transcribe(ctx, seg, src.Credential)
		if err != nil {
			return "", err
		}
		texts = append(texts, t)
	}

	return strings.Join(texts, " "), nil
}

// YouTubeVideoID extracts the video ID from a youtube watch or short URL.
func YouTubeVideoID(rawURL string) (string, bool) {
	if _, after, found := strings.Cut(rawURL, "watch?v="); found {
		return trimVideoID(after), true
	}
	if _, after, found := strings.Cut(rawURL, "youtu.be/"); found {
		return trimVideoID(after), true
	}
	return "", false
}

func trimVideoID(s string) string {
	if i := strings.IndexAny(s, "?&/"); i >= 0 {
		s = s[:i]
	}
	return s
}
