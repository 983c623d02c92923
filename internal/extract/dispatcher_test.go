package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumetext/convertd/shared/logger"
)

type stubSegment struct {
	index int
}

func (s *stubSegment) Index() int { return s.index }

func (s *stubSegment) Export(ctx context.Context) (string, func(), error) {
	return fmt.Sprintf("/tmp/segment-%d.mp3", s.index), func() {}, nil
}

type stubChunker struct {
	segments []AudioSegment
	err      error
	cleaned  bool
}

func (c *stubChunker) Chunk(ctx context.Context, path, ext string) ([]AudioSegment, func(), error) {
	cleanup := func() { c.cleaned = true }
	if c.err != nil {
		return nil, cleanup, c.err
	}
	return c.segments, cleanup, nil
}

type stubTranscriber struct {
	text    func(index int) string
	delay   func(index int) time.Duration
	failAt  int
	failErr error
	calls   []int
}

func (t *stubTranscriber) Transcribe(ctx context.Context, seg AudioSegment, credential string) (string, error) {
	if t.delay != nil {
		time.Sleep(t.delay(seg.Index()))
	}
	t.calls = append(t.calls, seg.Index())
	if t.failErr != nil && seg.Index() == t.failAt {
		return "", t.failErr
	}
	return t.text(seg.Index()), nil
}

type stubPages struct {
	text  string
	err   error
	panic bool
}

func (p *stubPages) PageText(ctx context.Context, url string) (string, error) {
	if p.panic {
		panic("page fetcher blew up")
	}
	return p.text, p.err
}

type stubCaptions struct {
	text    string
	err     error
	videoID string
}

func (c *stubCaptions) CaptionText(ctx context.Context, videoID string) (string, error) {
	c.videoID = videoID
	return c.text, c.err
}

func newTestDispatcher(chunker AudioChunker, transcriber Transcriber, pages PageReader, captions CaptionReader) *Dispatcher {
	return NewDispatcher(NewRegistry(), chunker, transcriber, pages, captions, logger.NewDefault())
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDispatcher_DocumentDelegatesToReader(t *testing.T) {
	d := newTestDispatcher(&stubChunker{}, &stubTranscriber{}, &stubPages{}, &stubCaptions{})
	path := writeTempFile(t, "note.txt", "plain content")

	text, err := d.Extract(context.Background(), Source{FilePath: path, Ext: "txt"})

	require.NoError(t, err)
	assert.Equal(t, "plain content", text)
}

func TestDispatcher_UnsupportedFormat(t *testing.T) {
	d := newTestDispatcher(&stubChunker{}, &stubTranscriber{}, &stubPages{}, &stubCaptions{})

	_, err := d.Extract(context.Background(), Source{FilePath: "/tmp/x.exe", Ext: "exe"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDispatcher_AudioPreservesSegmentOrder(t *testing.T) {
	chunker := &stubChunker{segments: []AudioSegment{
		&stubSegment{index: 0},
		&stubSegment{index: 1},
		&stubSegment{index: 2},
	}}
	// Later segments answer faster than earlier ones. Order must still hold
	// because transcription is strictly sequential.
	transcriber := &stubTranscriber{
		text: func(i int) string { return fmt.Sprintf("part%d", i) },
		delay: func(i int) time.Duration {
			return time.Duration(2-i) * 5 * time.Millisecond
		},
	}
	d := newTestDispatcher(chunker, transcriber, &stubPages{}, &stubCaptions{})

	text, err := d.Extract(context.Background(), Source{FilePath: "/tmp/a.mp3", Ext: "mp3", Credential: "sk-test"})

	require.NoError(t, err)
	assert.Equal(t, "part0 part1 part2", text)
	assert.Equal(t, []int{0, 1, 2}, transcriber.calls)
	assert.True(t, chunker.cleaned)
}

func TestDispatcher_AudioEmptySegmentList(t *testing.T) {
	d := newTestDispatcher(&stubChunker{}, &stubTranscriber{}, &stubPages{}, &stubCaptions{})

	text, err := d.Extract(context.Background(), Source{FilePath: "/tmp/silent.wav", Ext: "wav", Credential: "sk-test"})

	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestDispatcher_AudioChunkErrorRunsCleanup(t *testing.T) {
	chunker := &stubChunker{err: fmt.Errorf("failed to probe duration: exit status 1")}
	d := newTestDispatcher(chunker, &stubTranscriber{}, &stubPages{}, &stubCaptions{})

	_, err := d.Extract(context.Background(), Source{FilePath: "/tmp/clip.mp4", Ext: "mp4", Credential: "sk-test"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to probe duration")
	// A transcoded audio track may already exist when Chunk fails; its
	// cleanup must still run.
	assert.True(t, chunker.cleaned)
}

func TestDispatcher_AudioOversizeAborts(t *testing.T) {
	chunker := &stubChunker{segments: []AudioSegment{
		&stubSegment{index: 0},
		&stubSegment{index: 1},
		&stubSegment{index: 2},
	}}
	oversize := &OversizeSegmentError{Index: 1, Size: 30 << 20, Limit: 25 << 20}
	transcriber := &stubTranscriber{
		text:    func(i int) string { return fmt.Sprintf("part%d", i) },
		failAt:  1,
		failErr: oversize,
	}
	d := newTestDispatcher(chunker, transcriber, &stubPages{}, &stubCaptions{})

	text, err := d.Extract(context.Background(), Source{FilePath: "/tmp/big.mp3", Ext: "mp3", Credential: "sk-test"})

	require.Error(t, err)
	var got *OversizeSegmentError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, 1, got.Index)
	assert.Empty(t, text)
	// fail-fast: segment 2 never attempted
	assert.Equal(t, []int{0, 1}, transcriber.calls)
	assert.True(t, chunker.cleaned)
}

func TestDispatcher_YouTubeURL(t *testing.T) {
	captions := &stubCaptions{text: "caption transcript"}
	d := newTestDispatcher(&stubChunker{}, &stubTranscriber{}, &stubPages{text: "page text"}, captions)

	text, err := d.Extract(context.Background(), Source{URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"})

	require.NoError(t, err)
	assert.Equal(t, "caption transcript", text)
	assert.Equal(t, "dQw4w9WgXcQ", captions.videoID)
}

func TestDispatcher_PlainURL(t *testing.T) {
	d := newTestDispatcher(&stubChunker{}, &stubTranscriber{}, &stubPages{text: "page text"}, &stubCaptions{})

	text, err := d.Extract(context.Background(), Source{URL: "https://example.com/article"})

	require.NoError(t, err)
	assert.Equal(t, "page text", text)
}

func TestDispatcher_RecoversPanic(t *testing.T) {
	d := newTestDispatcher(&stubChunker{}, &stubTranscriber{}, &stubPages{panic: true}, &stubCaptions{})

	text, err := d.Extract(context.Background(), Source{URL: "https://example.com"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "extraction failed")
	assert.Empty(t, text)
}

func TestYouTubeVideoID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		matched bool
	}{
		{
			name:    "watch url",
			url:     "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			want:    "dQw4w9WgXcQ",
			matched: true,
		},
		{
			name:    "watch url with extra params",
			url:     "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s",
			want:    "dQw4w9WgXcQ",
			matched: true,
		},
		{
			name:    "short url",
			url:     "https://youtu.be/dQw4w9WgXcQ",
			want:    "dQw4w9WgXcQ",
			matched: true,
		},
		{
			name:    "short url with query",
			url:     "https://youtu.be/dQw4w9WgXcQ?si=abc",
			want:    "dQw4w9WgXcQ",
			matched: true,
		},
		{
			name:    "plain page",
			url:     "https://example.com/watch",
			matched: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := YouTubeVideoID(tt.url)
			assert.Equal(t, tt.matched, ok)
			assert.Equal(t, tt.want, id)
		})
	}
}
