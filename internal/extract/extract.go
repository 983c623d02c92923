package extract

import "context"

// Reader converts one document format to plain text.
type Reader interface {
	Read(data []byte) (string, error)
}

// AudioSegment is one planned window of an audio stream. Export materializes
// the segment to a transport-ready file on demand; the returned release func
// removes the file and must be called on every exit path.
type AudioSegment interface {
	Index() int
	Export(ctx context.Context) (path string, release func(), err error)
}

// AudioChunker splits an audio or video file into consecutive fixed-length
// segments. The returned cleanup func removes any shared intermediate
// artifacts (such as a transcoded audio track).
type AudioChunker interface {
	Chunk(ctx context.Context, path, ext string) ([]AudioSegment, func(), error)
}

// Transcriber turns one audio segment into text using the caller's
// credential for the remote speech-to-text API.
type Transcriber interface {
	Transcribe(ctx context.Context, seg AudioSegment, credential string) (string, error)
}

// PageReader fetches a web page and returns its visible text.
type PageReader interface {
	PageText(ctx context.Context, url string) (string, error)
}

// CaptionReader fetches the caption transcript of a hosted video.
type CaptionReader interface {
	CaptionText(ctx context.Context, videoID string) (string, error)
}
