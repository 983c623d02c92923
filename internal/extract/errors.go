package extract

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat indicates the source extension maps to no reader
// and is not a recognized audio or video extension.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// OversizeSegmentError indicates an exported audio segment exceeds the
// transcription API's encoded size ceiling. Fatal for the whole job;
// segments are never skipped.
type OversizeSegmentError struct {
	Index int
	Size  int64
	Limit int64
}

func (e *OversizeSegmentError) Error() string {
	return fmt.Sprintf("audio segment %d is %d bytes, exceeds the %d byte limit", e.Index, e.Size, e.Limit)
}

// RemoteAPIError carries the transcription service's own error message,
// verbatim, so the webhook consumer sees what the remote API said.
type RemoteAPIError struct {
	StatusCode int
	Message    string
}

func (e *RemoteAPIError) Error() string {
	return e.Message
}

// TransportError indicates the transcription request never produced an
// HTTP response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transcription request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
