package job

import "github.com/plumetext/convertd/internal/extract"

// Job is one accepted conversion request. It exists only in memory and
// only for the lifetime of its goroutine.
type Job struct {
	UniqueID   string
	WebhookURL string
	Source     extract.Source
}

// Filetype derives the payload filetype label: the lowercased extension
// for uploads, "youtube" for recognized video URLs, "url" otherwise.
func (j Job) Filetype() string {
	if j.Source.IsURL() {
		if _, ok := extract.YouTubeVideoID(j.Source.URL); ok {
			return "youtube"
		}
		return "url"
	}
	return j.Source.Ext
}

// ResultPayload is the webhook delivery body. Exactly one of Text or
// Error is set; an empty transcript is still a success and keeps the
// text key in the JSON.
type ResultPayload struct {
	UniqueID       string  `json:"uniqueID"`
	ProcessingTime float64 `json:"processingTime"`
	Filetype       string  `json:"filetype"`
	Text           *string `json:"text,omitempty"`
	Error          *string `json:"error,omitempty"`
}
