package extract

import "sort"

// audioExtensions is the set of upload extensions routed to the
// transcription pipeline instead of a document reader.
var audioExtensions = map[string]struct{}{
	"flac": {},
	"mp3":  {},
	"mp4":  {},
	"mpeg": {},
	"mpga": {},
	"m4a":  {},
	"ogg":  {},
	"wav":  {},
	"webm": {},
}

// IsAudioExt reports whether ext (lowercased, no dot) is an audio or
// video extension handled by the transcription pipeline.
func IsAudioExt(ext string) bool {
	_, ok := audioExtensions[ext]
	return ok
}

// Registry maps lowercased file extensions to document readers. It is
// built once at startup and read concurrently by all jobs.
type Registry struct {
	readers map[string]Reader
}

// NewRegistry builds the registry with the full set of supported
// document readers.
func NewRegistry() *Registry {
	return &Registry{
		readers: map[string]Reader{
			"pdf":  &docconvReader{mimeType: "application/pdf"},
			"docx": &docconvReader{mimeType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
			"pptx": &docconvReader{mimeType: "application/vnd.openxmlformats-officedocument.presentationml.presentation"},
			"xlsx": &xlsxReader{},
			"csv":  &csvReader{},
			"txt":  &txtReader{},
			"html": &htmlReader{},
			"xml":  &xmlReader{},
			"json": &jsonReader{},
		},
	}
}

// Lookup returns the reader registered for ext, if any.
func (r *Registry) Lookup(ext string) (Reader, bool) {
	reader, ok := r.readers[ext]
	return reader, ok
}

// Tags returns the sorted list of registered extensions.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.readers))
	for tag := range r.readers {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
