package dto

// ConvertRequest carries the multipart form fields of an intake request.
// The file part is read separately from the multipart form; presence and
// ordering checks are done in the handler so error messages match the
// documented shapes.
type ConvertRequest struct {
	URL        string `form:"url"`
	WebhookURL string `form:"webhookURL"`
	UniqueID   string `form:"uniqueID"`
}
