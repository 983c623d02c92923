package job

import (
	"context"
	"math"
	"os"
	"time"

	"github.com/plumetext/convertd/internal/extract"
	"github.com/plumetext/convertd/shared/logger"
)

// Extractor converts a source to plain text.
type Extractor interface {
	Extract(ctx context.Context, src extract.Source) (string, error)
}

// Runner executes one job end to end: extract, clean up the upload,
// build the result payload, deliver it. The handler invokes Run on its
// own goroutine; Run never returns an error because there is nobody
// left to return it to.
type Runner struct {
	extractor Extractor
	notifier  Notifier
	logger    *logger.Logger
}

// NewRunner wires a runner from its collaborators.
func NewRunner(extractor Extractor, notifier Notifier, log *logger.Logger) *Runner {
	return &Runner{
		extractor: extractor,
		notifier:  notifier,
		logger:    log,
	}
}

// Start launches the job on its own goroutine. The request context is
// deliberately not inherited: the job outlives the intake request.
func (r *Runner) Start(j Job) {
	go r.Run(context.Background(), j)
}

// Run processes the job and delivers its result to the webhook.
func (r *Runner) Run(ctx context.Context, j Job) {
	start := time.Now()

	text, err := r.extractor.Extract(ctx, j.Source)

	// The upload is gone after the job no matter how extraction went.
	if j.Source.FilePath != "" {
		os.Remove(j.Source.FilePath)
	}

	payload := ResultPayload{
		UniqueID:       j.UniqueID,
		ProcessingTime: roundSeconds(time.Since(start)),
		Filetype:       j.Filetype(),
	}

	if err != nil {
		msg := err.Error()
		payload.Error = &msg
		r.logger.Error("job failed",
			"unique_id", j.UniqueID,
			"filetype", payload.Filetype,
			"error", msg,
		)
	} else {
		payload.Text = &text
	}

	if deliverErr := r.notifier.Deliver(ctx, j.WebhookURL, payload); deliverErr != nil {
		r.logger.Error("webhook delivery failed",
			"unique_id", j.UniqueID,
			"webhook_url", j.WebhookURL,
			"error", deliverErr.Error(),
		)
		return
	}

	r.logger.Info("job completed",
		"unique_id", j.UniqueID,
		"filetype", payload.Filetype,
		"processing_seconds", payload.ProcessingTime,
		"succeeded", err == nil,
	)
}

// roundSeconds converts a duration to seconds rounded to 2 decimals.
func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
