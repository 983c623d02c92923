package job

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/plumetext/convertd/internal/config"
	"github.com/plumetext/convertd/shared/logger"
)

// Notifier delivers a result payload to a webhook exactly once.
type Notifier interface {
	Deliver(ctx context.Context, url string, payload ResultPayload) error
}

// WebhookNotifier posts the payload as JSON. No retries: a failed
// delivery is logged by the runner and the result is dropped.
type WebhookNotifier struct {
	httpClient *http.Client
	logger     *logger.Logger
}

// NewWebhookNotifier creates a notifier from webhook configuration.
func NewWebhookNotifier(cfg config.WebhookConfig, log *logger.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     log,
	}
}

// Deliver sends one JSON POST to the webhook URL.
func (n *WebhookNotifier) Deliver(ctx context.Context, url string, payload ResultPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
