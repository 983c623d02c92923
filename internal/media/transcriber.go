package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/plumetext/convertd/internal/config"
	"github.com/plumetext/convertd/internal/extract"
	"github.com/plumetext/convertd/shared/logger"
)

// WhisperClient sends audio segments to an OpenAI-compatible speech-to-text
// endpoint. Every job supplies its own credential; the client holds none.
type WhisperClient struct {
	endpoint        string
	model           string
	maxSegmentBytes int64
	httpClient      *http.Client
	logger          *logger.Logger
}

// NewWhisperClient creates a transcription client from configuration.
func NewWhisperClient(cfg config.TranscriptionConfig, maxSegmentBytes int64, log *logger.Logger) *WhisperClient {
	return &WhisperClient{
		endpoint:        cfg.Endpoint,
		model:           cfg.Model,
		maxSegmentBytes: maxSegmentBytes,
		httpClient:      &http.Client{Timeout: cfg.RequestTimeout},
		logger:          log,
	}
}

// Transcribe exports the segment and posts it to the transcription API.
// The segment file is released on every exit path.
func (c *WhisperClient) Transcribe(ctx context.Context, seg extract.AudioSegment, credential string) (string, error) {
	path, release, err := seg.Export(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat segment %d: %w", seg.Index(), err)
	}
	if info.Size() > c.maxSegmentBytes {
		return "", &extract.OversizeSegmentError{
			Index: seg.Index(),
			Size:  info.Size(),
			Limit: c.maxSegmentBytes,
		}
	}

	body, contentType, err := c.buildRequestBody(path)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("failed to build transcription request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &extract.TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &extract.TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &extract.RemoteAPIError{
			StatusCode: resp.StatusCode,
			Message:    remoteErrorMessage(respBody),
		}
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to decode transcription response: %w", err)
	}

	c.logger.Debug("transcribed segment", "index", seg.Index(), "bytes", info.Size())

	return result.Text, nil
}

// buildRequestBody assembles the multipart form with the audio file and
// the model name.
func (c *WhisperClient) buildRequestBody(path string) (io.Reader, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open segment file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("failed to build multipart form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("failed to copy segment into form: %w", err)
	}
	if err := writer.WriteField("model", c.model); err != nil {
		return nil, "", fmt.Errorf("failed to write model field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize form: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

// remoteErrorMessage pulls the API's own message out of an error response
// so it reaches the webhook verbatim. Falls back to the raw body.
func remoteErrorMessage(body []byte) string {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}
	return strings.TrimSpace(string(body))
}
