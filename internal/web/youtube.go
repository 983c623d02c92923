package web

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/plumetext/convertd/internal/config"
	"github.com/plumetext/convertd/shared/logger"
)

const (
	defaultTimedTextURL    = "https://video.google.com/timedtext"
	defaultCaptionLanguage = "en"
)

// CaptionClient fetches a hosted video's caption transcript from the
// timedtext endpoint.
type CaptionClient struct {
	baseURL    string
	language   string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewCaptionClient creates a caption client from web configuration.
func NewCaptionClient(cfg config.WebConfig, log *logger.Logger) *CaptionClient {
	language := cfg.CaptionLanguage
	if language == "" {
		language = defaultCaptionLanguage
	}

	return &CaptionClient{
		baseURL:    defaultTimedTextURL,
		language:   language,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     log,
	}
}

// transcript mirrors the timedtext XML document: a flat list of caption
// entries in timeline order.
type transcript struct {
	XMLName xml.Name      `xml:"transcript"`
	Texts   []captionText `xml:"text"`
}

type captionText struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Body  string  `xml:",chardata"`
}

// CaptionText returns the caption entries of the video, unescaped and
// joined with single spaces in timeline order.
func (c *CaptionClient) CaptionText(ctx context.Context, videoID string) (string, error) {
	endpoint := fmt.Sprintf("%s?lang=%s&v=%s", c.baseURL, url.QueryEscape(c.language), url.QueryEscape(videoID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build caption request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch captions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("caption fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read caption response: %w", err)
	}
	if len(body) == 0 {
		return "", fmt.Errorf("no captions available for video %s", videoID)
	}

	var doc transcript
	if err := xml.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("failed to parse caption document: %w", err)
	}

	parts := make([]string, 0, len(doc.Texts))
	for _, entry := range doc.Texts {
		text := strings.Join(strings.Fields(html.UnescapeString(entry.Body)), " ")
		if text != "" {
			parts = append(parts, text)
		}
	}

	c.logger.Debug("fetched captions", "video_id", videoID, "entries", len(doc.Texts))

	return strings.Join(parts, " "), nil
}
