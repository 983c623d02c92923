package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"

	"github.com/plumetext/convertd/internal/config"
	"github.com/plumetext/convertd/internal/extract"
	"github.com/plumetext/convertd/shared/logger"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// PageFetcher downloads a web page and reduces it to the text a browser
// would render.
type PageFetcher struct {
	httpClient *http.Client
	userAgent  string
	logger     *logger.Logger
}

// NewPageFetcher creates a page fetcher from web configuration.
func NewPageFetcher(cfg config.WebConfig, log *logger.Logger) *PageFetcher {
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &PageFetcher{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		userAgent:  userAgent,
		logger:     log,
	}
}

// PageText fetches the URL and returns its visible text, space-joined.
// A browser User-Agent is sent because many sites refuse default Go
// client requests.
func (f *PageFetcher) PageText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build page request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("page fetch returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	f.logger.Debug("fetched page", "url", url)

	return extract.VisibleText(doc.Get(0)), nil
}
