package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/storyforge/storyforge/internal/logging"
)

const searchEndpoint = "https://api.pexels.com/videos/search"

// APIError represents a non-2xx response from the stock provider.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stock search failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx) and rate limiting.
// Other client errors (4xx) are considered permanent.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Searcher is the provider contract the fetcher depends on.
type Searcher interface {
	// Search returns candidate videos for a query.
	Search(ctx context.Context, query string) ([]Video, error)

	// Download streams the binary at link. The caller must close the reader.
	Download(ctx context.Context, link string) (io.ReadCloser, error)
}

// HTTPClient is the real Pexels client. The API key travels as a raw
// Authorization header value, per the provider's scheme.
type HTTPClient struct {
	apiKey      string
	perPage     int
	orientation string
	httpClient  *http.Client
	logger      *slog.Logger
}

func NewHTTPClient(apiKey string, perPage int, orientation string, logger *slog.Logger) *HTTPClient {
	if perPage < 1 {
		perPage = 5
	}
	return &HTTPClient{
		apiKey:      apiKey,
		perPage:     perPage,
		orientation: orientation,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

func (c *HTTPClient) Search(ctx context.Context, query string) ([]Video, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(c.perPage))
	if c.orientation != "" {
		params.Set("orientation", c.orientation)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	c.logger.Debug("stock search",
		"query", query,
		"per_page", c.perPage,
		"orientation", c.orientation,
		"key", logging.SanitizeToken(c.apiKey),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4*1024*1024)).Decode(&result); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	c.logger.Debug("stock search result",
		"query", query,
		"videos", len(result.Videos),
		"total_results", result.TotalResults,
	)

	return result.Videos, nil
}

func (c *HTTPClient) Download(ctx context.Context, link string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}

	// Downloads can outlast the search client's timeout; use a transport
	// without a whole-request deadline and rely on ctx.
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return resp.Body, nil
}
