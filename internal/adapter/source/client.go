package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/childcare-availability/internal/ingest"
	"github.com/couchcryptid/childcare-availability/internal/observability"
)

// maxErrorBody caps how much of a failed response body ends up in errors.
const maxErrorBody = 512

// HTTPClient fetches sources over HTTP(S).
type HTTPClient struct {
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewHTTPClient creates an HTTP fetcher. The timeout covers a whole request
// including the body.
func NewHTTPClient(timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch downloads uri. Non-2xx responses fail with an [ingest.FetchFailure]
// carrying the status code.
func (c *HTTPClient) Fetch(ctx context.Context, uri string) ([]byte, error) {
	start := time.Now()
	body, err := c.do(ctx, uri)
	c.metrics.FetchDuration.WithLabelValues("http").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.SourceFetches.WithLabelValues("error").Inc()
		return nil, err
	}
	c.metrics.SourceFetches.WithLabelValues("success").Inc()
	c.logger.Debug("source fetched", "uri", uri, "bytes", len(body), "duration", time.Since(start))
	return body, nil
}

func (c *HTTPClient) do(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, &ingest.FetchFailure{URI: uri, Err: fmt.Errorf("create request: %w", err)}
	}
	// Availability is republished in place; never serve a stale copy.
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ingest.FetchFailure{URI: uri, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		ff := &ingest.FetchFailure{URI: uri, StatusCode: resp.StatusCode}
		if len(snippet) > 0 {
			ff.Err = errors.New(string(snippet))
		}
		return nil, ff
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ingest.FetchFailure{URI: uri, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}
