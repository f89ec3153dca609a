package source

import (
	"context"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/childcare-availability/internal/ingest"
	"github.com/couchcryptid/childcare-availability/internal/observability"
)

// FileFetcher reads sources from the local filesystem. It accepts file://
// URIs and bare paths.
type FileFetcher struct {
	metrics *observability.Metrics
}

// NewFileFetcher creates a FileFetcher.
func NewFileFetcher(metrics *observability.Metrics) *FileFetcher {
	return &FileFetcher{metrics: metrics}
}

func (f *FileFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ingest.FetchFailure{URI: uri, Err: err}
	}

	start := time.Now()
	b, err := os.ReadFile(filePath(uri))
	f.metrics.FetchDuration.WithLabelValues("file").Observe(time.Since(start).Seconds())
	if err != nil {
		f.metrics.SourceFetches.WithLabelValues("error").Inc()
		return nil, &ingest.FetchFailure{URI: uri, Err: err}
	}
	f.metrics.SourceFetches.WithLabelValues("success").Inc()
	return b, nil
}

func filePath(uri string) string {
	if !strings.HasPrefix(uri, "file://") {
		return uri
	}
	u, err := url.Parse(uri)
	if err != nil {
		return strings.TrimPrefix(uri, "file://")
	}
	return u.Path
}

// Router dispatches by URI scheme: http and https go to the HTTP client,
// everything else is read from disk.
type Router struct {
	http ingest.Fetcher
	file ingest.Fetcher
}

// NewRouter creates a Router.
func NewRouter(httpFetcher, fileFetcher ingest.Fetcher) *Router {
	return &Router{http: httpFetcher, file: fileFetcher}
}

func (r *Router) Fetch(ctx context.Context, uri string) ([]byte, error) {
	lower := strings.ToLower(uri)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return r.http.Fetch(ctx, uri)
	}
	return r.file.Fetch(ctx, uri)
}
