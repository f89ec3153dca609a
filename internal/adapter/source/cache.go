package source

import (
	"context"
	"sync"

	"github.com/couchcryptid/childcare-availability/internal/ingest"
	"github.com/couchcryptid/childcare-availability/internal/observability"
)

// CachedFetcher memoizes successful fetches by URI until Reset is called.
// The ingest loader resets it around every load, so entries only live for
// the duration of one load and a worker failure that falls back to inline
// parsing does not download the sources twice.
type CachedFetcher struct {
	inner   ingest.Fetcher
	metrics *observability.Metrics

	mu      sync.Mutex
	entries map[string][]byte
}

// NewCachedFetcher creates a cache decorator around a fetcher.
func NewCachedFetcher(inner ingest.Fetcher, metrics *observability.Metrics) *CachedFetcher {
	return &CachedFetcher{
		inner:   inner,
		metrics: metrics,
		entries: make(map[string][]byte),
	}
}

func (c *CachedFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	c.mu.Lock()
	b, ok := c.entries[uri]
	c.mu.Unlock()
	if ok {
		c.metrics.SourceCache.WithLabelValues("hit").Inc()
		return b, nil
	}
	c.metrics.SourceCache.WithLabelValues("miss").Inc()

	b, err := c.inner.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[uri] = b
	c.mu.Unlock()
	return b, nil
}

// Reset drops every cached entry, forcing the next fetch of each URI to go
// to the source.
func (c *CachedFetcher) Reset() {
	c.mu.Lock()
	c.entries = make(map[string][]byte)
	c.mu.Unlock()
}
