package ingest

import (
	"context"
	"log/slog"
	"sync"

	"github.com/couchcryptid/childcare-availability/internal/observability"
)

// Execution paths, as reported in logs and metrics.
const (
	PathWorker = "worker"
	PathInline = "inline"
)

// Loader fetches and parses every source of a plan.
type Loader interface {
	Load(ctx context.Context, plan Plan) (*Payload, error)
}

// NewLoader picks the execution strategy. With the worker enabled, loads run
// on a background goroutine and fall back to inline execution when the
// worker fails; otherwise they run inline.
//
// A fetcher that implements Resetter is reset around every load, so memoized
// bytes are shared by the worker and inline attempts of one load only.
func NewLoader(f Fetcher, workerEnabled bool, logger *slog.Logger, metrics *observability.Metrics) Loader {
	var l Loader = NewInlineLoader(f, logger, metrics)
	if workerEnabled {
		l = NewFallbackLoader(NewWorkerLoader(Serve(f), logger, metrics), l, logger, metrics)
	}
	if r, ok := f.(Resetter); ok {
		return NewScopedLoader(l, r)
	}
	return l
}

// Resetter is implemented by fetchers that memoize source bytes.
type Resetter interface {
	Reset()
}

// ScopedLoader confines a memoizing fetcher to a single load. Loads are
// serialized and the fetcher is reset before and after each one.
type ScopedLoader struct {
	mu    sync.Mutex
	inner Loader
	cache Resetter
}

// NewScopedLoader creates a ScopedLoader.
func NewScopedLoader(inner Loader, cache Resetter) *ScopedLoader {
	return &ScopedLoader{inner: inner, cache: cache}
}

func (l *ScopedLoader) Load(ctx context.Context, plan Plan) (*Payload, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cache.Reset()
	defer l.cache.Reset()
	return l.inner.Load(ctx, plan)
}

// InlineLoader runs the load on the calling goroutine.
type InlineLoader struct {
	fetcher Fetcher
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewInlineLoader creates an InlineLoader.
func NewInlineLoader(f Fetcher, logger *slog.Logger, metrics *observability.Metrics) *InlineLoader {
	return &InlineLoader{fetcher: f, logger: logger, metrics: metrics}
}

func (l *InlineLoader) Load(ctx context.Context, plan Plan) (*Payload, error) {
	p, err := fetchAndParse(ctx, l.fetcher, plan)
	l.metrics.IngestRuns.WithLabelValues(PathInline, outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	l.logger.Debug("inline load complete", "facility_tables", len(p.Facilities))
	return p, nil
}

// FallbackLoader tries primary first and runs fallback when it fails for any
// reason other than the caller's context ending. Primary failures are logged
// but not returned.
type FallbackLoader struct {
	primary  Loader
	fallback Loader
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewFallbackLoader creates a FallbackLoader.
func NewFallbackLoader(primary, fallback Loader, logger *slog.Logger, metrics *observability.Metrics) *FallbackLoader {
	return &FallbackLoader{primary: primary, fallback: fallback, logger: logger, metrics: metrics}
}

func (l *FallbackLoader) Load(ctx context.Context, plan Plan) (*Payload, error) {
	p, err := l.primary.Load(ctx, plan)
	if err == nil {
		return p, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	l.logger.Warn("worker load failed, falling back to inline", "error", err)
	l.metrics.WorkerFallbacks.Inc()
	return l.fallback.Load(ctx, plan)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
