package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/childcare-availability/internal/domain"
	"github.com/couchcryptid/childcare-availability/internal/ingest"
	"github.com/couchcryptid/childcare-availability/internal/observability"
)

// ErrNotLoaded is returned by queries issued before the first successful load.
var ErrNotLoaded = errors.New("datasets have not been loaded yet")

// Session owns the loaded datasets and derives display state from them.
// Each successful load replaces the datasets as a whole; queries always see
// one complete snapshot.
type Session struct {
	loader       ingest.Loader
	plan         ingest.Plan
	logger       *slog.Logger
	metrics      *observability.Metrics
	labelMinZoom int

	loadMu   sync.Mutex
	snapshot atomic.Pointer[snapshot]
}

type snapshot struct {
	join     *domain.JoinResult
	engine   *domain.DisplayEngine
	loadedAt time.Time
	duration time.Duration
}

// New creates a Session that loads plan through loader.
func New(loader ingest.Loader, plan ingest.Plan, logger *slog.Logger, metrics *observability.Metrics, labelMinZoom int) *Session {
	return &Session{
		loader:       loader,
		plan:         plan,
		logger:       logger,
		metrics:      metrics,
		labelMinZoom: labelMinZoom,
	}
}

// CheckReadiness returns nil once a load has succeeded, or an error
// describing why the service is not yet ready.
func (s *Session) CheckReadiness(_ context.Context) error {
	if s.snapshot.Load() == nil {
		return ErrNotLoaded
	}
	return nil
}

// Load fetches, parses and joins every source, then swaps in the new
// datasets. Loads are serialized; a failed load keeps the previous data.
// Nothing is retried here.
func (s *Session) Load(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	start := clock.Now()
	s.logger.Info("loading datasets",
		"facility_sources", len(s.plan.Facilities),
		"availability_source", s.plan.Availability,
		"encoding", s.plan.Encoding,
	)

	payload, err := s.loader.Load(ctx, s.plan)
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}

	jr, err := domain.Join(payload.Facilities, payload.Availability)
	if err != nil {
		return fmt.Errorf("join datasets: %w", err)
	}

	idx := domain.NewAvailabilityIndex(jr)
	elapsed := clock.Since(start)
	s.snapshot.Store(&snapshot{
		join:     jr,
		engine:   domain.NewDisplayEngine(jr, idx),
		loadedAt: clock.Now(),
		duration: elapsed,
	})

	s.recordJoin(jr.Stats)
	s.metrics.IngestDuration.Observe(elapsed.Seconds())
	s.metrics.SessionReady.Set(1)

	s.logger.Info("datasets loaded",
		"facilities", jr.Stats.FacilitiesAdmitted,
		"availability_rows", jr.Stats.AvailabilityRows,
		"join_hits", jr.Stats.JoinHits,
		"join_misses", jr.Stats.JoinMisses,
		"orphans", jr.Stats.OrphanFacilities,
		"status_columns", len(jr.Columns),
		"dates", len(idx.Dates()),
		"duration", elapsed,
	)
	return nil
}

func (s *Session) recordJoin(st domain.JoinStats) {
	s.metrics.FacilitiesLoaded.Set(float64(st.FacilitiesAdmitted))
	s.metrics.JoinResults.WithLabelValues("hit").Set(float64(st.JoinHits))
	s.metrics.JoinResults.WithLabelValues("miss").Set(float64(st.JoinMisses))
	s.metrics.JoinResults.WithLabelValues("orphan").Set(float64(st.OrphanFacilities))
	s.metrics.RowsRejected.WithLabelValues("missing_id").Set(float64(st.RowsMissingID))
	s.metrics.RowsRejected.WithLabelValues("bad_coordinates").Set(float64(st.RowsBadCoordinates))
	s.metrics.RowsRejected.WithLabelValues("duplicate").Set(float64(st.RowsDuplicate))
	s.metrics.RowsRejected.WithLabelValues("availability_missing_id").Set(float64(st.AvailabilityDiscarded))
}

// Run performs the initial load, retrying with exponential backoff until it
// succeeds, then waits for the context to be cancelled.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("session started")

	// Start at 1s, double each retry, cap at 1m.
	backoff := time.Second
	maxBackoff := time.Minute

	for {
		err := s.Load(ctx)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return nil
		}
		s.logger.Error("initial load failed", "error", err, "retry_in", backoff)
		if !retry.SleepWithContext(ctx, backoff) {
			return nil
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}

	<-ctx.Done()
	s.logger.Info("session stopping", "reason", ctx.Err())
	return nil
}

func (s *Session) current() (*snapshot, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

// Query is a filter request from the map layer. Nil Categories enables
// every category; nil Zoom leaves labels on.
type Query struct {
	Date       string
	Age        *int
	Categories []domain.Category
	Zoom       *int
	Origin     *domain.LatLon
}

// Filter converts a query into the filter state the display engine uses.
func (s *Session) Filter(q Query) domain.FilterState {
	f := domain.FilterState{
		Date:          q.Date,
		Age:           q.Age,
		LabelsEnabled: q.Zoom == nil || domain.LabelsVisibleAt(*q.Zoom, s.labelMinZoom),
		Origin:        q.Origin,
	}
	if q.Categories != nil {
		f.Categories = domain.NewCategorySet(q.Categories...)
	}
	return f
}

// Apply derives the view of every facility for the query.
func (s *Session) Apply(q Query) (domain.Result, error) {
	snap, err := s.current()
	if err != nil {
		return domain.Result{}, err
	}

	filter := s.Filter(q)
	res := snap.engine.Apply(filter)
	s.metrics.FilterApplications.Inc()
	s.metrics.DisplayCache.WithLabelValues("hit").Add(float64(res.Cache.Hits))
	s.metrics.DisplayCache.WithLabelValues("miss").Add(float64(res.Cache.Builds))

	s.logger.Debug("filter applied",
		"date", q.Date,
		"age", filter.AgeLabel(),
		"visible", res.Counters.Visible,
		"available", res.Counters.Available,
		"full", res.Counters.Full,
	)
	return res, nil
}

// Detail returns the popup content of one facility. The identifier is
// normalized, so "007" and "7" find the same facility.
func (s *Session) Detail(id string, q Query) (domain.Detail, domain.Style, bool, error) {
	snap, err := s.current()
	if err != nil {
		return domain.Detail{}, "", false, err
	}
	f, ok := snap.engine.Facility(domain.NormalizeIdentifier(id))
	if !ok {
		return domain.Detail{}, "", false, nil
	}
	st := snap.engine.ComputeState(f, s.Filter(q))
	return st.Content.Detail, st.Style, true, nil
}

// Stats returns the join statistics of the current datasets.
func (s *Session) Stats() (domain.JoinStats, error) {
	snap, err := s.current()
	if err != nil {
		return domain.JoinStats{}, err
	}
	return snap.join.Stats, nil
}
