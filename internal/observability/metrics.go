package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "childcare"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// availability service.
type Metrics struct {
	// Ingestion metrics.
	IngestRuns      *prometheus.CounterVec // labels: path={worker,inline}, outcome={success,error}
	IngestDuration  prometheus.Histogram
	WorkerFallbacks prometheus.Counter
	SourceFetches   *prometheus.CounterVec   // labels: outcome={success,error}
	SourceCache     *prometheus.CounterVec   // labels: result={hit,miss}
	FetchDuration   *prometheus.HistogramVec // labels: scheme={http,file}

	// Join metrics, reset on every successful load.
	FacilitiesLoaded prometheus.Gauge
	JoinResults      *prometheus.GaugeVec // labels: result={hit,miss,orphan}
	RowsRejected     *prometheus.GaugeVec // labels: reason={missing_id,bad_coordinates,duplicate,availability_missing_id}

	// Display metrics.
	FilterApplications prometheus.Counter
	DisplayCache       *prometheus.CounterVec // labels: result={hit,miss}
	SessionReady       prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		IngestRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_runs_total",
			Help:      "Dataset loads by execution path and outcome.",
		}, []string{"path", "outcome"}),
		IngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Duration of a complete fetch, parse and join cycle.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		WorkerFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_fallbacks_total",
			Help:      "Loads that fell back from the background worker to inline execution.",
		}),
		SourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetches_total",
			Help:      "Source fetches by outcome.",
		}, []string{"outcome"}),
		SourceCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_cache_total",
			Help:      "Source byte-cache lookups by result.",
		}, []string{"result"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Source fetch duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"scheme"}),
		FacilitiesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "facilities_loaded",
			Help:      "Facilities admitted to the registry by the last load.",
		}),
		JoinResults: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "join_results",
			Help:      "Facilities with and without availability rows, and orphan availability facilities.",
		}, []string{"result"}),
		RowsRejected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_rejected",
			Help:      "Rows skipped by the last load, by reason.",
		}, []string{"reason"}),
		FilterApplications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_applications_total",
			Help:      "Filter changes applied to the facility set.",
		}),
		DisplayCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "display_cache_total",
			Help:      "Display content lookups by result.",
		}, []string{"result"}),
		SessionReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_ready",
			Help:      "1 once datasets have been loaded, 0 before.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.IngestRuns,
		m.IngestDuration,
		m.WorkerFallbacks,
		m.SourceFetches,
		m.SourceCache,
		m.FetchDuration,
		m.FacilitiesLoaded,
		m.JoinResults,
		m.RowsRejected,
		m.FilterApplications,
		m.DisplayCache,
		m.SessionReady,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates Metrics registered with reg.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered with a fresh registry to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewMetricsWithRegistry(prometheus.NewRegistry())
}
