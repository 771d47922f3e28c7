package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "climate_risk"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// transform run, the dashboard server and geocoding.
type Metrics struct {
	// Transform metrics.
	RowsRead          prometheus.Counter
	RowsSkipped       *prometheus.CounterVec // labels: reason
	RecordsWritten    prometheus.Counter
	RecordsPublished  prometheus.Counter
	LoadErrors        *prometheus.CounterVec // labels: loader
	TransformDuration prometheus.Histogram
	PipelineRunning   prometheus.Gauge

	// Dashboard metrics.
	HTTPRequests    *prometheus.CounterVec   // labels: route, code
	HTTPDuration    *prometheus.HistogramVec // labels: route
	ArtifactLoads   *prometheus.CounterVec   // labels: result={loaded,missing,error}
	ArtifactRecords prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Total usable rows read from the raw dataset.",
		}),
		RowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Input rows excluded from the artifact, by reason.",
		}, []string{"reason"}),
		RecordsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Scored country-year records produced by the transform.",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_published_total",
			Help:      "Scored records published to Kafka.",
		}),
		LoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_errors_total",
			Help:      "Failed load attempts by loader.",
		}, []string{"loader"}),
		TransformDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transform_duration_seconds",
			Help:      "Duration of a complete extract-transform-load run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a transform run is active, 0 otherwise.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Dashboard HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Dashboard HTTP request duration by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		ArtifactLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_loads_total",
			Help:      "Artifact (re)load attempts by result.",
		}, []string{"result"}),
		ArtifactRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "artifact_records",
			Help:      "Records in the currently served artifact.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Country geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when map geocoding is enabled, 0 otherwise.",
		}),
	}
}

// collectors lists every metric for registration with a registry or pusher.
func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RowsRead,
		m.RowsSkipped,
		m.RecordsWritten,
		m.RecordsPublished,
		m.LoadErrors,
		m.TransformDuration,
		m.PipelineRunning,
		m.HTTPRequests,
		m.HTTPDuration,
		m.ArtifactLoads,
		m.ArtifactRecords,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	}
}
