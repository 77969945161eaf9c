package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "medal_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the render pipeline.
type Metrics struct {
	RendersTotal    prometheus.Counter
	RenderErrors    prometheus.Counter
	PipelineRunning prometheus.Gauge
	RenderDuration  prometheus.Histogram

	// Input tables.
	RowsLoaded  *prometheus.CounterVec // labels: table={medallists,medals_total}
	RowsSkipped *prometheus.CounterVec // labels: table={medallists,medals_total}

	// Output graph size of the latest render.
	FlowNodes prometheus.Gauge
	FlowEdges prometheus.Gauge

	// Sinks.
	LoadErrors *prometheus.CounterVec // labels: sink

	// Map geometry.
	GeoJSONRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeoJSONCache    *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RendersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Total completed render cycles.",
		}),
		RenderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_errors_total",
			Help:      "Total render cycles that failed to extract their input tables.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of a complete extract-build-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		RowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_loaded_total",
			Help:      "Parsed input rows by table.",
		}, []string{"table"}),
		RowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Input rows excluded by parsing, by table.",
		}, []string{"table"}),
		FlowNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "flow_nodes",
			Help:      "Node count of the latest flow graph.",
		}),
		FlowEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "flow_edges",
			Help:      "Edge count of the latest flow graph.",
		}),
		LoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_errors_total",
			Help:      "Failed chart publications by sink.",
		}, []string{"sink"}),
		GeoJSONRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geojson_requests_total",
			Help:      "GeoJSON fetches by outcome.",
		}, []string{"outcome"}),
		GeoJSONCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geojson_cache_total",
			Help:      "GeoJSON cache lookups by result.",
		}, []string{"result"}),
	}

	prometheus.MustRegister(
		m.RendersTotal,
		m.RenderErrors,
		m.PipelineRunning,
		m.RenderDuration,
		m.RowsLoaded,
		m.RowsSkipped,
		m.FlowNodes,
		m.FlowEdges,
		m.LoadErrors,
		m.GeoJSONRequests,
		m.GeoJSONCache,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RendersTotal:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "renders_total"}),
		RenderErrors:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "render_errors_total"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "pipeline_running"}),
		RenderDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "render_duration_seconds"}),
		RowsLoaded:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "rows_loaded_total"}, []string{"table"}),
		RowsSkipped:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "rows_skipped_total"}, []string{"table"}),
		FlowNodes:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "flow_nodes"}),
		FlowEdges:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "flow_edges"}),
		LoadErrors:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "load_errors_total"}, []string{"sink"}),
		GeoJSONRequests: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "geojson_requests_total"}, []string{"outcome"}),
		GeoJSONCache:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "geojson_cache_total"}, []string{"result"}),
	}
}
