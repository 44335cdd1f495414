package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/epw-merge/internal/domain"
)

const namespace = "epwmerge"

// Metrics holds the Prometheus counters, histograms, and gauges for the merge pipeline.
type Metrics struct {
	FilesParsed     prometheus.Counter
	FilesSkipped    prometheus.Counter
	RecordsParsed   prometheus.Counter
	RowsWritten     prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Stage timings, observed once per file (parse, comfort) or per run (write, run).
	ParseDuration   prometheus.Histogram
	ComfortDuration prometheus.Histogram
	WriteDuration   prometheus.Histogram
	RunDuration     prometheus.Histogram

	// Comfort model metrics.
	ComfortValues   *prometheus.CounterVec // labels: model, outcome={computed,missing_input,rejected}
	SaturatedInputs *prometheus.CounterVec // labels: model
	ComfortEnabled  prometheus.Gauge
}

// NewMetricsForTesting creates Metrics on a throwaway registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewMetricsWith(prometheus.NewRegistry())
}

// NewMetricsWith creates the metrics and registers them with reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FilesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_parsed_total",
			Help:      "EPW files parsed successfully.",
		}),
		FilesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_skipped_total",
			Help:      "EPW files left out of the merge after a read or format error.",
		}),
		RecordsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_parsed_total",
			Help:      "Hourly records decoded from EPW files.",
		}),
		RowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Rows published in merged datasets.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a merge run is in progress, 0 otherwise.",
		}),
		ParseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Time to read and decode one EPW file.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		ComfortDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "comfort_duration_seconds",
			Help:      "Time to compute all comfort columns for one file.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		WriteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "write_duration_seconds",
			Help:      "Time to encode and publish the merged dataset.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete merge run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		ComfortValues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comfort_values_total",
			Help:      "Per-record comfort model outcomes by model.",
		}, []string{"model", "outcome"}),
		SaturatedInputs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saturated_inputs_total",
			Help:      "Model inputs clamped to the validity range.",
		}, []string{"model"}),
		ComfortEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "comfort_enabled",
			Help:      "1 when comfort columns are computed, 0 in strict mode.",
		}),
	}

	reg.MustRegister(
		m.FilesParsed,
		m.FilesSkipped,
		m.RecordsParsed,
		m.RowsWritten,
		m.PipelineRunning,
		m.ParseDuration,
		m.ComfortDuration,
		m.WriteDuration,
		m.RunDuration,
		m.ComfortValues,
		m.SaturatedInputs,
		m.ComfortEnabled,
	)

	return m
}

// ObserveComfort adds one file's comfort outcomes.
func (m *Metrics) ObserveComfort(stats domain.ComfortStats) {
	for model, s := range stats {
		m.ComfortValues.WithLabelValues(model, "computed").Add(float64(s.Computed))
		m.ComfortValues.WithLabelValues(model, "missing_input").Add(float64(s.MissingInput))
		m.ComfortValues.WithLabelValues(model, "rejected").Add(float64(s.Rejected))
		m.SaturatedInputs.WithLabelValues(model).Add(float64(s.Saturated))
	}
}

// WriteTextfile dumps everything g gathers in the node-exporter textfile format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
