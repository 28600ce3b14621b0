package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	Predictions          *prometheus.CounterVec
	Fallbacks            *prometheus.CounterVec
	EstimatedCycleLength prometheus.Histogram
	ForecastWindows      prometheus.Histogram
	SnapshotErrors       *prometheus.CounterVec

	latency *latencyWindow
}

func NewMetrics(namespace string, windowSize int) *Metrics {
	return &Metrics{
		Predictions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Prediction requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		Fallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_fallbacks_total",
			Help:      "Predictions that fell back to the user's priors, by kind.",
		}, []string{"kind"}),
		EstimatedCycleLength: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "estimated_cycle_length_days",
			Help:      "Estimated cycle length returned by predictions.",
			Buckets:   []float64{15, 21, 25, 28, 31, 35, 45, 60, 90},
		}),
		ForecastWindows: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "forecast_windows",
			Help:      "Number of windows returned per forecast.",
			Buckets:   []float64{0, 1, 2, 3, 6, 12, 24, 52},
		}),
		SnapshotErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_errors_total",
			Help:      "Failed history snapshot reads by source mode.",
		}, []string{"mode"}),
		latency: newLatencyWindow(windowSize),
	}
}

// ObserveCompute records how long an endpoint spent inside the engine.
func (m *Metrics) ObserveCompute(endpoint string, d time.Duration) {
	m.latency.Observe(endpoint, float64(d.Nanoseconds())/1e3)
}

// ObserveFallback counts a prediction that used a prior instead of history.
func (m *Metrics) ObserveFallback(kind string) {
	m.Fallbacks.WithLabelValues(kind).Inc()
	m.latency.ObserveIndicator(kind)
}

// SnapshotLatency returns the in-process latency window.
func (m *Metrics) SnapshotLatency() LatencySnapshot {
	return m.latency.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
