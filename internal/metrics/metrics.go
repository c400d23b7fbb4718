// Package metrics exposes Prometheus instruments for assessments, sessions
// and batch evaluations.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/crimson-sun/cardiocare/internal/model"
)

const namespace = "cardiocare"

// Metrics groups the service's instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	predictions *prometheus.CounterVec
	errors      *prometheus.CounterVec
	duration    prometheus.Histogram
	sessions    prometheus.Gauge
	evaluations *prometheus.CounterVec
	dropped     *prometheus.CounterVec
}

// New registers the instruments with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// Labels: label (0 or 1)
		predictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Total completed assessments by binary risk label",
		}, []string{"label"}),

		// Labels: kind (unknown_category, schema_mismatch, shape, invalid_input, other)
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_errors_total",
			Help:      "Total failed assessments by error kind",
		}, []string{"kind"}),

		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Encode, scale, classify and report latency per assessment",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		sessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Interactive sessions currently held in memory",
		}),

		// Labels: status (ok, error)
		evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Total batch evaluations by outcome",
		}, []string{"status"}),

		// Labels: sink
		dropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_dropped_total",
			Help:      "Assessment records dropped because a sink buffer was full",
		}, []string{"sink"}),
	}
}

// ObservePrediction records one completed assessment.
func (m *Metrics) ObservePrediction(label int, took time.Duration) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(strconv.Itoa(label)).Inc()
	m.duration.Observe(took.Seconds())
}

// ObserveError records one failed assessment, bucketed by error kind.
func (m *Metrics) ObserveError(err error) {
	if m == nil || err == nil {
		return
	}
	m.errors.WithLabelValues(ErrorKind(err)).Inc()
}

// SetSessions sets the active session gauge.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}

// ObserveEvaluation records one batch evaluation outcome.
func (m *Metrics) ObserveEvaluation(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.evaluations.WithLabelValues(status).Inc()
}

// ObserveDrop records one record dropped by the named sink.
func (m *Metrics) ObserveDrop(sink string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(sink).Inc()
}

// ErrorKind maps an assessment error onto its metric label.
func ErrorKind(err error) string {
	var (
		uc    *model.UnknownCategoryError
		sm    *model.SchemaMismatchError
		shape *model.FeatureVectorShapeError
		in    *model.InputError
	)
	switch {
	case errors.As(err, &uc):
		return "unknown_category"
	case errors.As(err, &sm):
		return "schema_mismatch"
	case errors.As(err, &shape):
		return "shape"
	case errors.As(err, &in):
		return "invalid_input"
	default:
		return "other"
	}
}
