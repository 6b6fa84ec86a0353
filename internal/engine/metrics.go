package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "casmemo"
	evalSubsystem    = "eval"
)

// Metrics holds the evaluator's Prometheus collectors.
// A nil *Metrics records nothing.
type Metrics struct {
	// RequestsTotal counts ComputeData and Verify calls.
	// Labels: result (ok, error)
	RequestsTotal *prometheus.CounterVec

	// CacheHitsTotal counts expressions answered from the equivalence
	// relation, roots and children alike.
	CacheHitsTotal prometheus.Counter

	// ReductionsTotal counts reducer invocations.
	ReductionsTotal prometheus.Counter

	// ErrorsTotal counts failed evaluations.
	// Labels: code (UNRESOLVED_EXPRESSION, EQUIVALENCE_CONFLICT, ..., other)
	ErrorsTotal *prometheus.CounterVec

	// DurationSeconds measures whole ComputeData and Verify calls.
	DurationSeconds prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: evalSubsystem,
			Name:      "requests_total",
			Help:      "Evaluation requests by result",
		}, []string{"result"}),
		CacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: evalSubsystem,
			Name:      "cache_hits_total",
			Help:      "Expressions answered from memoized results",
		}),
		ReductionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: evalSubsystem,
			Name:      "reductions_total",
			Help:      "Reducer invocations",
		}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: evalSubsystem,
			Name:      "errors_total",
			Help:      "Failed evaluations by error code",
		}, []string{"code"}),
		DurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: evalSubsystem,
			Name:      "duration_seconds",
			Help:      "Evaluation request duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
		}),
	}
}

func (m *Metrics) recordCacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}

func (m *Metrics) recordReduction() {
	if m == nil {
		return
	}
	m.ReductionsTotal.Inc()
}

func (m *Metrics) recordRequest(start time.Time, err error) {
	if m == nil {
		return
	}
	m.DurationSeconds.Observe(time.Since(start).Seconds())
	if err == nil {
		m.RequestsTotal.WithLabelValues("ok").Inc()
		return
	}
	m.RequestsTotal.WithLabelValues("error").Inc()
	code, ok := CodeOf(err)
	if !ok {
		code = "other"
	}
	m.ErrorsTotal.WithLabelValues(string(code)).Inc()
}
