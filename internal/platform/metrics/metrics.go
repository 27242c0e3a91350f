package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for identification sessions.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	SessionsStarted  prometheus.Counter
	SessionsRejected prometheus.Counter
	StepTransitions  *prometheus.CounterVec
	StatusPolls      *prometheus.CounterVec
	APIErrors        *prometheus.CounterVec
	SessionResults   *prometheus.CounterVec
	BackendLatency   *prometheus.HistogramVec
}

// New creates and registers all metrics with reg. Pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "identhub_sessions_started_total",
			Help: "Total number of identification sessions started",
		}),
		SessionsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "identhub_sessions_rejected_total",
			Help: "Sessions rejected because another session was already active",
		}),
		StepTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "identhub_step_transitions_total",
			Help: "Flow step transitions by coordinator and step",
		}, []string{"coordinator", "step"}),
		StatusPolls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "identhub_status_polls_total",
			Help: "Status poll dispositions by kind",
		}, []string{"kind"}),
		APIErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "identhub_api_errors_total",
			Help: "API errors observed by the flow, by error kind",
		}, []string{"kind"}),
		SessionResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "identhub_session_results_total",
			Help: "Terminal session results by outcome",
		}, []string{"result"}),
		BackendLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "identhub_backend_request_duration_seconds",
			Help:    "Latency of verification backend operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementSessionsStarted() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
}

func (m *Metrics) IncrementSessionsRejected() {
	if m == nil {
		return
	}
	m.SessionsRejected.Inc()
}

func (m *Metrics) ObserveStepTransition(coordinator, step string) {
	if m == nil {
		return
	}
	m.StepTransitions.WithLabelValues(coordinator, step).Inc()
}

func (m *Metrics) ObserveStatusPoll(kind string) {
	if m == nil {
		return
	}
	m.StatusPolls.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveAPIError(kind string) {
	if m == nil {
		return
	}
	m.APIErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveSessionResult(result string) {
	if m == nil {
		return
	}
	m.SessionResults.WithLabelValues(result).Inc()
}

// ObserveBackendLatency records how long a backend operation took.
func (m *Metrics) ObserveBackendLatency(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.BackendLatency.WithLabelValues(operation).Observe(d.Seconds())
}
