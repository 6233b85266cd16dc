package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gate outcomes recorded in CounterGateDecisions.
const (
	OutcomeForward      = "forward"
	OutcomeRedirect     = "redirect"
	OutcomePreflight    = "preflight"
	OutcomeUnauthorized = "unauthorized"
	OutcomeForbidden    = "forbidden"
)

// Sign-in outcomes recorded in CounterSignIns.
const (
	SignInSuccess     = "success"
	SignInInvalid     = "invalid_credentials"
	SignInBadRequest  = "bad_request"
	SignInError       = "error"
	SignInRateLimited = "rate_limited"
)

type Manager struct {
	// counters
	CounterRequests        *prometheus.CounterVec
	CounterGateDecisions   *prometheus.CounterVec
	CounterSignIns         *prometheus.CounterVec
	CounterTokenRejections *prometheus.CounterVec
	CounterHandlePanic     prometheus.Counter

	// gauges
	GaugeRequests prometheus.Gauge

	// histograms
	HistRequestDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("marketplace", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("marketplace", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "The total number of incoming requests",
		}, []string{"method", "status"}),
		CounterGateDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "gate_decisions_total",
			Help:      "Access gate decisions by request classification and outcome",
		}, []string{"class", "outcome"}),
		CounterSignIns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "signin_attempts_total",
			Help:      "Sign-in attempts by outcome",
		}, []string{"outcome"}),
		CounterTokenRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "token_rejections_total",
			Help:      "Session tokens that failed verification, by reason",
		}, []string{"reason"}),
		CounterHandlePanic: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "handle_request_panic_total",
			Help:      "The total number of recovered request panics",
		}),
		GaugeRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "current_requests",
			Help:      "Current number of requests in flight",
		}),
		HistRequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Total duration of requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
