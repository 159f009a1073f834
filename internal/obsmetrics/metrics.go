// Package obsmetrics registers the Prometheus collectors this module
// exposes, named and labeled per spec.md §6 and namespaced "aicp" to match
// original_source/src/aicp/observability/metrics.py.
package obsmetrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every collector the gateway and pipeline engines emit
// to. Components that take a *Metrics accept nil and then emit no metrics
// (e.g. in unit tests); a zero-value Metrics has nil collectors and is not
// usable.
type Metrics struct {
	GatewayRequestsTotal       *prometheus.CounterVec
	GatewayLatencySeconds      *prometheus.HistogramVec
	GatewayTokensTotal         *prometheus.CounterVec
	CircuitBreakerState        *prometheus.GaugeVec
	PipelineRunsTotal          *prometheus.CounterVec
	PipelineStageLatencySeconds *prometheus.HistogramVec
}

// New creates and registers the full metric set against reg. Pass
// prometheus.NewRegistry() for an isolated registry (recommended for
// tests) or prometheus.DefaultRegisterer for the global one.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GatewayRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aicp",
			Name:      "gateway_requests_total",
			Help:      "Total number of gateway completion requests by provider, model and status.",
		}, []string{"provider", "model", "status"}),

		GatewayLatencySeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "aicp",
			Name:      "gateway_latency_seconds",
			Help:      "Gateway completion latency in seconds by provider and model.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "model"}),

		GatewayTokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aicp",
			Name:      "gateway_tokens_total",
			Help:      "Total tokens consumed by provider and token type (prompt/completion).",
		}, []string{"provider", "type"}),

		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "aicp",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state by breaker name (0=closed, 1=open, 2=half-open).",
		}, []string{"breaker"}),

		PipelineRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aicp",
			Name:      "pipeline_runs_total",
			Help:      "Total pipeline runs by pipeline name and terminal status.",
		}, []string{"pipeline", "status"}),

		PipelineStageLatencySeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "aicp",
			Name:      "pipeline_stage_latency_seconds",
			Help:      "Stage execution latency in seconds by pipeline and stage name.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"pipeline", "stage"}),
	}

	reg.MustRegister(
		m.GatewayRequestsTotal,
		m.GatewayLatencySeconds,
		m.GatewayTokensTotal,
		m.CircuitBreakerState,
		m.PipelineRunsTotal,
		m.PipelineStageLatencySeconds,
	)

	return m
}

// BreakerStateValue maps a breaker's string state to the gauge value
// spec.md §6 expects.
func BreakerStateValue(state string) float64 {
	switch state {
	case "closed":
		return 0
	case "open":
		return 1
	case "half-open":
		return 2
	default:
		return -1
	}
}
