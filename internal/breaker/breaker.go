// Package breaker implements spec component B, the per-provider circuit
// breaker, as a thin adapter over github.com/sony/gobreaker. gobreaker
// already provides a tested, concurrency-safe CLOSED/OPEN/HALF_OPEN state
// machine; this package translates spec.md §4.2's simpler vocabulary
// (CanExecute/RecordSuccess/RecordFailure) onto it rather than
// reimplementing the state machine by hand.
package breaker

import (
	"sync/atomic"
	"time"

	"github.com/aicp/controlplane/internal/obslog"
	"github.com/aicp/controlplane/internal/obsmetrics"
	"github.com/sony/gobreaker"
)

// Config mirrors spec.md §4.2's two tunables.
type Config struct {
	// FailureThreshold is the number of consecutive failures that trips
	// the breaker from CLOSED to OPEN. Default 5.
	FailureThreshold uint32

	// RecoveryTimeout is how long the breaker stays OPEN before allowing
	// a single HALF_OPEN trial. Default 30s.
	RecoveryTimeout time.Duration
}

// DefaultConfig returns spec.md's documented defaults.
func DefaultConfig() Config {
	return Config{FailureThreshold: 5, RecoveryTimeout: 30 * time.Second}
}

// Breaker guards calls to a single named provider. One Breaker exists per
// provider name, created lazily by the reliability layer and cached for
// the process lifetime.
type Breaker struct {
	name    string
	cb      *gobreaker.CircuitBreaker
	state   atomic.Value // string: "closed" | "open" | "half-open"
	log     obslog.Logger
	metrics *obsmetrics.Metrics
}

// New builds a Breaker named name with the given Config. log and metrics
// may be nil, in which case events are dropped.
func New(name string, cfg Config, log obslog.Logger, metrics *obsmetrics.Metrics) *Breaker {
	if log == nil {
		log = obslog.NewNop()
	}

	b := &Breaker{name: name, log: log, metrics: metrics}
	b.state.Store("closed")

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1, // admit exactly one trial while HALF_OPEN
		Interval:    0, // never reset CLOSED counts on a timer
		Timeout:     cfg.RecoveryTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.onStateChange(from, to, cfg.FailureThreshold)
		},
	}
	b.cb = gobreaker.NewCircuitBreaker(settings)
	return b
}

func (b *Breaker) onStateChange(from, to gobreaker.State, failures uint32) {
	var s string
	switch to {
	case gobreaker.StateClosed:
		s = "closed"
	case gobreaker.StateHalfOpen:
		s = "half-open"
	case gobreaker.StateOpen:
		s = "open"
	}
	b.state.Store(s)

	if b.metrics != nil {
		b.metrics.CircuitBreakerState.WithLabelValues(b.name).Set(obsmetrics.BreakerStateValue(s))
	}

	switch to {
	case gobreaker.StateOpen:
		// gobreaker calls OnStateChange while holding its own lock and after
		// resetting its counts, so cb.Counts() is not usable here. The
		// breaker trips exactly when the consecutive-failure streak reaches
		// the threshold, and a failed HALF_OPEN trial leaves it there.
		b.log.Warn("circuit_breaker_opened", map[string]interface{}{
			"breaker": b.name, "failures": failures,
		})
	case gobreaker.StateHalfOpen:
		b.log.Info("circuit_breaker_half_open", map[string]interface{}{"breaker": b.name})
	case gobreaker.StateClosed:
		if from == gobreaker.StateHalfOpen {
			b.log.Info("circuit_breaker_recovered", map[string]interface{}{"breaker": b.name})
		}
	}
}

// Name returns the breaker's provider name.
func (b *Breaker) Name() string { return b.name }

// State returns the current state as spec.md's vocabulary: "closed",
// "open", or "half-open".
func (b *Breaker) State() string {
	return b.state.Load().(string)
}

// CanExecute reports whether a call should be attempted right now. It is
// the only predicate the reliability layer consults before calling a
// provider; it does not itself count as an execution.
func (b *Breaker) CanExecute() bool {
	// cb.State() (not the cached atomic.Value) drives gobreaker's lazy
	// OPEN -> HALF_OPEN transition once RecoveryTimeout has elapsed, and
	// fires OnStateChange to keep b.state and the metric in sync. It does
	// not consume a HALF_OPEN trial slot; only Execute/Allow do that.
	return b.cb.State() != gobreaker.StateOpen
}

// RecordSuccess reports a successful provider call.
func (b *Breaker) RecordSuccess() {
	_, _ = b.cb.Execute(func() (interface{}, error) { return nil, nil })
}

// RecordFailure reports a failed provider call.
func (b *Breaker) RecordFailure() {
	_, _ = b.cb.Execute(func() (interface{}, error) { return nil, errExecutionFailed })
}

var errExecutionFailed = &executionFailedError{}

type executionFailedError struct{}

func (*executionFailedError) Error() string { return "breaker: recorded failure" }
