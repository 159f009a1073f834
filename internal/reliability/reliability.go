// Package reliability implements spec component C, the cross-provider
// failover layer, grounded on original_source/src/aicp/gateway/reliability.py's
// ReliabilityLayer.execute_with_fallback algorithm: walk the prioritized
// provider list, skip any whose breaker is open, try each provider up to
// max_retries times in total with exponential backoff between attempts,
// and fail over to the next provider on exhaustion.
package reliability

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/aicp/controlplane/internal/aicperrors"
	"github.com/aicp/controlplane/internal/breaker"
	"github.com/aicp/controlplane/internal/obslog"
	"github.com/aicp/controlplane/internal/obsmetrics"
	"github.com/aicp/controlplane/internal/provider"
)

// Layer executes a completion request against a prioritized list of
// providers, applying per-provider circuit breaking and retry/backoff.
type Layer struct {
	providers   []provider.Provider
	maxRetries  int
	baseDelay   time.Duration
	breakerCfg  breaker.Config
	breakersMu  sync.Mutex
	breakers    map[string]*breaker.Breaker
	log         obslog.Logger
	metrics     *obsmetrics.Metrics
}

// New builds a Layer over providers, in priority order (index 0 tried
// first). maxRetries defaults to 3 and baseDelay to 1s when zero, matching
// original_source's ReliabilityLayer defaults.
func New(providers []provider.Provider, maxRetries int, baseDelay time.Duration, log obslog.Logger, metrics *obsmetrics.Metrics) *Layer {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	if log == nil {
		log = obslog.NewNop()
	}
	return &Layer{
		providers:  providers,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		breakerCfg: breaker.DefaultConfig(),
		breakers:   make(map[string]*breaker.Breaker),
		log:        log,
		metrics:    metrics,
	}
}

func (l *Layer) breakerFor(name string) *breaker.Breaker {
	l.breakersMu.Lock()
	defer l.breakersMu.Unlock()
	b, ok := l.breakers[name]
	if !ok {
		b = breaker.New(name, l.breakerCfg, l.log, l.metrics)
		l.breakers[name] = b
	}
	return b
}

// ExecuteWithFallback tries each provider in order, retrying any failure
// (errors are not classified) before failing over to the next provider. It
// returns the first successful response; otherwise the last observed
// error, or aicperrors.ErrAllProvidersUnavailable when no provider was
// attempted because every breaker was open. A cancelled ctx aborts with
// ctx.Err() and is not recorded as a breaker failure.
func (l *Layer) ExecuteWithFallback(ctx context.Context, req provider.CompletionRequest) (*provider.CompletionResponse, error) {
	var lastErr error

	for _, p := range l.providers {
		b := l.breakerFor(p.Name())

		if !b.CanExecute() {
			l.log.Info("skipping_provider_breaker_open", map[string]interface{}{"provider": p.Name()})
			continue
		}

		for attempt := 0; attempt < l.maxRetries; attempt++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			l.log.Debug("attempting_request", map[string]interface{}{
				"provider": p.Name(), "attempt": attempt,
			})

			start := time.Now()
			resp, err := p.Complete(ctx, req)
			elapsed := time.Since(start)

			if err != nil && ctx.Err() != nil {
				// Cancelled by the caller: abort without counting it
				// against the provider's breaker.
				return nil, ctx.Err()
			}

			if l.metrics != nil {
				status := "success"
				if err != nil {
					status = "error"
				}
				l.metrics.GatewayRequestsTotal.WithLabelValues(p.Name(), req.Model, status).Inc()
				l.metrics.GatewayLatencySeconds.WithLabelValues(p.Name(), req.Model).Observe(elapsed.Seconds())
			}

			if err == nil {
				b.RecordSuccess()
				if l.metrics != nil {
					l.metrics.GatewayTokensTotal.WithLabelValues(p.Name(), "prompt").Add(float64(resp.Usage.PromptTokens))
					l.metrics.GatewayTokensTotal.WithLabelValues(p.Name(), "completion").Add(float64(resp.Usage.CompletionTokens))
				}
				return resp, nil
			}

			lastErr = err
			b.RecordFailure()
			l.log.Warn("request_failed", map[string]interface{}{
				"provider": p.Name(), "attempt": attempt, "error": err.Error(),
			})

			if attempt == l.maxRetries-1 {
				break
			}

			sleep := time.Duration(float64(l.baseDelay) * math.Pow(2, float64(attempt)))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(sleep):
			}
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, aicperrors.ErrAllProvidersUnavailable
}
