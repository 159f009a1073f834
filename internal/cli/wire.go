package cli

import (
	"fmt"
	"time"

	"github.com/aicp/controlplane/internal/gateway"
	"github.com/aicp/controlplane/internal/middleware"
	"github.com/aicp/controlplane/internal/middleware/piiredactor"
	"github.com/aicp/controlplane/internal/middleware/promptguard"
	"github.com/aicp/controlplane/internal/obslog"
	"github.com/aicp/controlplane/internal/obsmetrics"
	"github.com/aicp/controlplane/internal/obstrace"
	"github.com/aicp/controlplane/internal/provider"
	_ "github.com/aicp/controlplane/internal/provider/gemini" // self-registers the "gemini" factory
	_ "github.com/aicp/controlplane/internal/provider/mock"   // self-registers the "mock" factory
	_ "github.com/aicp/controlplane/internal/provider/openai" // self-registers the "openai" factory
	"github.com/aicp/controlplane/internal/reliability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
)

// buildGateway assembles a Gateway from v's "providers" list (defaulting
// to ["mock"]), in priority order, each provider configured from its own
// sub-section of v (v.Sub("provider_config." + name)), with the standard PII-redaction and
// prompt-injection-guard middleware chain in front.
func buildGateway(v *viper.Viper, log obslog.Logger, metrics *obsmetrics.Metrics, tracer obstrace.Tracer) (*gateway.Gateway, error) {
	names := v.GetStringSlice("providers")
	if len(names) == 0 {
		names = []string{"mock"}
	}

	providers := make([]provider.Provider, 0, len(names))
	for _, name := range names {
		sub := v.Sub("provider_config." + name)
		if sub == nil {
			sub = viper.New()
		}
		p, err := provider.Get(name, sub)
		if err != nil {
			return nil, fmt.Errorf("cli: building provider %q: %w", name, err)
		}
		providers = append(providers, p)
	}

	maxRetries := v.GetInt("max_retries")
	baseDelay := v.GetDuration("base_delay")
	if baseDelay == 0 {
		baseDelay = time.Second
	}
	layer := reliability.New(providers, maxRetries, baseDelay, log, metrics)

	var chainMiddlewares []middleware.Middleware
	if v.GetBool("redact") || !v.IsSet("redact") {
		chainMiddlewares = append(chainMiddlewares, piiredactor.New())
	}
	chainMiddlewares = append(chainMiddlewares, promptguard.New(log))
	chain := middleware.NewChain(chainMiddlewares...)

	return gateway.New(layer, chain, gateway.WithTracer(tracer)), nil
}

// sharedMetrics registers this process's Prometheus collectors exactly
// once, against the default registerer.
var sharedMetrics = obsmetrics.New(prometheus.DefaultRegisterer)
