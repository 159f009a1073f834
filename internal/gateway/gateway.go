// Package gateway implements spec component E, composing the middleware
// chain and the reliability layer around a cost estimate and a trace
// span, grounded on original_source/src/aicp/gateway/gateway.py's
// LLMGateway.complete: run_pre -> reliability.execute_with_fallback ->
// cost calc -> run_post.
package gateway

import (
	"context"

	"github.com/aicp/controlplane/internal/middleware"
	"github.com/aicp/controlplane/internal/obstrace"
	"github.com/aicp/controlplane/internal/provider"
	"github.com/aicp/controlplane/internal/reliability"
)

// CompletionResult bundles the provider response with the gateway's own
// cost estimate.
type CompletionResult struct {
	Response      *provider.CompletionResponse
	EstimatedCost float64
}

// Gateway is the unified entry point spec.md §4.5 describes: a middleware
// chain wrapped around the reliability layer, with cost estimation and
// tracing on top.
type Gateway struct {
	reliability *reliability.Layer
	middlewares *middleware.Chain
	tracer      obstrace.Tracer
}

// Option configures a Gateway at construction time.
type Option func(*Gateway)

// WithTracer injects a Tracer; the default is a no-op tracer.
func WithTracer(t obstrace.Tracer) Option {
	return func(g *Gateway) { g.tracer = t }
}

// New builds a Gateway over a reliability layer and an ordered middleware
// chain.
func New(layer *reliability.Layer, chain *middleware.Chain, opts ...Option) *Gateway {
	g := &Gateway{reliability: layer, middlewares: chain, tracer: obstrace.Noop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Complete runs the full gateway pipeline: pre-process, execute with
// fallback across providers, estimate cost, post-process.
func (g *Gateway) Complete(ctx context.Context, req provider.CompletionRequest) (*CompletionResult, error) {
	ctx, span := g.tracer.StartSpan(ctx, "llm_gateway_completion")
	defer span.End()

	if g.middlewares != nil {
		var err error
		req, err = g.middlewares.RunPre(req)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	resp, err := g.reliability.ExecuteWithFallback(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	cost := estimateCost(resp.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	span.SetAttribute("estimated_cost_usd", cost)

	if g.middlewares != nil {
		*resp, err = g.middlewares.RunPost(*resp)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	return &CompletionResult{Response: resp, EstimatedCost: cost}, nil
}
