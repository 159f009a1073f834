// Package middleware implements spec component D, the ordered pre/post
// processing chain, grounded on
// original_source/src/aicp/gateway/middleware.py's MiddlewarePipeline:
// PreProcess runs in declared order, PostProcess runs in reverse.
package middleware

import "github.com/aicp/controlplane/internal/provider"

// Middleware transforms a request before it reaches the provider, and a
// response before it reaches the caller. Implementations must not mutate
// their input in place; they return a (possibly identical) copy.
type Middleware interface {
	PreProcess(req provider.CompletionRequest) (provider.CompletionRequest, error)
	PostProcess(resp provider.CompletionResponse) (provider.CompletionResponse, error)
}

// Chain composes an ordered list of Middleware into the onion pattern
// spec.md §4.4 describes.
type Chain struct {
	middlewares []Middleware
}

// NewChain builds a Chain over middlewares, applied to requests in the
// given order and to responses in reverse.
func NewChain(middlewares ...Middleware) *Chain {
	return &Chain{middlewares: middlewares}
}

// RunPre applies every middleware's PreProcess in declared order.
func (c *Chain) RunPre(req provider.CompletionRequest) (provider.CompletionRequest, error) {
	var err error
	for _, m := range c.middlewares {
		req, err = m.PreProcess(req)
		if err != nil {
			return req, err
		}
	}
	return req, nil
}

// RunPost applies every middleware's PostProcess in reverse declared
// order.
func (c *Chain) RunPost(resp provider.CompletionResponse) (provider.CompletionResponse, error) {
	var err error
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		resp, err = c.middlewares[i].PostProcess(resp)
		if err != nil {
			return resp, err
		}
	}
	return resp, nil
}
