// Package mock implements a scriptable provider.Provider used by tests and
// the CLI's `chat --provider=mock` path, grounded on
// original_source/src/aicp/gateway/providers/mock.py's MockProvider: it
// logs every received message (so middleware redaction can be verified end
// to end) and returns a canned response.
package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/aicp/controlplane/internal/obslog"
	"github.com/aicp/controlplane/internal/provider"
	"github.com/spf13/viper"
)

func init() {
	provider.Register("mock", NewProvider)
}

// Provider is a scriptable, in-memory Provider implementation.
type Provider struct {
	mu       sync.Mutex
	name     string
	response string
	err      error
	log      obslog.Logger
	calls    []provider.CompletionRequest
}

// NewProvider is the factory registered with the provider registry. It
// reads an optional "response_content" key from config for static
// scripting; tests typically construct a *Provider directly instead via
// New.
func NewProvider(v *viper.Viper) (provider.Provider, error) {
	resp := v.GetString("response_content")
	if resp == "" {
		resp = "This is a mock response."
	}
	return New("mock-provider", resp, obslog.NewNop()), nil
}

// New constructs a mock Provider directly, for use in tests and the CLI's
// default chat path.
func New(name, responseContent string, log obslog.Logger) *Provider {
	if log == nil {
		log = obslog.NewNop()
	}
	return &Provider{name: name, response: responseContent, log: log}
}

// Name returns the provider's canonical short name.
func (p *Provider) Name() string { return p.name }

// Info returns provider metadata.
func (p *Provider) Info() provider.ProviderInfo {
	return provider.ProviderInfo{
		Name:         p.name,
		DisplayName:  "Mock Provider",
		Description:  "In-memory, scriptable provider for testing and local development.",
		DefaultModel: "mock-model",
	}
}

// Validate always succeeds; the mock provider has nothing to check.
func (p *Provider) Validate(ctx context.Context) error { return nil }

// SetResponse changes the canned response content returned by subsequent
// calls.
func (p *Provider) SetResponse(content string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.response = content
	p.err = nil
}

// SetError makes subsequent calls fail with err.
func (p *Provider) SetError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Calls returns every CompletionRequest this provider has received, for
// test assertions (e.g. verifying PII redaction ran before the provider
// saw the message).
func (p *Provider) Calls() []provider.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]provider.CompletionRequest, len(p.calls))
	copy(out, p.calls)
	return out
}

// Complete logs each received message and returns the canned response (or
// the scripted error).
func (p *Provider) Complete(ctx context.Context, req provider.CompletionRequest) (*provider.CompletionResponse, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	respErr := p.err
	respContent := p.response
	p.mu.Unlock()

	for _, m := range req.Messages {
		p.log.Debug("mock_provider_received_message", map[string]interface{}{
			"role": string(m.Role), "content": m.Content,
		})
	}

	if respErr != nil {
		return nil, respErr
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	return &provider.CompletionResponse{
		ID:           "mock-" + p.name,
		Model:        req.Model,
		Content:      respContent,
		Role:         provider.RoleAssistant,
		FinishReason: "stop",
		Usage: provider.Usage{
			PromptTokens:     estimateTokens(req.Messages),
			CompletionTokens: len(respContent) / 4,
			TotalTokens:      estimateTokens(req.Messages) + len(respContent)/4,
		},
		ProviderMeta: map[string]interface{}{"mock": true},
	}, nil
}

func estimateTokens(msgs []provider.Message) int {
	total := 0
	for _, m := range msgs {
		total += len(m.Content) / 4
	}
	return total
}

// ErrScripted is a convenience sentinel tests can use with SetError.
var ErrScripted = errors.New("mock: scripted failure")
