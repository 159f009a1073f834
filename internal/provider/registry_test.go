package provider_test

import (
	"context"
	"testing"

	"github.com/aicp/controlplane/internal/provider"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider is a test double that satisfies Provider.
type stubProvider struct {
	name string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Info() provider.ProviderInfo {
	return provider.ProviderInfo{Name: s.name, DisplayName: "Stub " + s.name}
}

func (s *stubProvider) Complete(ctx context.Context, req provider.CompletionRequest) (*provider.CompletionResponse, error) {
	return &provider.CompletionResponse{
		ID:      "stub-id",
		Model:   req.Model,
		Content: "stub response from " + s.name,
		Role:    provider.RoleAssistant,
	}, nil
}

func (s *stubProvider) Validate(ctx context.Context) error {
	return nil
}

func stubFactory(name string) provider.Factory {
	return func(v *viper.Viper) (provider.Provider, error) {
		return &stubProvider{name: name}, nil
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register("test-provider", stubFactory("test-provider"))

	p, err := reg.Get("test-provider", viper.New())
	require.NoError(t, err)
	assert.Equal(t, "test-provider", p.Name())
}

func TestRegistryGetUnknownProvider(t *testing.T) {
	reg := provider.NewRegistry()
	_, err := reg.Get("nonexistent", viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestRegistryDuplicateRegistrationPanics(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register("dup", stubFactory("dup"))
	assert.Panics(t, func() {
		reg.Register("dup", stubFactory("dup"))
	})
}

func TestRegistryNames(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register("beta", stubFactory("beta"))
	reg.Register("alpha", stubFactory("alpha"))
	reg.Register("gamma", stubFactory("gamma"))

	names := reg.Names()
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, names)
}

func TestStubProviderComplete(t *testing.T) {
	sp := &stubProvider{name: "test"}
	resp, err := sp.Complete(context.Background(), provider.CompletionRequest{
		Messages: []provider.Message{
			{Role: provider.RoleUser, Content: "hello"},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Content, "stub response")
}

func TestProviderErrorIs(t *testing.T) {
	err := &provider.ProviderError{
		Code:     provider.ErrCodeRateLimit,
		Message:  "too many requests",
		Provider: "openai",
	}

	assert.ErrorIs(t, err, provider.ErrRateLimit)
	assert.NotErrorIs(t, err, provider.ErrAuthentication)
}

func TestProviderErrorUnwrap(t *testing.T) {
	cause := &provider.ProviderError{
		Code:    provider.ErrCodeTimeout,
		Message: "inner",
	}
	outer := &provider.ProviderError{
		Code:    provider.ErrCodeUnknown,
		Message: "outer",
		Cause:   cause,
	}

	assert.ErrorIs(t, outer.Unwrap(), cause)
}

func TestCompletionRequestStopSequences(t *testing.T) {
	assert.Nil(t, provider.CompletionRequest{}.StopSequences())
	assert.Equal(t, []string{"STOP"}, provider.CompletionRequest{Stop: "STOP"}.StopSequences())
	assert.Equal(t, []string{"a", "b"}, provider.CompletionRequest{Stop: []string{"a", "b"}}.StopSequences())
}
