package reliability_test

import (
	"context"
	"testing"
	"time"

	"github.com/aicp/controlplane/internal/provider"
	"github.com/aicp/controlplane/internal/provider/mock"
	"github.com/aicp/controlplane/internal/reliability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteWithFallback_FirstProviderSucceeds(t *testing.T) {
	p1 := mock.New("p1", "hello from p1", nil)
	layer := reliability.New([]provider.Provider{p1}, 2, time.Millisecond, nil, nil)

	resp, err := layer.ExecuteWithFallback(context.Background(), provider.CompletionRequest{
		Messages: []provider.Message{{Role: provider.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello from p1", resp.Content)
}

func TestExecuteWithFallback_FailsOverToSecondProvider(t *testing.T) {
	p1 := mock.New("p1", "", nil)
	p1.SetError(mock.ErrScripted)
	p2 := mock.New("p2", "hello from p2", nil)

	layer := reliability.New([]provider.Provider{p1, p2}, 2, time.Millisecond, nil, nil)

	resp, err := layer.ExecuteWithFallback(context.Background(), provider.CompletionRequest{
		Messages: []provider.Message{{Role: provider.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello from p2", resp.Content)
}

func TestExecuteWithFallback_AllProvidersFail(t *testing.T) {
	p1 := mock.New("p1", "", nil)
	p1.SetError(mock.ErrScripted)
	p2 := mock.New("p2", "", nil)
	p2.SetError(mock.ErrScripted)

	layer := reliability.New([]provider.Provider{p1, p2}, 1, time.Millisecond, nil, nil)

	_, err := layer.ExecuteWithFallback(context.Background(), provider.CompletionRequest{
		Messages: []provider.Message{{Role: provider.RoleUser, Content: "hi"}},
	})
	assert.Error(t, err)
}

func TestExecuteWithFallback_BreakerOpensAcrossCalls(t *testing.T) {
	p1 := mock.New("p1", "", nil)
	p1.SetError(mock.ErrScripted)
	p2 := mock.New("p2", "ok", nil)

	layer := reliability.New([]provider.Provider{p1, p2}, 1, time.Millisecond, nil, nil)
	req := provider.CompletionRequest{Messages: []provider.Message{{Role: provider.RoleUser, Content: "hi"}}}

	for i := 0; i < 5; i++ {
		_, _ = layer.ExecuteWithFallback(context.Background(), req)
	}

	// p1's breaker should now be open after 5 consecutive failures
	// (default threshold), so this call skips straight to p2 and
	// succeeds without p1 being retried.
	resp, err := layer.ExecuteWithFallback(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
}

func TestExecuteWithFallback_RespectsCancellation(t *testing.T) {
	p1 := mock.New("p1", "ok", nil)
	layer := reliability.New([]provider.Provider{p1}, 3, time.Millisecond, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := layer.ExecuteWithFallback(ctx, provider.CompletionRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}
