package breaker_test

import (
	"testing"
	"time"

	"github.com/aicp/controlplane/internal/breaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerStartsClosed(t *testing.T) {
	b := breaker.New("p1", breaker.DefaultConfig(), nil, nil)
	assert.Equal(t, "closed", b.State())
	assert.True(t, b.CanExecute())
}

func TestBreakerTripsAfterThreshold(t *testing.T) {
	cfg := breaker.Config{FailureThreshold: 3, RecoveryTimeout: 50 * time.Millisecond}
	b := breaker.New("p2", cfg, nil, nil)

	for i := 0; i < 2; i++ {
		b.RecordFailure()
	}
	assert.Equal(t, "closed", b.State(), "should not trip before threshold")

	b.RecordFailure()
	assert.Equal(t, "open", b.State())
	assert.False(t, b.CanExecute())
}

func TestBreakerRecoversViaHalfOpen(t *testing.T) {
	cfg := breaker.Config{FailureThreshold: 1, RecoveryTimeout: 20 * time.Millisecond}
	b := breaker.New("p3", cfg, nil, nil)

	b.RecordFailure()
	require.Equal(t, "open", b.State())
	require.False(t, b.CanExecute())

	time.Sleep(40 * time.Millisecond)
	assert.True(t, b.CanExecute(), "should admit a trial after recovery timeout")

	b.RecordSuccess()
	assert.Equal(t, "closed", b.State())
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cfg := breaker.Config{FailureThreshold: 3, RecoveryTimeout: time.Second}
	b := breaker.New("p4", cfg, nil, nil)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, "closed", b.State(), "a success should reset the consecutive-failure streak")
}
