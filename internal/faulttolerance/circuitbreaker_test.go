package faulttolerance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecore/execore/internal/coreerrors"
)

func TestCircuitBreaker_TripsAfterThresholdConsecutiveFailures(t *testing.T) {
	mgr := NewCircuitBreakerManager(CircuitBreakerOptions{FailureThreshold: 3, CooldownPeriod: time.Minute})

	failing := func(ctx context.Context) (interface{}, error) { return nil, errors.New("downstream error") }

	for i := 0; i < 3; i++ {
		_, err := mgr.Execute(context.Background(), "svc-a", failing)
		require.Error(t, err)
		assert.False(t, errors.Is(err, coreerrors.ErrCircuitOpen), "should be the raw failure, not circuit-open, while closed")
	}

	assert.Equal(t, "open", mgr.State("svc-a"))

	_, err := mgr.Execute(context.Background(), "svc-a", failing)
	require.Error(t, err)
	var openErr *coreerrors.CircuitOpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, "svc-a", openErr.ServiceKey)
}

func TestCircuitBreaker_KeysAreIndependent(t *testing.T) {
	mgr := NewCircuitBreakerManager(CircuitBreakerOptions{FailureThreshold: 1, CooldownPeriod: time.Minute})

	_, _ = mgr.Execute(context.Background(), "svc-a", func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("fail")
	})
	assert.Equal(t, "open", mgr.State("svc-a"))
	assert.Equal(t, "closed", mgr.State("svc-b"))
}

func TestCircuitBreaker_SuccessKeepsClosed(t *testing.T) {
	mgr := NewCircuitBreakerManager(DefaultCircuitBreakerOptions())

	result, err := mgr.Execute(context.Background(), "svc-c", func(ctx context.Context) (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, "closed", mgr.State("svc-c"))
}
