package faulttolerance

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wavecore/execore/internal/coreerrors"
)

// CircuitBreakerOptions configures one service key's breaker. Defaults
// follow spec.md §4.3: 5 consecutive failures trips the breaker, it stays
// open for 60s before allowing a half-open probe.
type CircuitBreakerOptions struct {
	FailureThreshold uint32
	CooldownPeriod   time.Duration
}

// DefaultCircuitBreakerOptions returns the spec.md §4.3 documented defaults.
func DefaultCircuitBreakerOptions() CircuitBreakerOptions {
	return CircuitBreakerOptions{FailureThreshold: 5, CooldownPeriod: 60 * time.Second}
}

// CircuitBreakerManager holds one gobreaker.CircuitBreaker per service key,
// created lazily on first use with the given options.
type CircuitBreakerManager struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
	opts     CircuitBreakerOptions
}

// NewCircuitBreakerManager builds a manager sharing one options set across
// all service keys it creates breakers for.
func NewCircuitBreakerManager(opts CircuitBreakerOptions) *CircuitBreakerManager {
	if opts.FailureThreshold == 0 {
		opts = DefaultCircuitBreakerOptions()
	}
	return &CircuitBreakerManager{breakers: make(map[string]*gobreaker.CircuitBreaker), opts: opts}
}

func (m *CircuitBreakerManager) breakerFor(serviceKey string) *gobreaker.CircuitBreaker {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cb, ok := m.breakers[serviceKey]; ok {
		return cb
	}

	settings := gobreaker.Settings{
		Name:    serviceKey,
		Timeout: m.opts.CooldownPeriod,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= m.opts.FailureThreshold
		},
	}
	cb := gobreaker.NewCircuitBreaker(settings)
	m.breakers[serviceKey] = cb
	return cb
}

// Execute runs fn through serviceKey's circuit breaker. When the breaker is
// open it returns a *coreerrors.CircuitOpenError without calling fn.
func (m *CircuitBreakerManager) Execute(ctx context.Context, serviceKey string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	cb := m.breakerFor(serviceKey)

	result, err := cb.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, &coreerrors.CircuitOpenError{ServiceKey: serviceKey, OpenedAt: time.Now()}
	}
	return result, err
}

// State reports the current state of serviceKey's breaker ("closed" if no
// breaker has been created for it yet).
func (m *CircuitBreakerManager) State(serviceKey string) string {
	m.mu.Lock()
	cb, ok := m.breakers[serviceKey]
	m.mu.Unlock()
	if !ok {
		return "closed"
	}
	switch cb.State() {
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}
