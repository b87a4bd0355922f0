package kafka

import (
	"errors"
	"sync"
	"time"

	"github.com/tair/central-kitchen/pkg/logger"
)

// ErrCircuitOpen is returned while the breaker rejects calls
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitState represents the state of a circuit breaker
type CircuitState string

const (
	StateClosed   CircuitState = "closed"
	StateOpen     CircuitState = "open"
	StateHalfOpen CircuitState = "half-open"
)

// CircuitBreaker stops calling a failing broker until timeout has passed
type CircuitBreaker struct {
	name         string
	maxFailures  int
	timeout      time.Duration
	halfOpenOK   int
	now          func() time.Time
	state        CircuitState
	failures     int
	successCount int
	changedAt    time.Time
	mu           sync.Mutex
}

// NewCircuitBreaker opens after maxFailures consecutive failures and probes
// again once timeout has elapsed
func NewCircuitBreaker(name string, maxFailures int, timeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:        name,
		maxFailures: maxFailures,
		timeout:     timeout,
		halfOpenOK:  3,
		now:         time.Now,
		state:       StateClosed,
		changedAt:   time.Now(),
	}
}

// Call executes fn with circuit breaker protection
func (cb *CircuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	if cb.state == StateOpen && cb.now().Sub(cb.changedAt) > cb.timeout {
		cb.setState(StateHalfOpen)
		cb.successCount = 0
	}
	open := cb.state == StateOpen
	cb.mu.Unlock()

	if open {
		return ErrCircuitOpen
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.onFailure()
	} else {
		cb.onSuccess()
	}
	return err
}

// State returns the current state
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) onFailure() {
	cb.failures++
	switch {
	case cb.state == StateHalfOpen:
		cb.setState(StateOpen)
	case cb.failures >= cb.maxFailures:
		cb.setState(StateOpen)
	}
}

func (cb *CircuitBreaker) onSuccess() {
	if cb.state == StateHalfOpen {
		cb.successCount++
		if cb.successCount >= cb.halfOpenOK {
			cb.failures = 0
			cb.setState(StateClosed)
		}
		return
	}
	cb.failures = 0
}

func (cb *CircuitBreaker) setState(state CircuitState) {
	if cb.state == state {
		return
	}
	cb.state = state
	cb.changedAt = cb.now()

	event := logger.Logger.Info()
	if state == StateOpen {
		event = logger.Logger.Warn().Int("failures", cb.failures)
	}
	event.Str("circuit", cb.name).Str("state", string(state)).Msg("Circuit breaker state changed")
}
