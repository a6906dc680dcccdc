package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned while the breaker refuses calls.
var ErrOpen = errors.New("circuit breaker is open")

type state int

const (
	stateClosed state = iota
	stateOpen
	stateHalfOpen
)

// Settings configures a CircuitBreaker.
type Settings struct {
	Name        string
	MaxFailures int
	Interval    time.Duration
	Timeout     time.Duration
}

// CircuitBreaker trips after MaxFailures consecutive failures within
// Interval and rejects calls for Timeout before probing again.
type CircuitBreaker struct {
	settings Settings

	mu          sync.Mutex
	state       state
	failures    int
	windowStart time.Time
	openedAt    time.Time
}

func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	if settings.MaxFailures <= 0 {
		settings.MaxFailures = 5
	}
	if settings.Interval <= 0 {
		settings.Interval = 10 * time.Second
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 30 * time.Second
	}
	return &CircuitBreaker{settings: settings, windowStart: time.Now()}
}

// Execute runs fn if the breaker allows it and records the result.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allow() {
		return ErrOpen
	}

	err := fn()
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case stateOpen:
		if time.Since(cb.openedAt) >= cb.settings.Timeout {
			cb.state = stateHalfOpen
			return true
		}
		return false
	default:
		return true
	}
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	if now.Sub(cb.windowStart) > cb.settings.Interval {
		cb.windowStart = now
		cb.failures = 0
	}

	if err == nil {
		cb.state = stateClosed
		cb.failures = 0
		return
	}

	cb.failures++
	if cb.state == stateHalfOpen || cb.failures >= cb.settings.MaxFailures {
		cb.state = stateOpen
		cb.openedAt = now
	}
}
