package resilience

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// State is the current state of a circuit breaker
type State int

const (
	// StateClosed - calls flow normally
	StateClosed State = iota
	// StateOpen - calls fail immediately
	StateOpen
	// StateHalfOpen - a limited number of probe calls test whether the gateway recovered
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var (
	// ErrCircuitOpen is returned when the breaker rejects a call
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests is returned when the half-open probe budget is used up. It matches ErrCircuitOpen.
	ErrTooManyRequests = fmt.Errorf("%w: too many requests in half-open state", ErrCircuitOpen)
)

// CircuitBreakerConfig configures circuit breaker behavior
type CircuitBreakerConfig struct {
	// Name identifies the breaker in state change notifications, usually the client type
	Name string
	// MaxFailures is the number of consecutive failures before opening the circuit
	MaxFailures uint32
	// OpenTimeout is how long to wait before moving from open to half-open
	OpenTimeout time.Duration
	// MaxRequestsHalfOpen is the number of probe calls allowed while half-open
	MaxRequestsHalfOpen uint32
	// OnStateChange is called with the breaker lock released
	OnStateChange func(name string, from, to State)
}

// DefaultCircuitBreakerConfig returns the defaults used for gateway clients
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:                name,
		MaxFailures:         5,
		OpenTimeout:         30 * time.Second,
		MaxRequestsHalfOpen: 1,
	}
}

// CircuitBreaker stops calling a failing gateway until it has had time to recover.
type CircuitBreaker struct {
	mu               sync.RWMutex
	state            State
	failures         uint32
	successes        uint32
	requestsHalfOpen uint32
	lastStateChange  time.Time
	config           CircuitBreakerConfig
	now              func() time.Time
}

// NewCircuitBreaker creates a closed circuit breaker
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures == 0 {
		config.MaxFailures = 1
	}
	if config.MaxRequestsHalfOpen == 0 {
		config.MaxRequestsHalfOpen = 1
	}
	return &CircuitBreaker{
		state:           StateClosed,
		lastStateChange: time.Now(),
		config:          config,
		now:             time.Now,
	}
}

// Call runs fn unless the circuit rejects it. fn is never invoked on rejection.
// Any non-nil error from fn counts as a failure.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if err := cb.beforeCall(); err != nil {
		return err
	}

	err := fn()
	cb.afterCall(err)
	return err
}

func (cb *CircuitBreaker) beforeCall() error {
	cb.mu.Lock()
	var transition func()
	defer func() {
		cb.mu.Unlock()
		if transition != nil {
			transition()
		}
	}()

	switch cb.state {
	case StateClosed:
		return nil

	case StateOpen:
		if cb.now().Sub(cb.lastStateChange) < cb.config.OpenTimeout {
			return ErrCircuitOpen
		}
		transition = cb.setState(StateHalfOpen)
		cb.requestsHalfOpen++
		return nil

	case StateHalfOpen:
		if cb.requestsHalfOpen >= cb.config.MaxRequestsHalfOpen {
			return ErrTooManyRequests
		}
		cb.requestsHalfOpen++
		return nil

	default:
		return ErrCircuitOpen
	}
}

func (cb *CircuitBreaker) afterCall(err error) {
	cb.mu.Lock()
	var transition func()
	if err != nil {
		transition = cb.onFailure()
	} else {
		transition = cb.onSuccess()
	}
	cb.mu.Unlock()

	if transition != nil {
		transition()
	}
}

func (cb *CircuitBreaker) onFailure() func() {
	cb.failures++

	switch cb.state {
	case StateClosed:
		if cb.failures >= cb.config.MaxFailures {
			return cb.setState(StateOpen)
		}
	case StateHalfOpen:
		// A failed probe reopens the circuit
		return cb.setState(StateOpen)
	}
	return nil
}

func (cb *CircuitBreaker) onSuccess() func() {
	cb.successes++

	switch cb.state {
	case StateHalfOpen:
		return cb.setState(StateClosed)
	case StateClosed:
		cb.failures = 0
	}
	return nil
}

// setState must be called with mu held. It returns the notification to run after unlocking.
func (cb *CircuitBreaker) setState(newState State) func() {
	if cb.state == newState {
		return nil
	}

	from := cb.state
	cb.state = newState
	cb.lastStateChange = cb.now()

	switch newState {
	case StateClosed:
		cb.failures = 0
		cb.successes = 0
		cb.requestsHalfOpen = 0
	case StateOpen:
		cb.requestsHalfOpen = 0
	case StateHalfOpen:
		cb.failures = 0
		cb.successes = 0
		cb.requestsHalfOpen = 0
	}

	if cb.config.OnStateChange == nil {
		return nil
	}
	notify, name := cb.config.OnStateChange, cb.config.Name
	return func() { notify(name, from, newState) }
}

// State returns the current circuit state
func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Failures returns the consecutive failure count
func (cb *CircuitBreaker) Failures() uint32 {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.failures
}

// Successes returns the success count since the last state change
func (cb *CircuitBreaker) Successes() uint32 {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.successes
}

// Reset closes the circuit and clears all counters
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failures = 0
	cb.successes = 0
	cb.requestsHalfOpen = 0
	cb.lastStateChange = cb.now()
}
