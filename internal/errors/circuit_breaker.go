package errors

import (
	"errors"
	"sync"
	"time"
)

// State is the position of a CircuitBreaker.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

var (
	// ErrCircuitOpen is returned without calling the guarded function while the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyProbes is returned while the half-open probes are in flight.
	ErrTooManyProbes = errors.New("circuit breaker probe limit reached")
)

// BreakerSettings tunes a CircuitBreaker.
type BreakerSettings struct {
	Name string
	// MinRequests calls must be observed before the failure ratio is judged.
	MinRequests  int
	FailureRatio float64
	// OpenTimeout is how long the breaker rejects calls before probing.
	OpenTimeout time.Duration
	// Probes successful half-open calls close the breaker again.
	Probes        int
	OnStateChange func(name string, from, to State)
}

// DefaultBreakerSettings trips after half of at least five calls fail.
var DefaultBreakerSettings = BreakerSettings{
	MinRequests:  5,
	FailureRatio: 0.5,
	OpenTimeout:  30 * time.Second,
	Probes:       2,
}

type counts struct {
	calls     int
	failures  int
	successes int
}

// CircuitBreaker stops calling a failing dependency until a cool-down passes.
type CircuitBreaker struct {
	settings BreakerSettings
	now      func() time.Time

	mu       sync.Mutex
	state    State
	counts   counts
	openedAt time.Time
}

// NewCircuitBreaker fills zero settings from DefaultBreakerSettings.
func NewCircuitBreaker(settings BreakerSettings) *CircuitBreaker {
	if settings.MinRequests <= 0 {
		settings.MinRequests = DefaultBreakerSettings.MinRequests
	}
	if settings.FailureRatio <= 0 {
		settings.FailureRatio = DefaultBreakerSettings.FailureRatio
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = DefaultBreakerSettings.OpenTimeout
	}
	if settings.Probes <= 0 {
		settings.Probes = DefaultBreakerSettings.Probes
	}

	return &CircuitBreaker{settings: settings, now: time.Now}
}

// Call runs fn unless the breaker rejects it, and feeds the outcome back.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if fn == nil {
		return nil
	}
	if err := cb.admit(); err != nil {
		return err
	}

	err := fn()
	cb.record(err == nil)
	return err
}

// State reports the current state, moving an expired open breaker to half-open.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.expireLocked()
	return cb.state
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.expireLocked()
	switch cb.state {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if cb.counts.calls >= cb.settings.Probes {
			return ErrTooManyProbes
		}
	}
	cb.counts.calls++
	return nil
}

func (cb *CircuitBreaker) record(ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !ok {
		cb.counts.failures++
		if cb.state == StateHalfOpen || cb.tripLocked() {
			cb.setStateLocked(StateOpen)
		}
		return
	}

	cb.counts.successes++
	if cb.state == StateHalfOpen && cb.counts.successes >= cb.settings.Probes {
		cb.setStateLocked(StateClosed)
	}
}

func (cb *CircuitBreaker) tripLocked() bool {
	c := cb.counts
	if c.calls < cb.settings.MinRequests {
		return false
	}
	return float64(c.failures)/float64(c.calls) >= cb.settings.FailureRatio
}

func (cb *CircuitBreaker) expireLocked() {
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.settings.OpenTimeout {
		cb.setStateLocked(StateHalfOpen)
	}
}

func (cb *CircuitBreaker) setStateLocked(next State) {
	prev := cb.state
	cb.state = next
	cb.counts = counts{}
	if next == StateOpen {
		cb.openedAt = cb.now()
	}
	if prev != next && cb.settings.OnStateChange != nil {
		cb.settings.OnStateChange(cb.settings.Name, prev, next)
	}
}
