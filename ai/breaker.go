package ai

import (
	"errors"
	"sort"
	"sync"
	"time"

	"glowfit/logger"

	"go.uber.org/zap"
)

// State of a circuit breaker.
type State int

const (
	StateClosed   State = iota // calls pass through
	StateOpen                  // failing fast until the open timeout elapses
	StateHalfOpen              // one trial call decides whether to close again
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

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ErrCircuitOpen is returned by Allow while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerSettings tunes when a breaker opens and how long it stays open.
type BreakerSettings struct {
	FailureThreshold int           // consecutive failures before opening
	OpenTimeout      time.Duration // time spent open before a trial call
}

// DefaultBreakerSettings opens after three failures for one minute.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{FailureThreshold: 3, OpenTimeout: time.Minute}
}

// CircuitBreaker guards calls to one AI provider. It is in-memory only; a
// restart closes every breaker.
type CircuitBreaker struct {
	mu sync.Mutex

	name             string
	state            State
	failures         int
	lastFailure      time.Time
	lastStateChange  time.Time
	failureThreshold int
	openTimeout      time.Duration
	now              func() time.Time

	// set while the single half-open trial call is in flight
	trialInFlight bool
}

// NewCircuitBreaker fills zero settings from DefaultBreakerSettings.
func NewCircuitBreaker(name string, s BreakerSettings) *CircuitBreaker {
	if s.FailureThreshold <= 0 {
		s.FailureThreshold = DefaultBreakerSettings().FailureThreshold
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = DefaultBreakerSettings().OpenTimeout
	}
	return &CircuitBreaker{
		name:             name,
		state:            StateClosed,
		failureThreshold: s.FailureThreshold,
		openTimeout:      s.OpenTimeout,
		now:              time.Now,
		lastStateChange:  time.Now(),
	}
}

// Allow reports whether a call may proceed. An open breaker whose timeout has
// elapsed moves to half-open and admits exactly one trial call; everyone else
// gets ErrCircuitOpen until that call is recorded.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastFailure) < cb.openTimeout {
			return ErrCircuitOpen
		}
		cb.transition(StateHalfOpen)
		cb.trialInFlight = true
		return nil
	case StateHalfOpen:
		if cb.trialInFlight {
			return ErrCircuitOpen
		}
		cb.trialInFlight = true
		return nil
	default:
		return nil
	}
}

// Release gives back an admitted half-open trial that never reached the
// provider, so the next caller may try instead.
func (cb *CircuitBreaker) Release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateHalfOpen {
		cb.trialInFlight = false
	}
}

// RecordSuccess closes a half-open breaker and clears the failure streak.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateHalfOpen:
		cb.transition(StateClosed)
	case StateClosed:
		cb.failures = 0
	}
}

// RecordFailure counts a failure, opening the breaker at the threshold or
// immediately when half-open.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailure = cb.now()
	cb.failures++

	switch cb.state {
	case StateClosed:
		if cb.failures >= cb.failureThreshold {
			cb.transition(StateOpen)
		}
	case StateHalfOpen:
		cb.transition(StateOpen)
	}
}

// Reset force-closes the breaker (admin console).
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transition(StateClosed)
}

// State returns the current state without advancing an expired open timeout.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// BreakerSnapshot is the admin view of one breaker.
type BreakerSnapshot struct {
	Name            string    `json:"name"`
	State           State     `json:"state"`
	Failures        int       `json:"failures"`
	LastFailure     time.Time `json:"last_failure,omitempty"`
	LastStateChange time.Time `json:"last_state_change"`
}

// Snapshot copies the breaker state under the lock.
func (cb *CircuitBreaker) Snapshot() BreakerSnapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return BreakerSnapshot{
		Name:            cb.name,
		State:           cb.state,
		Failures:        cb.failures,
		LastFailure:     cb.lastFailure,
		LastStateChange: cb.lastStateChange,
	}
}

// must be called with cb.mu held
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	cb.state = to
	cb.lastStateChange = cb.now()
	cb.trialInFlight = false
	if to == StateClosed {
		cb.failures = 0
	}
	if from != to {
		logger.Info("circuit breaker transition",
			zap.String("provider", cb.name),
			zap.Stringer("from", from),
			zap.Stringer("to", to),
			zap.Int("failures", cb.failures))
	}
}

// Registry hands out one breaker per provider name.
type Registry struct {
	mu       sync.Mutex
	settings BreakerSettings
	breakers map[string]*CircuitBreaker
	now      func() time.Time
}

// NewRegistry creates breakers lazily with the given settings.
func NewRegistry(s BreakerSettings) *Registry {
	return &Registry{settings: s, breakers: make(map[string]*CircuitBreaker), now: time.Now}
}

// Get returns the breaker for name, creating it on first use.
func (r *Registry) Get(name string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	cb, ok := r.breakers[name]
	if !ok {
		cb = NewCircuitBreaker(name, r.settings)
		cb.now = r.now
		r.breakers[name] = cb
	}
	return cb
}

// Reset closes the named breaker. It reports false for unknown names.
func (r *Registry) Reset(name string) bool {
	r.mu.Lock()
	cb, ok := r.breakers[name]
	r.mu.Unlock()
	if ok {
		cb.Reset()
	}
	return ok
}

// All snapshots every breaker, sorted by name.
func (r *Registry) All() []BreakerSnapshot {
	r.mu.Lock()
	list := make([]*CircuitBreaker, 0, len(r.breakers))
	for _, cb := range r.breakers {
		list = append(list, cb)
	}
	r.mu.Unlock()

	out := make([]BreakerSnapshot, 0, len(list))
	for _, cb := range list {
		out = append(out, cb.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
