package ai

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(threshold int, timeout time.Duration) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker("gemini", BreakerSettings{FailureThreshold: threshold, OpenTimeout: timeout})
	cb.now = clock.Now
	return cb, clock
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)

	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, StateClosed, cb.State())
	require.NoError(t, cb.Allow())

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 2, cb.Snapshot().Failures)
}

func TestBreakerHalfOpenAfterTimeout(t *testing.T) {
	cb, clock := newTestBreaker(1, 30*time.Second)

	cb.RecordFailure()
	require.Equal(t, StateOpen, cb.State())

	clock.Advance(29 * time.Second)
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)

	clock.Advance(time.Second)
	require.NoError(t, cb.Allow())
	assert.Equal(t, StateHalfOpen, cb.State())

	cb.RecordSuccess()
	assert.Equal(t, StateClosed, cb.State())
	assert.Zero(t, cb.Snapshot().Failures)
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(2, 10*time.Second)

	cb.RecordFailure()
	cb.RecordFailure()
	clock.Advance(11 * time.Second)
	require.NoError(t, cb.Allow())

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)
}

func TestBreakerHalfOpenAdmitsSingleTrial(t *testing.T) {
	cb, clock := newTestBreaker(3, time.Minute)
	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	clock.Advance(2 * time.Minute)

	admitted := 0
	for i := 0; i < 5; i++ {
		if cb.Allow() == nil {
			admitted++
		}
	}
	assert.Equal(t, 1, admitted)
	assert.Equal(t, StateHalfOpen, cb.State())

	cb.RecordSuccess()
	assert.Equal(t, StateClosed, cb.State())
	assert.NoError(t, cb.Allow())
	assert.NoError(t, cb.Allow())
}

func TestBreakerHalfOpenConcurrentAllow(t *testing.T) {
	cb, clock := newTestBreaker(1, time.Second)
	cb.RecordFailure()
	clock.Advance(time.Second)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cb.Allow() == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, admitted)
}

func TestBreakerReleaseLetsNextCallerTry(t *testing.T) {
	cb, clock := newTestBreaker(1, time.Second)
	cb.RecordFailure()
	clock.Advance(time.Second)

	require.NoError(t, cb.Allow())
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)

	cb.Release()
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Allow())
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
}

func TestBreakerReset(t *testing.T) {
	cb, _ := newTestBreaker(1, time.Hour)
	cb.RecordFailure()
	require.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.NoError(t, cb.Allow())
}

func TestBreakerDefaultsForZeroSettings(t *testing.T) {
	cb := NewCircuitBreaker("claude", BreakerSettings{})
	for i := 0; i < DefaultBreakerSettings().FailureThreshold-1; i++ {
		cb.RecordFailure()
	}
	assert.Equal(t, StateClosed, cb.State())
	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
}

func TestBreakerConcurrentUse(t *testing.T) {
	cb, _ := newTestBreaker(1000, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = cb.Allow()
			if i%2 == 0 {
				cb.RecordFailure()
			} else {
				cb.Snapshot()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 25, cb.Snapshot().Failures)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(BreakerSettings{FailureThreshold: 1, OpenTimeout: time.Minute})

	g := reg.Get("gemini")
	assert.Same(t, g, reg.Get("gemini"))
	reg.Get("claude")

	g.RecordFailure()
	snaps := reg.All()
	require.Len(t, snaps, 2)
	assert.Equal(t, "claude", snaps[0].Name)
	assert.Equal(t, StateOpen, snaps[1].State)

	assert.True(t, reg.Reset("gemini"))
	assert.Equal(t, StateClosed, g.State())
	assert.False(t, reg.Reset("openai"))
}

func TestStateText(t *testing.T) {
	b, err := StateHalfOpen.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "half-open", string(b))
	assert.Equal(t, "unknown", State(9).String())
}
