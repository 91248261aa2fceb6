package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// CircuitBreakerConfig is loaded per downstream from <PREFIX>_CIRCUIT_* env vars.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	if c.FailureThreshold < 1 {
		c.FailureThreshold = 5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 15 * time.Second
	}
	if c.HalfOpenMaxReq < 1 {
		c.HalfOpenMaxReq = 2
	}
	return c
}

// StateListener observes transitions; it runs with the breaker locked and
// must not call back into it.
type StateListener func(name string, from, to CircuitState)

// CircuitBreaker trips after FailureThreshold consecutive failures, rejects
// for OpenTimeout, then admits up to HalfOpenMaxReq probes. Each state change
// starts a new generation so results from an older generation are ignored.
// A nil *CircuitBreaker admits everything.
type CircuitBreaker struct {
	name string
	cfg  CircuitBreakerConfig

	mu         sync.Mutex
	state      CircuitState
	generation uint64
	failures   int
	probes     int
	successes  int
	expiry     time.Time
	listener   StateListener
	now        func() time.Time
}

// NewCircuitBreaker returns nil when cfg is disabled.
func NewCircuitBreaker(name string, cfg CircuitBreakerConfig) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	return &CircuitBreaker{
		name:  name,
		cfg:   cfg.withDefaults(),
		state: CircuitStateClosed,
		now:   time.Now,
	}
}

func (b *CircuitBreaker) OnStateChange(fn StateListener) *CircuitBreaker {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	b.listener = fn
	b.mu.Unlock()
	return b
}

// Allow reserves a slot. The caller must report the outcome through done.
func (b *CircuitBreaker) Allow() (done func(success bool), err error) {
	if b == nil {
		return func(bool) {}, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.refresh()
	switch b.state {
	case CircuitStateOpen:
		return nil, ErrCircuitOpen
	case CircuitStateHalfOpen:
		if b.probes >= b.cfg.HalfOpenMaxReq {
			return nil, ErrCircuitOpen
		}
		b.probes++
	}

	gen := b.generation
	var once sync.Once
	return func(success bool) {
		once.Do(func() { b.record(gen, success) })
	}, nil
}

// Execute runs fn when admitted; any non-nil error counts as a failure.
func (b *CircuitBreaker) Execute(fn func() error) error {
	done, err := b.Allow()
	if err != nil {
		return err
	}
	err = fn()
	done(err == nil)
	return err
}

func (b *CircuitBreaker) State() CircuitState {
	if b == nil {
		return CircuitStateClosed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh()
	return b.state
}

func (b *CircuitBreaker) record(gen uint64, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refresh()
	if gen != b.generation {
		return
	}

	switch b.state {
	case CircuitStateClosed:
		if success {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.transition(CircuitStateOpen)
		}
	case CircuitStateHalfOpen:
		if !success {
			b.transition(CircuitStateOpen)
			return
		}
		b.successes++
		if b.successes >= b.cfg.HalfOpenMaxReq {
			b.transition(CircuitStateClosed)
		}
	}
}

// refresh moves an expired open breaker to half-open. Caller holds mu.
func (b *CircuitBreaker) refresh() {
	if b.state == CircuitStateOpen && !b.now().Before(b.expiry) {
		b.transition(CircuitStateHalfOpen)
	}
}

func (b *CircuitBreaker) transition(to CircuitState) {
	from := b.state
	b.state = to
	b.generation++
	b.failures, b.probes, b.successes = 0, 0, 0
	b.expiry = time.Time{}
	if to == CircuitStateOpen {
		b.expiry = b.now().Add(b.cfg.OpenTimeout)
	}
	if b.listener != nil && from != to {
		b.listener(b.name, from, to)
	}
}
