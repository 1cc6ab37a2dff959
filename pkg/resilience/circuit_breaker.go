package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitOpenError reports circuit-open status for an endpoint with a
// concrete retry delay.
type CircuitOpenError struct {
	Endpoint   string
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	retryAfter := e.RetryAfter
	if retryAfter < 0 {
		retryAfter = 0
	}
	if e.Endpoint == "" {
		return fmt.Sprintf("%v: retry in %s", ErrCircuitOpen, retryAfter)
	}
	return fmt.Sprintf("%v for %s: retry in %s", ErrCircuitOpen, e.Endpoint, retryAfter)
}

func (e *CircuitOpenError) Is(target error) bool {
	return target == ErrCircuitOpen
}

type CircuitBreakerState string

const (
	CircuitClosed   CircuitBreakerState = "closed"
	CircuitOpen     CircuitBreakerState = "open"
	CircuitHalfOpen CircuitBreakerState = "half_open"
)

type CircuitBreakerConfig struct {
	FailureThreshold int
	OpenTimeout      time.Duration
}

// EndpointBreakers keeps one circuit per remote endpoint so a member that
// keeps failing its routing-information fetch is not hammered on every
// discovery tick. Half-open admits a single probe.
type EndpointBreakers struct {
	mu  sync.Mutex
	cfg CircuitBreakerConfig
	now func() time.Time

	circuits map[string]*circuit
}

type circuit struct {
	state     CircuitBreakerState
	failures  int
	openUntil time.Time
	probing   bool
}

func NewEndpointBreakers(cfg CircuitBreakerConfig) *EndpointBreakers {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 10 * time.Second
	}
	return &EndpointBreakers{
		cfg:      cfg,
		now:      time.Now,
		circuits: make(map[string]*circuit),
	}
}

// State returns the current state of the endpoint's circuit.
func (b *EndpointBreakers) State(endpoint string) CircuitBreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.circuits[endpoint]
	if !ok {
		return CircuitClosed
	}
	b.refreshLocked(c)
	return c.state
}

// Execute runs fn unless the endpoint's circuit is open.
func (b *EndpointBreakers) Execute(ctx context.Context, endpoint string, fn func(context.Context) error) error {
	if err := b.acquire(endpoint); err != nil {
		return err
	}

	err := fn(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.circuits[endpoint]
	if !ok {
		// Forgotten or reset by a concurrent success while fn ran.
		c = &circuit{state: CircuitClosed}
		b.circuits[endpoint] = c
	}
	c.probing = false

	switch {
	case errors.Is(err, context.Canceled):
		// Do not penalize caller-driven cancellation.
	case err != nil:
		c.failures++
		if c.state == CircuitHalfOpen || c.failures >= b.cfg.FailureThreshold {
			c.state = CircuitOpen
			c.openUntil = b.now().Add(b.cfg.OpenTimeout)
			c.failures = 0
		}
	default:
		delete(b.circuits, endpoint)
	}
	return err
}

// Forget drops the circuit of an endpoint, e.g. when its member leaves.
func (b *EndpointBreakers) Forget(endpoint string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.circuits, endpoint)
}

func (b *EndpointBreakers) acquire(endpoint string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.circuits[endpoint]
	if !ok {
		c = &circuit{state: CircuitClosed}
		b.circuits[endpoint] = c
	}
	b.refreshLocked(c)

	switch c.state {
	case CircuitOpen:
		return b.openErrLocked(endpoint, c)
	case CircuitHalfOpen:
		if c.probing {
			return b.openErrLocked(endpoint, c)
		}
		c.probing = true
	}
	return nil
}

func (b *EndpointBreakers) refreshLocked(c *circuit) {
	if c.state == CircuitOpen && !b.now().Before(c.openUntil) {
		c.state = CircuitHalfOpen
		c.probing = false
	}
}

func (b *EndpointBreakers) openErrLocked(endpoint string, c *circuit) error {
	remaining := c.openUntil.Sub(b.now())
	if remaining < 0 {
		remaining = 0
	}
	return &CircuitOpenError{Endpoint: endpoint, RetryAfter: remaining}
}
