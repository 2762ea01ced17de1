// Package resilience implements the circuit breaker and admission bulkhead
// that guard the core's out-of-process calls (vector store, embedding
// provider) and the orchestrator's admission gate.
package resilience

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/ragmesh/querycore/internal/observability"
)

// State is the circuit breaker's current mode.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Sentinel errors surfaced by Execute.
var (
	ErrOpen             = errors.New("circuit breaker is open")
	ErrTimeout          = errors.New("circuit breaker timeout")
	ErrHalfOpenExceeded = errors.New("max requests exceeded in half-open state")
)

// CircuitBreakerConfig holds the breaker's tunables.
type CircuitBreakerConfig struct {
	FailureThreshold    int
	FailureRatio        float64
	ResetTimeout        time.Duration
	SuccessThreshold    int
	TimeoutThreshold    time.Duration
	MaxRequestsHalfOpen int
	MinimumRequestCount int
}

func (c *CircuitBreakerConfig) applyDefaults() {
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.FailureRatio == 0 {
		c.FailureRatio = 0.6
	}
	if c.ResetTimeout == 0 {
		c.ResetTimeout = 30 * time.Second
	}
	if c.SuccessThreshold == 0 {
		c.SuccessThreshold = 2
	}
	if c.TimeoutThreshold == 0 {
		c.TimeoutThreshold = 5 * time.Second
	}
	if c.MaxRequestsHalfOpen == 0 {
		c.MaxRequestsHalfOpen = 5
	}
	if c.MinimumRequestCount == 0 {
		c.MinimumRequestCount = 10
	}
}

type counts struct {
	requests, failures, successes         int64
	consecutiveFailures, consecutiveWins  int64
}

// CircuitBreaker protects a single downstream dependency.
type CircuitBreaker struct {
	name   string
	config CircuitBreakerConfig
	logger observability.Logger
	metrics observability.MetricsClient

	mu              sync.Mutex
	state           State
	c               counts
	lastFailure     time.Time
	halfOpenInFlight int32
}

// NewCircuitBreaker builds a breaker around the named dependency.
func NewCircuitBreaker(name string, cfg CircuitBreakerConfig, logger observability.Logger, metrics observability.MetricsClient) *CircuitBreaker {
	cfg.applyDefaults()
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &CircuitBreaker{name: name, config: cfg, logger: logger, metrics: metrics, state: Closed}
}

// Execute runs fn under breaker protection, respecting ctx's deadline as an
// additional timeout on top of the breaker's own TimeoutThreshold.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	if err := cb.canExecute(); err != nil {
		cb.recordFailure()
		return nil, err
	}

	if cb.currentState() == HalfOpen {
		atomic.AddInt32(&cb.halfOpenInFlight, 1)
		defer atomic.AddInt32(&cb.halfOpenInFlight, -1)
	}

	callCtx, cancel := context.WithTimeout(ctx, cb.config.TimeoutThreshold)
	defer cancel()

	type result struct {
		value interface{}
		err   error
	}
	resultCh := make(chan result, 1)
	go func() {
		v, err := fn(callCtx)
		resultCh <- result{v, err}
	}()

	select {
	case <-callCtx.Done():
		cb.recordFailure()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrTimeout
	case res := <-resultCh:
		if res.err != nil {
			cb.recordFailure()
			return nil, res.err
		}
		cb.recordSuccess()
		return res.value, nil
	}
}

func (cb *CircuitBreaker) currentState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) canExecute() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case Closed:
		return nil
	case Open:
		if time.Since(cb.lastFailure) > cb.config.ResetTimeout {
			cb.transitionTo(HalfOpen)
			return nil
		}
		return ErrOpen
	case HalfOpen:
		if int(atomic.LoadInt32(&cb.halfOpenInFlight)) >= cb.config.MaxRequestsHalfOpen {
			return ErrHalfOpenExceeded
		}
		return nil
	default:
		return ErrOpen
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.c.requests++
	cb.c.successes++
	cb.c.consecutiveWins++
	cb.c.consecutiveFailures = 0

	if cb.state == HalfOpen && cb.c.consecutiveWins >= int64(cb.config.SuccessThreshold) {
		cb.transitionTo(Closed)
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.c.requests++
	cb.c.failures++
	cb.c.consecutiveFailures++
	cb.c.consecutiveWins = 0
	cb.lastFailure = time.Now()

	switch cb.state {
	case Closed:
		if cb.c.consecutiveFailures >= int64(cb.config.FailureThreshold) {
			cb.transitionTo(Open)
		} else if cb.c.requests >= int64(cb.config.MinimumRequestCount) {
			if float64(cb.c.failures)/float64(cb.c.requests) >= cb.config.FailureRatio {
				cb.transitionTo(Open)
			}
		}
	case HalfOpen:
		cb.transitionTo(Open)
	}
}

// transitionTo must be called with cb.mu held.
func (cb *CircuitBreaker) transitionTo(next State) {
	prev := cb.state
	cb.state = next
	if next == Closed {
		cb.c = counts{}
	}
	cb.logger.Info("circuit breaker state change", observability.Fields{
		"name": cb.name, "from": prev.String(), "to": next.String(),
	})
	if cb.metrics != nil {
		cb.metrics.RecordGauge("circuit_breaker_state", float64(next), map[string]string{"name": cb.name})
	}
}

// State returns the breaker's current state, for health rollups.
func (cb *CircuitBreaker) State() State { return cb.currentState() }
