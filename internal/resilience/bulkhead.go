package resilience

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/ragmesh/querycore/internal/observability"
)

// ErrBulkheadFull is returned when Execute is called while the bulkhead is
// already at MaxConcurrentCalls: no queueing, an admitted call occupies a
// slot or is rejected outright.
var ErrBulkheadFull = errors.New("bulkhead is full")

// BulkheadConfig bounds concurrent calls through one bulkhead.
type BulkheadConfig struct {
	MaxConcurrentCalls int
}

// Bulkhead isolates a resource pool (e.g. concurrently in-flight queries) to
// a fixed capacity, rejecting immediately on overflow rather than queueing.
type Bulkhead struct {
	name      string
	semaphore chan struct{}
	active    atomic.Int64
	logger    observability.Logger
	metrics   observability.MetricsClient
}

// NewBulkhead builds a bulkhead with the given capacity.
func NewBulkhead(name string, cfg BulkheadConfig, logger observability.Logger, metrics observability.MetricsClient) *Bulkhead {
	if cfg.MaxConcurrentCalls <= 0 {
		cfg.MaxConcurrentCalls = 10
	}
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Bulkhead{
		name:      name,
		semaphore: make(chan struct{}, cfg.MaxConcurrentCalls),
		logger:    logger,
		metrics:   metrics,
	}
}

// TryAcquire attempts to reserve a slot without blocking. Callers must call
// the returned release function exactly once when done, unless ok is false.
func (b *Bulkhead) TryAcquire() (release func(), ok bool) {
	select {
	case b.semaphore <- struct{}{}:
		b.active.Add(1)
		if b.metrics != nil {
			b.metrics.RecordGauge("bulkhead_active", float64(b.active.Load()), map[string]string{"bulkhead": b.name})
		}
		return func() {
			<-b.semaphore
			b.active.Add(-1)
		}, true
	default:
		if b.metrics != nil {
			b.metrics.IncrementCounter("bulkhead_rejected_total", 1, map[string]string{"bulkhead": b.name})
		}
		return nil, false
	}
}

// Execute runs fn while holding a slot, returning ErrBulkheadFull immediately
// if the bulkhead is saturated.
func (b *Bulkhead) Execute(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	release, ok := b.TryAcquire()
	if !ok {
		return nil, ErrBulkheadFull
	}
	defer release()

	start := time.Now()
	v, err := fn(ctx)
	if b.metrics != nil {
		b.metrics.RecordDuration("bulkhead_execution_duration", time.Since(start), map[string]string{"bulkhead": b.name})
	}
	return v, err
}

// ActiveCount reports the number of slots currently in use.
func (b *Bulkhead) ActiveCount() int64 { return b.active.Load() }
