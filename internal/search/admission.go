package search

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ragmesh/querycore/internal/observability"
	"github.com/ragmesh/querycore/internal/resilience"
)

type inFlightEntry struct {
	ctx             *Context
	cancel          context.CancelFunc
	releaseBulkhead func()
}

// admissionTable tracks in-flight queries, enforcing the processor's
// concurrency ceiling through a resilience.Bulkhead: admit delegates the
// capacity check to Bulkhead.TryAcquire, so an over-capacity query is
// rejected outright instead of queueing for a slot.
type admissionTable struct {
	mu       sync.Mutex
	bulkhead *resilience.Bulkhead
	inFlight map[uuid.UUID]*inFlightEntry
}

func newAdmissionTable(max int, logger observability.Logger, metrics observability.MetricsClient) *admissionTable {
	return &admissionTable{
		bulkhead: resilience.NewBulkhead("search.admission", resilience.BulkheadConfig{MaxConcurrentCalls: max}, logger, metrics),
		inFlight: make(map[uuid.UUID]*inFlightEntry),
	}
}

// admit inserts queryID if the bulkhead has room, returning false if it is
// saturated.
func (a *admissionTable) admit(queryID uuid.UUID, cancel context.CancelFunc) (*Context, bool) {
	release, ok := a.bulkhead.TryAcquire()
	if !ok {
		return nil, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	ctx := &Context{QueryID: queryID, StartTime: time.Now()}
	a.inFlight[queryID] = &inFlightEntry{ctx: ctx, cancel: cancel, releaseBulkhead: release}
	return ctx, true
}

func (a *admissionTable) release(queryID uuid.UUID) {
	a.mu.Lock()
	entry, ok := a.inFlight[queryID]
	if ok {
		delete(a.inFlight, queryID)
	}
	a.mu.Unlock()

	if ok {
		entry.releaseBulkhead()
	}
}

func (a *admissionTable) snapshot(queryID uuid.UUID) (Context, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	entry, ok := a.inFlight[queryID]
	if !ok {
		return Context{}, false
	}
	return *entry.ctx, true
}

// cancel removes queryID's context, invokes its cancel func, and frees its
// bulkhead slot, returning false if it was not in-flight.
func (a *admissionTable) cancel(queryID uuid.UUID) bool {
	a.mu.Lock()
	entry, ok := a.inFlight[queryID]
	if ok {
		delete(a.inFlight, queryID)
	}
	a.mu.Unlock()

	if !ok {
		return false
	}
	entry.cancel()
	entry.releaseBulkhead()
	return true
}

func (a *admissionTable) size() int {
	return int(a.bulkhead.ActiveCount())
}
