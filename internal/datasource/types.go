// Package datasource is the inventory of connected content sources the
// search orchestrator fans out across, with CRUD, validation, and
// health-state tracking.
package datasource

import (
	"time"

	"github.com/google/uuid"
)

// Status is a source's lifecycle state. Transitions: new->active on
// successful validation, active->syncing during sync, syncing->active on
// sync success, any->error on validation failure.
type Status string

const (
	StatusNew     Status = "new"
	StatusActive  Status = "active"
	StatusSyncing Status = "syncing"
	StatusError   Status = "error"
)

// Transition returns the status that follows event, plus whether s->event
// is one of this lifecycle's four named transitions (new->active on
// "validated", active->syncing on "sync_start", syncing->active on
// "sync_success", any status->error on "failed"). The returned status is
// always the event's target state regardless of ok, so a caller driving an
// admin action (re-validating an already-active source, say) can apply
// next unconditionally while still being able to tell a well-formed
// transition from an unusual one.
func (s Status) Transition(event string) (next Status, ok bool) {
	switch event {
	case "validated":
		return StatusActive, s == StatusNew
	case "sync_start":
		return StatusSyncing, s == StatusActive
	case "sync_success":
		return StatusActive, s == StatusSyncing
	case "failed":
		return StatusError, true
	default:
		return s, false
	}
}

// Kind names the connection shape a source's Config must satisfy.
type Kind string

const (
	KindFile     Kind = "file"
	KindDatabase Kind = "database"
	KindURL      Kind = "url"
)

// Source is one registered content source.
type Source struct {
	ID           uuid.UUID
	Name         string
	Kind         Kind
	Status       Status
	Config       map[string]interface{}
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive reports whether this source should participate in search fan-out.
func (s Source) IsActive() bool { return s.Status == StatusActive }

// Page is one page of a paginated source listing.
type Page struct {
	Sources    []Source
	TotalCount int
	Offset     int
	Limit      int
}
