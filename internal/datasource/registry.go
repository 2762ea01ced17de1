package datasource

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	coreerrors "github.com/ragmesh/querycore/internal/errors"
	"github.com/ragmesh/querycore/internal/observability"
)

// HealthChecker probes a single source's reachability.
type HealthChecker interface {
	Check(ctx context.Context, source Source) error
}

// Registry is the capability the search orchestrator depends on in its hot
// path (GetActive/GetByID/CheckHealth), plus the CRUD surface for
// administration.
type Registry struct {
	mu      sync.RWMutex
	sources map[uuid.UUID]*Source
	checker HealthChecker
	logger  observability.Logger
}

// NewRegistry constructs an empty registry.
func NewRegistry(checker HealthChecker, logger observability.Logger) *Registry {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Registry{sources: make(map[uuid.UUID]*Source), checker: checker, logger: logger}
}

// Create validates config then registers a new source in StatusNew,
// immediately promoting it to StatusActive on success or StatusError on
// validation failure.
func (r *Registry) Create(ctx context.Context, name string, kind Kind, config map[string]interface{}) (Source, error) {
	now := time.Now()
	src := Source{
		ID:        uuid.New(),
		Name:      name,
		Kind:      kind,
		Status:    StatusNew,
		Config:    config,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := ValidateConfig(kind, config); err != nil {
		src.Status, _ = src.Status.Transition("failed")
		if ce, ok := coreerrors.As(err); ok {
			src.ErrorMessage = ce.Message
		} else {
			src.ErrorMessage = err.Error()
		}
		r.store(src)
		return src, err
	}

	src.Status, _ = src.Status.Transition("validated")
	r.store(src)
	return src, nil
}

func (r *Registry) store(src Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[src.ID] = &src
}

// Update replaces a source's name/config and re-validates it.
func (r *Registry) Update(ctx context.Context, id uuid.UUID, name string, config map[string]interface{}) (Source, error) {
	r.mu.Lock()
	existing, ok := r.sources[id]
	r.mu.Unlock()
	if !ok {
		return Source{}, coreerrors.New("datasource", "Update", "SOURCE_NOT_FOUND", "source not found", coreerrors.ClassValidation)
	}

	updated := *existing
	updated.Name = name
	updated.Config = config
	updated.UpdatedAt = time.Now()

	if err := ValidateConfig(updated.Kind, config); err != nil {
		updated.Status, _ = updated.Status.Transition("failed")
		if ce, ok := coreerrors.As(err); ok {
			updated.ErrorMessage = ce.Message
		}
		r.store(updated)
		return updated, err
	}

	// Re-validation can succeed from any prior status (active, error, or
	// even mid-sync), so force Active directly rather than gating on
	// Transition's ok, which only recognizes new->active as "validated".
	updated.Status = StatusActive
	updated.ErrorMessage = ""
	r.store(updated)
	return updated, nil
}

// Delete removes a source from the registry.
func (r *Registry) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[id]; !ok {
		return coreerrors.New("datasource", "Delete", "SOURCE_NOT_FOUND", "source not found", coreerrors.ClassValidation)
	}
	delete(r.sources, id)
	return nil
}

// GetByID returns one source by id.
func (r *Registry) GetByID(_ context.Context, id uuid.UUID) (Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.sources[id]
	if !ok {
		return Source{}, coreerrors.New("datasource", "GetByID", "SOURCE_NOT_FOUND", "source not found", coreerrors.ClassValidation)
	}
	return *src, nil
}

// GetActive returns every source currently in StatusActive, the set the
// search orchestrator fans out across.
func (r *Registry) GetActive(_ context.Context) []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Source, 0, len(r.sources))
	for _, s := range r.sources {
		if s.IsActive() {
			out = append(out, *s)
		}
	}
	return out
}

// List returns a page of sources ordered by CreatedAt.
func (r *Registry) List(_ context.Context, offset, limit int) Page {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Source, 0, len(r.sources))
	for _, s := range r.sources {
		all = append(all, *s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	total := len(all)

	if offset > total {
		offset = total
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}

	return Page{Sources: all[offset:end], TotalCount: total, Offset: offset, Limit: limit}
}

// CheckHealth runs the configured HealthChecker against source id,
// transitioning active<->syncing as the check runs and recording error
// state on failure.
func (r *Registry) CheckHealth(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	src, ok := r.sources[id]
	if !ok {
		r.mu.Unlock()
		return coreerrors.New("datasource", "CheckHealth", "SOURCE_NOT_FOUND", "source not found", coreerrors.ClassValidation)
	}
	src.Status, _ = src.Status.Transition("sync_start")
	current := *src
	r.mu.Unlock()

	err := r.checker.Check(ctx, current)

	r.mu.Lock()
	defer r.mu.Unlock()
	src, ok = r.sources[id]
	if !ok {
		return nil
	}
	if err != nil {
		src.Status, _ = src.Status.Transition("failed")
		src.ErrorMessage = err.Error()
		r.logger.Warn("data source health check failed", observability.Fields{"source_id": id.String(), "error": err.Error()})
		return err
	}
	src.Status, _ = src.Status.Transition("sync_success")
	src.ErrorMessage = ""
	return nil
}
