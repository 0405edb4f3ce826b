// internal/grouplock/registry.go
// Per-group exclusivity gate serializing lifecycle operations

package grouplock

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"matchcore/internal/coreerr"
)

// Registry hands out a per-group binary semaphore so that generate,
// complete, edit-after-complete, and recalculate on the same group are
// mutually exclusive, per the concurrency model: interleaving a replay
// with another write would corrupt ratings.
type Registry struct {
	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

func NewRegistry() *Registry {
	return &Registry{locks: make(map[string]*semaphore.Weighted)}
}

func (r *Registry) get(groupID string) *semaphore.Weighted {
	r.mu.Lock()
	defer r.mu.Unlock()
	sem, ok := r.locks[groupID]
	if !ok {
		sem = semaphore.NewWeighted(1)
		r.locks[groupID] = sem
	}
	return sem
}

// Release hands back the group's lock. Callers should defer this
// immediately after a successful Acquire/TryAcquire.
type Release func()

// Acquire blocks until the group's lock is free, serializing the caller's
// operation with any other lifecycle operation on the same group.
func (r *Registry) Acquire(ctx context.Context, groupID string) (Release, error) {
	sem := r.get(groupID)
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, coreerr.Persistence(err, "acquiring group lock for %s", groupID)
	}
	return func() { sem.Release(1) }, nil
}

// TryAcquire rejects immediately with a Conflict error instead of blocking
// when the group's lock is already held.
func (r *Registry) TryAcquire(groupID string) (Release, error) {
	sem := r.get(groupID)
	if !sem.TryAcquire(1) {
		return nil, coreerr.Conflict("group %s has a lifecycle operation already in progress", groupID)
	}
	return func() { sem.Release(1) }, nil
}
