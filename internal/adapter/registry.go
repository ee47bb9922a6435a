package adapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/davidmns/finsync/internal/apperrors"
)

// Registry is the process-wide mapping from entity ID to adapter, built at
// startup. It also rate-limits adapter calls per entity so bursty fetch
// schedules cannot hammer a source.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
	limiters map[string]*rate.Limiter

	limit rate.Limit
	burst int
}

// NewRegistry creates an empty registry with a default per-entity limit of
// one adapter call per second, burst three.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(time.Second),
		burst:    3,
	}
}

// Register binds an adapter to an entity ID. Later registrations replace
// earlier ones.
func (r *Registry) Register(entityID string, a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[entityID] = a
	r.limiters[entityID] = rate.NewLimiter(r.limit, r.burst)
}

// Get returns the adapter for the entity, or ErrAdapterNotFound.
func (r *Registry) Get(entityID string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[entityID]
	if !ok {
		return nil, fmt.Errorf("%w: entity %s", apperrors.ErrAdapterNotFound, entityID)
	}
	return a, nil
}

// Wait blocks until the entity's rate limiter admits one more adapter call,
// or the context is cancelled.
func (r *Registry) Wait(ctx context.Context, entityID string) error {
	r.mu.RLock()
	limiter := r.limiters[entityID]
	r.mu.RUnlock()

	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}
