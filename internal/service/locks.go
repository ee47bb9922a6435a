package service

import "sync"

// LockRegistry is a registry of named non-reentrant locks. The orchestrator
// keys them by entity ID to guarantee at most one concurrent fetch per
// entity; the virtual importer uses a single global name.
type LockRegistry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLockRegistry creates an empty registry.
func NewLockRegistry() *LockRegistry {
	return &LockRegistry{locks: make(map[string]*sync.Mutex)}
}

// TryAcquire attempts to take the named lock without blocking. On success it
// returns a release function and true; on contention it returns false
// immediately.
func (r *LockRegistry) TryAcquire(name string) (func(), bool) {
	r.mu.Lock()
	lock, ok := r.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[name] = lock
	}
	r.mu.Unlock()

	if !lock.TryLock() {
		return nil, false
	}
	return lock.Unlock, true
}
