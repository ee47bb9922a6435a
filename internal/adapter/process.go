package adapter

import (
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
)

// processTTL bounds how long a deferred two-factor flow stays resumable.
const processTTL = 10 * time.Minute

// ProcessStore parks in-flight login state between the CodeRequested answer
// and the retry that carries the second-factor code. Entries expire after
// processTTL; an expired process ID behaves like an unknown one and the
// adapter answers InvalidCode.
type ProcessStore struct {
	c *cache.Cache
}

// NewProcessStore creates a ProcessStore with background expiry.
func NewProcessStore() *ProcessStore {
	return &ProcessStore{c: cache.New(processTTL, time.Minute)}
}

// Put stores state under a fresh process ID and returns the ID.
func (s *ProcessStore) Put(state any) string {
	processID := uuid.New().String()
	s.c.Set(processID, state, cache.DefaultExpiration)
	return processID
}

// Take retrieves and removes the state for the process ID. The second return
// is false when the ID is unknown or expired.
func (s *ProcessStore) Take(processID string) (any, bool) {
	state, ok := s.c.Get(processID)
	if !ok {
		return nil, false
	}
	s.c.Delete(processID)
	return state, ok
}
