// Package checkpoint persists pagination cursors so a Pager can resume an
// interrupted walk. Stores are keyed by caller-chosen names.
package checkpoint

import (
	"context"
	"sync"

	resilientgraphql "github.com/opengovern/resilient-graphql"
)

// MemoryStore keeps cursors in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	cursors map[string]string
}

var _ resilientgraphql.CursorStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cursors: make(map[string]string)}
}

func (s *MemoryStore) Load(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cursors[key]
	return c, ok, nil
}

func (s *MemoryStore) Save(_ context.Context, key, cursor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[key] = cursor
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cursors, key)
	return nil
}
