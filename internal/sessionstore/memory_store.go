package sessionstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemorySessionStore is an in-process Store twin of BunSessionStore, used
// in tests and by the benchmark server when -database-dsn is empty.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*SessionRecord
}

// NewMemorySessionStore returns an empty MemorySessionStore.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[uuid.UUID]*SessionRecord)}
}

func (s *MemorySessionStore) Save(ctx context.Context, r *SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.sessions[r.ID] = &cp
	return nil
}

func (s *MemorySessionStore) Get(ctx context.Context, id uuid.UUID) (*SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	cp := *r
	return &cp, nil
}

func (s *MemorySessionStore) List(ctx context.Context) ([]*SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*SessionRecord, 0, len(s.sessions))
	for _, r := range s.sessions {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

var _ Store = (*MemorySessionStore)(nil)
