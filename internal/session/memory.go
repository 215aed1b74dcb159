package session

import (
	"context"
	"sync"

	"github.com/playrps/rpsroom/internal/model"
)

type scopeKey struct {
	id    model.ClientID
	scope Scope
}

// MemoryStore is an in-memory session store
type MemoryStore struct {
	mu     sync.RWMutex
	values map[scopeKey]map[string]string
}

// NewMemoryStore creates a new in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[scopeKey]map[string]string),
	}
}

// Ensure MemoryStore implements the interface
var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Get(ctx context.Context, id model.ClientID, scope Scope, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kv, ok := s.values[scopeKey{id, scope}]
	if !ok {
		return "", model.ErrSessionNotFound
	}
	value, ok := kv[key]
	if !ok {
		return "", model.ErrSessionNotFound
	}
	return value, nil
}

func (s *MemoryStore) Set(ctx context.Context, id model.ClientID, scope Scope, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sk := scopeKey{id, scope}
	if s.values[sk] == nil {
		s.values[sk] = make(map[string]string)
	}
	s.values[sk][key] = value
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id model.ClientID, scope Scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if kv, ok := s.values[scopeKey{id, scope}]; ok {
		delete(kv, key)
	}
	return nil
}

func (s *MemoryStore) ClearScope(ctx context.Context, id model.ClientID, scope Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, scopeKey{id, scope})
	return nil
}
