package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a Store in process memory. With a positive limit the
// oldest entries are evicted once it is exceeded.
type MemoryStore[T any] struct {
	mu    sync.RWMutex
	m     map[string]T
	order []string
	limit int
}

func NewMemoryStore[T any](limit int) *MemoryStore[T] {
	return &MemoryStore[T]{m: map[string]T{}, limit: limit}
}

func (s *MemoryStore[T]) Get(_ context.Context, id string) (T, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[id]
	return v, ok, nil
}

func (s *MemoryStore[T]) Put(_ context.Context, id string, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; !ok {
		s.order = append(s.order, id)
	}
	s.m[id] = v
	for s.limit > 0 && len(s.order) > s.limit {
		delete(s.m, s.order[0])
		s.order = s.order[1:]
	}
	return nil
}

// Delete removes id. Deleting an unknown id returns ErrNotFound.
func (s *MemoryStore[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; !ok {
		return ErrNotFound
	}
	delete(s.m, id)
	for i, k := range s.order {
		if k == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// IDs returns the stored ids, oldest first.
func (s *MemoryStore[T]) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

func (s *MemoryStore[T]) NewID() string { return uuid.NewString() }
