package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process scene store. Safe for concurrent use; all
// data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	scenes map[string]*Scene
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{scenes: make(map[string]*Scene)}
}

// Put stores or replaces a scene by ID.
func (s *MemoryStore) Put(ctx context.Context, scene *Scene) error {
	if scene.Name == "" {
		return ErrEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *scene
	cp.UpdatedAt = time.Now().UTC()
	if prev, ok := s.scenes[cp.ID]; ok {
		cp.CreatedAt = prev.CreatedAt
	}
	s.scenes[cp.ID] = &cp
	return nil
}

// Get retrieves a scene by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Scene, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scene, ok := s.scenes[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *scene
	return &cp, nil
}

// List returns all scenes sorted by name, ties broken by ID.
func (s *MemoryStore) List(ctx context.Context) ([]*Scene, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Scene, 0, len(s.scenes))
	for _, scene := range s.scenes {
		cp := *scene
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Delete removes a scene.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.scenes[id]; !ok {
		return ErrNotFound
	}
	delete(s.scenes, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
