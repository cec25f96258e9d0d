package state

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// MemoryStore keeps snapshots in process memory, grouped by domain. It
// mirrors SQLiteStore's Delete and List but stores Meta exactly as given:
// no snapshot IDs are assigned and ETags are not checked.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	domains map[string]map[string]memoryRecord[T]
}

type memoryRecord[T any] struct {
	snapshot T
	meta     Meta
}

var _ Store[[]byte] = (*MemoryStore[[]byte])(nil)

func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{domains: map[string]map[string]memoryRecord[T]{}}
}

func (s *MemoryStore[T]) Load(_ context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	if err := ref.validate(); err != nil {
		return zero, Meta{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.domains[ref.Domain][ref.Name]
	if !ok {
		return zero, Meta{}, false, nil
	}
	return record.snapshot, cloneMeta(record.meta), true, nil
}

func (s *MemoryStore[T]) Save(_ context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	if err := ref.validate(); err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	names, ok := s.domains[ref.Domain]
	if !ok {
		names = map[string]memoryRecord[T]{}
		s.domains[ref.Domain] = names
	}
	names[ref.Name] = memoryRecord[T]{snapshot: snapshot, meta: cloneMeta(meta)}
	return cloneMeta(meta), nil
}

// Delete removes the snapshot for ref and reports whether one existed.
func (s *MemoryStore[T]) Delete(_ context.Context, ref Ref) (bool, error) {
	if err := ref.validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	names := s.domains[ref.Domain]
	if _, ok := names[ref.Name]; !ok {
		return false, nil
	}
	delete(names, ref.Name)
	if len(names) == 0 {
		delete(s.domains, ref.Domain)
	}
	return true, nil
}

// List returns the refs stored under domain ordered by name.
func (s *MemoryStore[T]) List(_ context.Context, domain string) ([]Ref, error) {
	s.mu.RLock()
	names := slices.Sorted(maps.Keys(s.domains[domain]))
	s.mu.RUnlock()

	refs := make([]Ref, 0, len(names))
	for _, name := range names {
		refs = append(refs, Ref{Domain: domain, Name: name})
	}
	return refs, nil
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra != nil {
		out.Extra = maps.Clone(meta.Extra)
	}
	return out
}
