package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/statechart/pkg/domain"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Snapshot
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Snapshot),
	}
}

// Save persists a deep copy of the snapshot.
func (s *Store) Save(ctx context.Context, runID string, snap *domain.Snapshot) error {
	copied := clone(snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[runID] = copied
	return nil
}

// Load retrieves a copy of the snapshot so callers cannot mutate the store.
func (s *Store) Load(ctx context.Context, runID string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[runID]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	return clone(snap), nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}

// List returns the stored run IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]string, 0, len(s.data))
	for id := range s.data {
		runs = append(runs, id)
	}
	sort.Strings(runs)
	return runs, nil
}

func clone(snap *domain.Snapshot) *domain.Snapshot {
	out := *snap
	out.Leaves = append([]domain.Leaf(nil), snap.Leaves...)
	out.Root = cloneFrame(snap.Root)
	return &out
}

func cloneFrame(f *domain.Frame) *domain.Frame {
	if f == nil {
		return nil
	}
	out := *f
	out.Regions = make([]domain.Region, len(f.Regions))
	for i, r := range f.Regions {
		out.Regions[i] = domain.Region{Scope: r.Scope, Completed: r.Completed, Current: cloneFrame(r.Current)}
	}
	if len(f.Regions) == 0 {
		out.Regions = nil
	}
	return &out
}
