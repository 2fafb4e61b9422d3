package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/statechart/internal/logging"
	"github.com/aretw0/statechart/pkg/domain"
	"github.com/aretw0/statechart/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold a run's lock.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates snapshot access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.SnapshotStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Manager over store.
func NewManager(store ports.SnapshotStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(runID) after unlocking.
func (m *Manager) acquire(runID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[runID]
	if !exists {
		entry = &lockEntry{}
		m.locks[runID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[runID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, runID)
	}
}

// Record saves snap under its run ID unless the store already holds a newer
// snapshot of that run (written by another replica).
func (m *Manager) Record(ctx context.Context, snap *domain.Snapshot) error {
	if snap == nil || snap.RunID == "" {
		return nil
	}
	return m.WithLock(ctx, snap.RunID, func(ctx context.Context) error {
		current, err := m.store.Load(ctx, snap.RunID)
		switch {
		case errors.Is(err, domain.ErrSnapshotNotFound):
		case err != nil:
			return fmt.Errorf("failed to read snapshot %s: %w", snap.RunID, err)
		case current.TakenAt.After(snap.TakenAt):
			m.logger.Debug("skipping outdated snapshot", "run_id", snap.RunID, "taken_at", snap.TakenAt)
			return nil
		}
		return m.store.Save(ctx, snap.RunID, snap)
	})
}

// Load retrieves a snapshot from the store.
func (m *Manager) Load(ctx context.Context, runID string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, runID, func(ctx context.Context) error {
		var err error
		snap, err = m.store.Load(ctx, runID)
		return err
	})
	return snap, err
}

// Delete removes the snapshot from the store.
func (m *Manager) Delete(ctx context.Context, runID string) error {
	return m.WithLock(ctx, runID, func(ctx context.Context) error {
		return m.store.Delete(ctx, runID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Prune deletes every completed run and returns how many were removed.
func (m *Manager) Prune(ctx context.Context) (int, error) {
	runs, err := m.store.List(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range runs {
		err := m.WithLock(ctx, id, func(ctx context.Context) error {
			snap, err := m.store.Load(ctx, id)
			if errors.Is(err, domain.ErrSnapshotNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if snap.Status != domain.StatusCompleted {
				return nil
			}
			if err := m.store.Delete(ctx, id); err != nil {
				return err
			}
			removed++
			return nil
		})
		if err != nil {
			return removed, fmt.Errorf("prune %s: %w", id, err)
		}
	}
	return removed, nil
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// WithLock executes a function while holding the lock for the run.
func (m *Manager) WithLock(ctx context.Context, runID string, fn func(context.Context) error) error {
	entry := m.acquire(runID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(runID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, runID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"run_id", runID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
