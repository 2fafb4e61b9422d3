package ports

import (
	"context"

	"github.com/aretw0/statechart/pkg/domain"
)

// SnapshotStore defines the interface for recording snapshots of a run.
// Snapshots are diagnostic: a chart cannot be restored from one because hooks are Go closures.
type SnapshotStore interface {
	// Save persists the snapshot for a given run ID, replacing any previous one.
	Save(ctx context.Context, runID string, snap *domain.Snapshot) error

	// Load retrieves the snapshot for a given run ID.
	// Returns domain.ErrSnapshotNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a given run ID.
	Delete(ctx context.Context, runID string) error

	// List returns the run IDs currently stored.
	List(ctx context.Context) ([]string, error)
}
