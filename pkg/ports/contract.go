package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/statechart/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractSnapshot(runID string, leaves ...string) *domain.Snapshot {
	snap := &domain.Snapshot{
		Chart:   "contract",
		RunID:   runID,
		Status:  domain.StatusActive,
		TakenAt: time.Now().UTC().Truncate(time.Second),
	}
	for i, id := range leaves {
		snap.Leaves = append(snap.Leaves, domain.Leaf{NodeID: id, Name: id, Kind: domain.KindState, Activation: uint64(i + 1)})
	}
	if len(leaves) > 0 {
		snap.Root = &domain.Frame{NodeID: leaves[0], Name: leaves[0], Kind: domain.KindState, Activation: 1}
	}
	return snap
}

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore implementation
// adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := contractSnapshot(runID, "menu", "audio")

		err := store.Save(ctx, runID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.Status, loaded.Status)
		assert.Equal(t, []string{"menu", "audio"}, loaded.LeafIDs())
		require.NotNil(t, loaded.Root)
		assert.Equal(t, "menu", loaded.Root.NodeID)
		assert.True(t, snap.TakenAt.Equal(loaded.TakenAt))
	})

	t.Run("Save Replaces", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, runID, contractSnapshot(runID, "lobby")))

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, []string{"lobby"}, loaded.LeafIDs())
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, runID, contractSnapshot(runID, "menu"))
		require.NoError(t, err)

		err = store.Delete(ctx, runID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		_ = store.Save(ctx, id1, contractSnapshot(id1, "menu"))
		_ = store.Save(ctx, id2, contractSnapshot(id2, "menu"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})
}
