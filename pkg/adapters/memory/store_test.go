package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/statechart/pkg/adapters/memory"
	"github.com/aretw0/statechart/pkg/domain"
	"github.com/aretw0/statechart/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSnapshotStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	snap := &domain.Snapshot{
		Chart:  "iso",
		Leaves: []domain.Leaf{{NodeID: "a"}},
		Root: &domain.Frame{NodeID: "match", Regions: []domain.Region{
			{Scope: "match#0", Current: &domain.Frame{NodeID: "match#0/a"}},
		}},
	}
	require.NoError(t, store.Save(ctx, "run", snap))

	snap.Leaves[0].NodeID = "mutated"
	snap.Root.Regions[0].Current.NodeID = "mutated"

	loaded, err := store.Load(ctx, "run")
	require.NoError(t, err)
	assert.Equal(t, "a", loaded.Leaves[0].NodeID)
	assert.Equal(t, "match#0/a", loaded.Root.Regions[0].Current.NodeID)
}
