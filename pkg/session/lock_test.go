package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/statechart/pkg/adapters/memory"
	"github.com/aretw0/statechart/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("run-%d", i)
		_ = mgr.Record(ctx, &domain.Snapshot{RunID: id})
		_ = mgr.Delete(ctx, id)
	}

	assert.Empty(t, mgr.locks, "lock entries should be released once unused")
}
