package runtime

import (
	"context"

	"github.com/aretw0/statechart/pkg/domain"
)

// bitset tracks which regions of a composite reached their final node.
type bitset struct {
	words []uint64
	size  int
}

func newBitset(size int) bitset {
	return bitset{words: make([]uint64, (size+63)/64), size: size}
}

func (b *bitset) set(i int) {
	b.words[i/64] |= 1 << (uint(i) % 64)
}

func (b bitset) has(i int) bool {
	return b.words[i/64]&(1<<(uint(i)%64)) != 0
}

func (b bitset) all() bool {
	if b.size == 0 {
		return false
	}
	for i := 0; i < b.size; i++ {
		if !b.has(i) {
			return false
		}
	}
	return true
}

// join fires the completion transition of every composite whose regions are all done.
// Deeper composites go first so that a nest completing the last region of a split
// is resolved before the split itself.
func (e *Engine) join(ctx context.Context) error {
	for e.Status() == domain.StatusActive {
		inst := joinable(e.root)
		if inst == nil {
			return nil
		}
		e.logger.Debug("regions completed", "node", inst.node.ID, "to", targetID(inst.node.Completion))
		if err := e.take(ctx, inst.region, inst.node.Completion, ""); err != nil {
			return err
		}
	}
	return nil
}

func joinable(r *region) *instance {
	if r == nil || r.current == nil {
		return nil
	}
	inst := r.current
	for _, child := range inst.regions {
		if child.done {
			continue
		}
		if found := joinable(child); found != nil {
			return found
		}
	}
	if len(inst.regions) > 0 && inst.completed.all() {
		return inst
	}
	return nil
}
