package runtime

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/statechart/pkg/domain"
)

// Snapshot returns a copy of the active configuration.
// Like every reader, it must be called from the goroutine that drives the engine.
func (e *Engine) Snapshot() *domain.Snapshot {
	e.mu.Lock()
	snap := &domain.Snapshot{
		Chart:   e.graph.Name,
		RunID:   e.runID,
		Status:  e.status,
		TakenAt: time.Now().UTC(),
	}
	e.mu.Unlock()

	if e.root != nil && e.root.current != nil {
		snap.Root = frameOf(e.root.current, &snap.Leaves)
	}
	return snap
}

func frameOf(inst *instance, leaves *[]domain.Leaf) *domain.Frame {
	f := &domain.Frame{
		NodeID:     inst.node.ID,
		Name:       inst.node.Name,
		Kind:       inst.node.Kind,
		Activation: inst.activation,
	}
	live := false
	for _, r := range inst.regions {
		reg := domain.Region{Scope: r.scope.ID, Completed: r.done}
		if r.current != nil {
			reg.Current = frameOf(r.current, leaves)
			live = live || !r.done
		}
		f.Regions = append(f.Regions, reg)
	}
	if !live && (inst.node.Kind != domain.KindFinal || inst.region.owner == nil) {
		*leaves = append(*leaves, domain.Leaf{
			NodeID:     inst.node.ID,
			Name:       inst.node.Name,
			Kind:       inst.node.Kind,
			Activation: inst.activation,
		})
	}
	return f
}

// Inspect returns the static description of every node.
func (e *Engine) Inspect() []domain.Node {
	return e.graph.Describe()
}

// Debug renders the active configuration as an indented tree.
func (e *Engine) Debug() string {
	return RenderTree(e.Snapshot())
}

// RenderTree formats a snapshot the way Debug does.
func RenderTree(snap *domain.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", snap.Chart, snap.Status)
	if snap.Root != nil {
		writeFrame(&sb, snap.Root, 0)
	}
	return sb.String()
}

func writeFrame(sb *strings.Builder, f *domain.Frame, depth int) {
	fmt.Fprintf(sb, "%s↳ %s [%s]\n", strings.Repeat("  ", depth), f.Name, f.Kind)
	for _, r := range f.Regions {
		if r.Current == nil {
			continue
		}
		if r.Completed {
			fmt.Fprintf(sb, "%s↳ %s [%s] (done)\n", strings.Repeat("  ", depth+1), r.Current.Name, r.Current.Kind)
			continue
		}
		writeFrame(sb, r.Current, depth+1)
	}
}
