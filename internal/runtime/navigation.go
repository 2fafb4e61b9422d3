package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/statechart/internal/model"
	"github.com/aretw0/statechart/pkg/domain"
)

// region is the live counterpart of a model.Scope.
type region struct {
	scope   *model.Scope
	owner   *instance
	current *instance
	done    bool
}

func (r *region) parent() *region {
	if r.owner == nil {
		return nil
	}
	return r.owner.region
}

// instance is one activation of a node. A node re-entered later gets a new instance.
type instance struct {
	node       *model.Node
	activation uint64
	region     *region
	regions    []*region
	completed  bitset
	activity   *activity
	exited     bool
}

// acceptsEvents reports whether the node kind carries event transitions.
func acceptsEvents(k domain.NodeKind) bool {
	switch k {
	case domain.KindState, domain.KindWait, domain.KindTaskWait, domain.KindNest, domain.KindSplit:
		return true
	}
	return false
}

// offer dispatches ev into r. A composite checks its own transitions before its regions.
func (e *Engine) offer(ctx context.Context, r *region, ev domain.Event) (bool, error) {
	if r == nil || r.done || r.current == nil {
		return false, nil
	}
	inst := r.current

	if acceptsEvents(inst.node.Kind) {
		for _, t := range inst.node.Transitions {
			if t.Event != ev {
				continue
			}
			if t.Guard != nil && !t.Guard() {
				continue
			}
			e.logger.Debug("received event causing transition", "event", ev, "from", inst.node.ID, "to", targetID(t))
			return true, e.take(ctx, r, t, ev)
		}
	}

	matched := false
	for _, child := range inst.regions {
		if child.done {
			continue
		}
		ok, err := e.offer(ctx, child, ev)
		if err != nil {
			return true, err
		}
		matched = matched || ok
		if inst.exited {
			break
		}
	}
	return matched, nil
}

// take crosses t, which leaves the active instance of r.
func (e *Engine) take(ctx context.Context, r *region, t *model.Transition, ev domain.Event) error {
	src := t.Source

	if t.Target == nil {
		e.notifyTransition(ctx, ev, src.ID, "", false)
		return e.runHooks(ctx, src, domain.StageTransition, t.Origin, t.OnTransition)
	}
	if t.Target == src {
		e.logger.Debug("loop transition ignored", "event", ev, "node", src.ID)
		e.notifyTransition(ctx, ev, src.ID, src.ID, true)
		return nil
	}

	dest := r
	for dest != nil && dest.scope != t.Target.Scope {
		dest = dest.parent()
	}
	if dest == nil {
		return fmt.Errorf("%w: target %q of %q is not in an active scope", domain.ErrInvalidChart, t.Target.ID, src.ID)
	}

	if err := e.exit(ctx, dest.current); err != nil {
		return err
	}
	e.notifyTransition(ctx, ev, src.ID, t.Target.ID, false)
	if err := e.runHooks(ctx, src, domain.StageTransition, t.Origin, t.OnTransition); err != nil {
		return err
	}
	return e.enter(ctx, dest, t.Target)
}

// exit leaves inst and everything below it, deepest first with regions in declaration order.
func (e *Engine) exit(ctx context.Context, inst *instance) error {
	if inst == nil || inst.exited {
		return nil
	}

	for _, child := range inst.regions {
		cur := child.current
		if !child.done && !child.scope.ExecuteExit {
			e.discard(cur)
		} else if err := e.exit(ctx, cur); err != nil {
			return err
		}
		if child.done || !child.scope.ExecuteFinal || cur == nil || cur.node.Kind == domain.KindLeave {
			continue
		}
		if fin := child.scope.Final(); fin != nil {
			e.logger.Debug("executing final of interrupted scope", "node", fin.ID)
			if err := e.runHooks(ctx, fin, domain.StageEnter, fin.Origin, fin.OnEnter); err != nil {
				return err
			}
		}
	}

	inst.exited = true
	delete(e.live, inst.activation)
	e.logger.Debug("exiting", "node", inst.node.ID, "activation", inst.activation)
	if err := e.runHooks(ctx, inst.node, domain.StageExit, inst.node.Origin, inst.node.OnExit); err != nil {
		return err
	}
	e.notifyNode(ctx, domain.EventNodeExit, inst)
	return nil
}

// discard retires inst and its subtree without running exit hooks.
// Pending completions of the retired instances become stale.
func (e *Engine) discard(inst *instance) {
	if inst == nil || inst.exited {
		return
	}
	for _, child := range inst.regions {
		e.discard(child.current)
	}
	inst.exited = true
	delete(e.live, inst.activation)
	e.logger.Debug("discarding", "node", inst.node.ID, "activation", inst.activation)
}

// enter activates n in r and resolves pseudostates eagerly.
func (e *Engine) enter(ctx context.Context, r *region, n *model.Node) error {
	e.activation++
	inst := &instance{node: n, activation: e.activation, region: r}
	e.live[inst.activation] = inst
	r.current = inst

	e.logger.Debug("entering", "node", n.ID, "activation", inst.activation)
	if err := e.runHooks(ctx, n, domain.StageEnter, n.Origin, n.OnEnter); err != nil {
		return err
	}
	e.notifyNode(ctx, domain.EventNodeEnter, inst)

	switch n.Kind {
	case domain.KindInitial, domain.KindPassThrough, domain.KindLeave:
		return e.take(ctx, r, n.Transitions[0], "")

	case domain.KindChoice:
		for _, t := range n.Transitions {
			if t.Guard == nil || t.Guard() {
				return e.take(ctx, r, t, "")
			}
		}
		return fmt.Errorf("%w: no transition of choice %q passed", domain.ErrInvalidChart, n.ID)

	case domain.KindFinal:
		if r.owner == nil {
			e.setStatus(domain.StatusCompleted)
			e.logger.Debug("chart completed", "run_id", e.runID)
			return nil
		}
		r.done = true
		r.owner.completed.set(r.scope.Index)

	case domain.KindWait:
		inst.activity = e.newActivity(inst.activation)
		n.Wait(inst.activity)

	case domain.KindTaskWait:
		e.startTask(inst)

	case domain.KindNest, domain.KindSplit:
		inst.completed = newBitset(len(n.Regions))
		for _, scope := range n.Regions {
			inst.regions = append(inst.regions, &region{scope: scope, owner: inst})
		}
		for _, child := range inst.regions {
			if err := e.enter(ctx, child, child.scope.Initial()); err != nil {
				return err
			}
			if inst.exited {
				break
			}
		}
	}
	return nil
}

func targetID(t *model.Transition) string {
	if t.Target == nil {
		return ""
	}
	return t.Target.ID
}
