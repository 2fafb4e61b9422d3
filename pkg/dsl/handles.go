package dsl

import (
	"context"

	"github.com/aretw0/statechart/internal/model"
	"github.com/aretw0/statechart/pkg/domain"
)

type handle struct {
	f *Factory
	n *model.Node
}

func (h handle) target() *model.Node { return h.n }

// ID returns the scope-qualified identifier of the node.
func (h handle) ID() string { return h.n.ID }

func (h handle) onEnter(a domain.Action) {
	if a != nil {
		h.n.OnEnter = append(h.n.OnEnter, a)
	}
}

func (h handle) onExit(a domain.Action) {
	if a != nil {
		h.n.OnExit = append(h.n.OnExit, a)
	}
}

func (h handle) event(ev domain.Event, origin string) *TransitionBuilder {
	tb := newTransition(h.f, h.n, ev, origin)
	if ev == "" {
		h.f.b.fail(h.n, origin, "empty event name")
		return tb
	}
	h.n.Transitions = append(h.n.Transitions, tb.t)
	return tb
}

// single registers the only outgoing edge of initial, pass-through and leave nodes.
func (h handle) single(origin string) *TransitionBuilder {
	tb := newTransition(h.f, h.n, "", origin)
	if len(h.n.Transitions) > 0 {
		h.f.b.fail(h.n, origin, "%s node already has a transition", h.n.Kind)
		return tb
	}
	h.n.Transitions = append(h.n.Transitions, tb.t)
	return tb
}

func (h handle) completion(origin string) *TransitionBuilder {
	tb := newTransition(h.f, h.n, "", origin)
	if h.n.Completion != nil {
		h.f.b.fail(h.n, origin, "%s node already has a completion transition", h.n.Kind)
		return tb
	}
	h.n.Completion = tb.t
	return tb
}

// InitialHandle is the entry point of a scope.
type InitialHandle struct{ handle }

// OnExit adds a hook run when the scope starts.
func (h *InitialHandle) OnExit(a domain.Action) *InitialHandle { h.onExit(a); return h }

// Transition declares the edge to the first real node of the scope.
func (h *InitialHandle) Transition() *TransitionBuilder { return h.single(callerOrigin(1)) }

// FinalHandle is the terminal node of a scope.
type FinalHandle struct{ handle }

// OnEnter adds a hook run when the scope completes.
func (h *FinalHandle) OnEnter(a domain.Action) *FinalHandle { h.onEnter(a); return h }

// StateHandle is a simple node.
type StateHandle struct{ handle }

// OnEnter adds a hook run when the state is entered.
func (h *StateHandle) OnEnter(a domain.Action) *StateHandle { h.onEnter(a); return h }

// OnExit adds a hook run when the state is left.
func (h *StateHandle) OnExit(a domain.Action) *StateHandle { h.onExit(a); return h }

// Event declares the transition taken when ev is triggered while the state is active.
func (h *StateHandle) Event(ev domain.Event) *TransitionBuilder {
	return h.event(ev, callerOrigin(1))
}

// ChoiceHandle is a pseudostate resolved on entry.
type ChoiceHandle struct{ handle }

// OnEnter adds a hook run before the guards are evaluated.
func (h *ChoiceHandle) OnEnter(a domain.Action) *ChoiceHandle { h.onEnter(a); return h }

// OnExit adds a hook run when the choice is left.
func (h *ChoiceHandle) OnExit(a domain.Action) *ChoiceHandle { h.onExit(a); return h }

// Transition appends a candidate edge. The last one must be unguarded.
func (h *ChoiceHandle) Transition() *TransitionBuilder {
	tb := newTransition(h.f, h.n, "", callerOrigin(1))
	h.n.Transitions = append(h.n.Transitions, tb.t)
	return tb
}

// PassThroughHandle is a pseudostate with a single unconditional edge.
type PassThroughHandle struct{ handle }

// OnEnter adds a hook run when the chain passes through the node.
func (h *PassThroughHandle) OnEnter(a domain.Action) *PassThroughHandle { h.onEnter(a); return h }

// OnExit adds a hook run before the outgoing edge is taken.
func (h *PassThroughHandle) OnExit(a domain.Action) *PassThroughHandle { h.onExit(a); return h }

// Transition declares the single outgoing edge.
func (h *PassThroughHandle) Transition() *TransitionBuilder { return h.single(callerOrigin(1)) }

// WaitHandle suspends until the host completes the activity it received.
type WaitHandle struct{ handle }

// OnEnter adds a hook run before the activity is handed out.
func (h *WaitHandle) OnEnter(a domain.Action) *WaitHandle { h.onEnter(a); return h }

// OnExit adds a hook run when the wait is left.
func (h *WaitHandle) OnExit(a domain.Action) *WaitHandle { h.onExit(a); return h }

// Event declares a transition that abandons the wait when ev is triggered.
func (h *WaitHandle) Event(ev domain.Event) *TransitionBuilder {
	return h.event(ev, callerOrigin(1))
}

// WaitingFor registers the function that receives the activity on entry.
// The returned transition is taken once the activity and all its splits complete.
func (h *WaitHandle) WaitingFor(fn func(domain.Activity)) *TransitionBuilder {
	origin := callerOrigin(1)
	if fn == nil {
		h.f.b.fail(h.n, origin, "nil wait function")
	}
	h.n.Wait = fn
	return h.completion(origin)
}

// TaskWaitHandle suspends until its task returns.
type TaskWaitHandle struct{ handle }

// OnEnter adds a hook run before the task starts.
func (h *TaskWaitHandle) OnEnter(a domain.Action) *TaskWaitHandle { h.onEnter(a); return h }

// OnExit adds a hook run when the node is left. It does not cancel the task.
func (h *TaskWaitHandle) OnExit(a domain.Action) *TaskWaitHandle { h.onExit(a); return h }

// Event declares a transition that abandons the task when ev is triggered.
func (h *TaskWaitHandle) Event(ev domain.Event) *TransitionBuilder {
	return h.event(ev, callerOrigin(1))
}

// WaitingFor registers the task started on entry.
// The returned transition is taken when the task returns without error.
func (h *TaskWaitHandle) WaitingFor(task func(ctx context.Context) error) *TransitionBuilder {
	origin := callerOrigin(1)
	if task == nil {
		h.f.b.fail(h.n, origin, "nil task")
	}
	h.n.Task = task
	return h.completion(origin)
}

// NestHandle wraps one child scope.
type NestHandle struct{ handle }

// OnEnter adds a hook run before the child scope is entered.
func (h *NestHandle) OnEnter(a domain.Action) *NestHandle { h.onEnter(a); return h }

// OnExit adds a hook run after the child scope is left.
func (h *NestHandle) OnExit(a domain.Action) *NestHandle { h.onExit(a); return h }

// Event declares a transition that interrupts the nested scope.
func (h *NestHandle) Event(ev domain.Event) *TransitionBuilder {
	return h.event(ev, callerOrigin(1))
}

// Nest declares the child scope. The returned transition is taken when it reaches its final node.
func (h *NestHandle) Nest(setup Setup) *TransitionBuilder {
	origin := callerOrigin(1)
	h.f.nested(h.n, origin, []NestedSetup{{Setup: setup, ExecuteExit: true}})
	return h.completion(origin)
}

// NestWith is Nest with explicit nested options.
func (h *NestHandle) NestWith(data NestedSetup) *TransitionBuilder {
	origin := callerOrigin(1)
	h.f.nested(h.n, origin, []NestedSetup{data})
	return h.completion(origin)
}

// SplitHandle wraps several concurrent child scopes.
type SplitHandle struct{ handle }

// OnEnter adds a hook run before the regions are entered.
func (h *SplitHandle) OnEnter(a domain.Action) *SplitHandle { h.onEnter(a); return h }

// OnExit adds a hook run after every region is left.
func (h *SplitHandle) OnExit(a domain.Action) *SplitHandle { h.onExit(a); return h }

// Event declares a transition that interrupts every region.
func (h *SplitHandle) Event(ev domain.Event) *TransitionBuilder {
	return h.event(ev, callerOrigin(1))
}

// Split declares one region per setup. The returned transition is taken once
// every region has reached its final node.
func (h *SplitHandle) Split(setups ...Setup) *TransitionBuilder {
	origin := callerOrigin(1)
	data := make([]NestedSetup, len(setups))
	for i, s := range setups {
		data[i] = NestedSetup{Setup: s, ExecuteExit: true}
	}
	h.f.nested(h.n, origin, data)
	return h.completion(origin)
}

// SplitWith is Split with explicit nested options per region.
func (h *SplitHandle) SplitWith(data ...NestedSetup) *TransitionBuilder {
	origin := callerOrigin(1)
	h.f.nested(h.n, origin, data)
	return h.completion(origin)
}

// LeaveHandle escapes to a node of an enclosing scope.
type LeaveHandle struct{ handle }

// OnEnter adds a hook run just before the escape edge is taken.
func (h *LeaveHandle) OnEnter(a domain.Action) *LeaveHandle { h.onEnter(a); return h }

// Transition declares the escape edge. Its target must belong to an enclosing scope.
func (h *LeaveHandle) Transition() *TransitionBuilder { return h.single(callerOrigin(1)) }
