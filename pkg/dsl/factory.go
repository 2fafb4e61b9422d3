package dsl

import (
	"github.com/aretw0/statechart/internal/model"
	"github.com/aretw0/statechart/pkg/domain"
)

// Factory declares the nodes of a single scope.
// A fresh Factory is handed to every Setup, one per nest or split region.
type Factory struct {
	scope *model.Scope
	b     *builder
}

func (f *Factory) add(kind domain.NodeKind, name, origin string) *model.Node {
	n := &model.Node{
		ID:     model.NodeID(f.scope, name),
		Name:   name,
		Kind:   kind,
		Scope:  f.scope,
		Origin: origin,
	}
	f.scope.Nodes = append(f.scope.Nodes, n)
	return n
}

// Initial declares the entry point of the scope.
func (f *Factory) Initial(name string) *InitialHandle {
	return &InitialHandle{handle{f: f, n: f.add(domain.KindInitial, name, callerOrigin(1))}}
}

// Final declares the terminal node of the scope.
func (f *Factory) Final(name string) *FinalHandle {
	return &FinalHandle{handle{f: f, n: f.add(domain.KindFinal, name, callerOrigin(1))}}
}

// State declares a simple node that advances on events.
func (f *Factory) State(name string) *StateHandle {
	return &StateHandle{handle{f: f, n: f.add(domain.KindState, name, callerOrigin(1))}}
}

// Choice declares a pseudostate resolved on entry through ordered guarded transitions.
func (f *Factory) Choice(name string) *ChoiceHandle {
	return &ChoiceHandle{handle{f: f, n: f.add(domain.KindChoice, name, callerOrigin(1))}}
}

// Transition declares a pass-through pseudostate with a single unconditional transition.
func (f *Factory) Transition(name string) *PassThroughHandle {
	return &PassThroughHandle{handle{f: f, n: f.add(domain.KindPassThrough, name, callerOrigin(1))}}
}

// Wait declares a node that advances once the host completes the activity it receives.
func (f *Factory) Wait(name string) *WaitHandle {
	return &WaitHandle{handle{f: f, n: f.add(domain.KindWait, name, callerOrigin(1))}}
}

// TaskWait declares a node that advances once its asynchronous task returns.
func (f *Factory) TaskWait(name string) *TaskWaitHandle {
	return &TaskWaitHandle{handle{f: f, n: f.add(domain.KindTaskWait, name, callerOrigin(1))}}
}

// Nest declares a composite node wrapping one child scope.
func (f *Factory) Nest(name string) *NestHandle {
	return &NestHandle{handle{f: f, n: f.add(domain.KindNest, name, callerOrigin(1))}}
}

// Split declares a composite node wrapping several concurrent child scopes.
func (f *Factory) Split(name string) *SplitHandle {
	return &SplitHandle{handle{f: f, n: f.add(domain.KindSplit, name, callerOrigin(1))}}
}

// Leave declares an escape node whose transition targets a node of an enclosing scope.
func (f *Factory) Leave(name string) *LeaveHandle {
	return &LeaveHandle{handle{f: f, n: f.add(domain.KindLeave, name, callerOrigin(1))}}
}

// nested creates the child scopes of a composite node and runs their setups.
func (f *Factory) nested(n *model.Node, origin string, setups []NestedSetup) {
	if len(n.Regions) > 0 {
		f.b.fail(n, origin, "%s node is nested more than once", n.Kind)
		return
	}
	for i, s := range setups {
		scope := &model.Scope{
			ID:           model.RegionID(n, i),
			Owner:        n,
			Index:        i,
			ExecuteExit:  s.ExecuteExit,
			ExecuteFinal: s.ExecuteFinal,
		}
		n.Regions = append(n.Regions, scope)
		if s.Setup == nil {
			f.b.fail(n, origin, "region %d has a nil setup", i)
			continue
		}
		s.Setup(&Factory{scope: scope, b: f.b})
	}
}
