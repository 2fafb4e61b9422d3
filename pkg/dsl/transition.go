package dsl

import (
	"github.com/aretw0/statechart/internal/model"
	"github.com/aretw0/statechart/pkg/domain"
)

// Target is any node handle a transition can point to.
type Target interface {
	target() *model.Node
}

// TransitionBuilder configures a single edge.
type TransitionBuilder struct {
	t *model.Transition
	b *builder
}

func newTransition(f *Factory, source *model.Node, ev domain.Event, origin string) *TransitionBuilder {
	return &TransitionBuilder{
		t: &model.Transition{Source: source, Event: ev, Origin: origin},
		b: f.b,
	}
}

// Condition guards the transition. On a choice, guards are evaluated in registration order.
func (tb *TransitionBuilder) Condition(cond domain.Condition) *TransitionBuilder {
	tb.t.Guard = cond
	return tb
}

// OnTransition adds a side effect run after the source is exited and before the target is entered.
func (tb *TransitionBuilder) OnTransition(action domain.Action) *TransitionBuilder {
	if action != nil {
		tb.t.OnTransition = append(tb.t.OnTransition, action)
	}
	return tb
}

// Target sets the destination node. Leaving it unset on an event transition
// makes the transition run its OnTransition hooks only.
func (tb *TransitionBuilder) Target(target Target) {
	if target == nil {
		tb.b.fail(tb.t.Source, tb.t.Origin, "nil transition target")
		return
	}
	tb.t.Target = target.target()
}
