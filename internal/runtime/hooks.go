package runtime

import (
	"context"
	"time"

	"github.com/aretw0/statechart/internal/model"
	"github.com/aretw0/statechart/pkg/domain"
)

// runHooks executes host actions in registration order, reporting each one to the observer.
func (e *Engine) runHooks(ctx context.Context, n *model.Node, stage domain.HookStage, origin string, actions []domain.Action) error {
	for i, action := range actions {
		ev := &domain.HookEvent{
			EventBase: e.base(domain.EventHook),
			NodeID:    n.ID,
			Stage:     stage,
			Index:     i,
		}
		if e.hooks.OnHookStart != nil {
			e.hooks.OnHookStart(ctx, ev)
		}

		start := time.Now()
		err := action(ctx)

		if e.hooks.OnHookEnd != nil {
			end := *ev
			end.Timestamp = time.Now()
			end.Duration = time.Since(start)
			end.Err = err
			e.hooks.OnHookEnd(ctx, &end)
		}
		if err != nil {
			return &domain.HookError{Node: n.ID, Stage: stage, Origin: origin, Err: err}
		}
	}
	return nil
}

func (e *Engine) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: time.Now(),
		Type:      t,
		Chart:     e.graph.Name,
		RunID:     e.runID,
	}
}

func (e *Engine) notifyNode(ctx context.Context, t domain.EventType, inst *instance) {
	fn := e.hooks.OnNodeEnter
	if t == domain.EventNodeExit {
		fn = e.hooks.OnNodeExit
	}
	if fn == nil {
		return
	}
	fn(ctx, &domain.NodeEvent{
		EventBase:  e.base(t),
		NodeID:     inst.node.ID,
		Kind:       inst.node.Kind,
		Activation: inst.activation,
	})
}

func (e *Engine) notifyTransition(ctx context.Context, ev domain.Event, from, to string, loop bool) {
	if e.hooks.OnTransition == nil {
		return
	}
	e.hooks.OnTransition(ctx, &domain.TransitionEvent{
		EventBase: e.base(domain.EventTransition),
		Event:     ev,
		From:      from,
		To:        to,
		Loop:      loop,
	})
}

func (e *Engine) drop(ctx context.Context, it item, reason domain.DropReason) {
	if reason == domain.DropUnmatched {
		e.logger.Debug("event not handled", "event", it.event)
	}
	if e.hooks.OnDrop == nil {
		return
	}
	e.hooks.OnDrop(ctx, &domain.DropEvent{
		EventBase:  e.base(domain.EventDrop),
		Event:      it.event,
		Activation: it.activation,
		Reason:     reason,
	})
}
