package domain

import (
	"context"
	"time"
)

// EventType defines the category of an observer event.
type EventType string

const (
	EventNodeEnter  EventType = "node_enter"
	EventNodeExit   EventType = "node_exit"
	EventTransition EventType = "transition"
	EventHook       EventType = "hook"
	EventDrop       EventType = "drop"
)

// DropReason explains why an incoming item had no effect.
type DropReason string

const (
	DropUnmatched DropReason = "unmatched" // no active node handles the event
	DropStale     DropReason = "stale"     // completion for a node instance that is no longer active
	DropInactive  DropReason = "inactive"  // chart paused or completed
)

// EventBase contains common fields for all observer events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Chart     string    `json:"chart"`
	RunID     string    `json:"run_id,omitempty"`
}

// NodeEvent represents entry into or exit from a node instance.
type NodeEvent struct {
	EventBase
	NodeID     string   `json:"node_id"`
	Kind       NodeKind `json:"kind"`
	Activation uint64   `json:"activation"`
}

// TransitionEvent represents a transition being taken.
type TransitionEvent struct {
	EventBase
	Event Event  `json:"event,omitempty"`
	From  string `json:"from"`
	To    string `json:"to,omitempty"`
	Loop  bool   `json:"loop,omitempty"`
}

// HookEvent wraps a single host hook execution. It is delivered before the hook
// runs (Err and Duration unset) and after it returns.
type HookEvent struct {
	EventBase
	NodeID   string        `json:"node_id"`
	Stage    HookStage     `json:"stage"`
	Index    int           `json:"index"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// DropEvent reports an event or completion that had no effect.
type DropEvent struct {
	EventBase
	Event      Event      `json:"event,omitempty"`
	Activation uint64     `json:"activation,omitempty"`
	Reason     DropReason `json:"reason"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run on the dispatch goroutine and must not block.
type LifecycleHooks struct {
	OnNodeEnter  func(context.Context, *NodeEvent)
	OnNodeExit   func(context.Context, *NodeEvent)
	OnTransition func(context.Context, *TransitionEvent)
	OnHookStart  func(context.Context, *HookEvent)
	OnHookEnd    func(context.Context, *HookEvent)
	OnDrop       func(context.Context, *DropEvent)
}

// MergeHooks combines several hook sets; callbacks run in argument order.
func MergeHooks(sets ...LifecycleHooks) LifecycleHooks {
	var merged LifecycleHooks
	for _, s := range sets {
		merged.OnNodeEnter = chain(merged.OnNodeEnter, s.OnNodeEnter)
		merged.OnNodeExit = chain(merged.OnNodeExit, s.OnNodeExit)
		merged.OnTransition = chain(merged.OnTransition, s.OnTransition)
		merged.OnHookStart = chain(merged.OnHookStart, s.OnHookStart)
		merged.OnHookEnd = chain(merged.OnHookEnd, s.OnHookEnd)
		merged.OnDrop = chain(merged.OnDrop, s.OnDrop)
	}
	return merged
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}
