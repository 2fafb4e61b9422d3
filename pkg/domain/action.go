package domain

import "context"

// Action is a side effect attached to a node (enter/exit) or to a transition.
// A non-nil error stops the current dispatch and is returned to the caller.
type Action func(ctx context.Context) error

// Condition guards a transition. It must be side-effect free.
type Condition func() bool

// Task is the asynchronous operation behind a TaskWait node.
// It runs outside the dispatch goroutine; its completion is queued back into the engine.
type Task func(ctx context.Context) error

// Activity is handed to the host when a Wait node is entered.
// The node advances once the activity and every activity split from it are completed.
// Completing an activity whose node is no longer active has no effect.
type Activity interface {
	// ID uniquely identifies this activity.
	ID() string
	// Complete marks the activity as done. Safe to call from any goroutine and more than once.
	Complete()
	// Split creates a child activity that must also complete before the node advances.
	Split() Activity
	// Completed reports whether Complete was called on this activity.
	Completed() bool
}
