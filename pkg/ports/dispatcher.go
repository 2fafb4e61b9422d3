package ports

import (
	"context"

	"github.com/aretw0/statechart/pkg/domain"
)

// TaskRunner starts the asynchronous operation of a TaskWait node.
// Start must not block; done must be called exactly once when the task returns.
type TaskRunner interface {
	Start(ctx context.Context, task domain.Task, done func(error))
}

// Scheduler marshals a completion callback onto the goroutine that owns the engine.
// The engine never touches its configuration from inside Schedule; fn does that.
type Scheduler interface {
	Schedule(fn func())
}
