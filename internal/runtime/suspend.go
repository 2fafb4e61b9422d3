package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/statechart/pkg/domain"
	"github.com/google/uuid"
)

// GoRunner starts every task on its own goroutine.
type GoRunner struct{}

// Start implements ports.TaskRunner. A panicking task is reported as an error.
func (GoRunner) Start(ctx context.Context, task domain.Task, done func(error)) {
	go func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panicked: %v", r)
			}
			done(err)
		}()
		err = task(ctx)
	}()
}

// DirectScheduler runs completions on the goroutine that produced them.
type DirectScheduler struct{}

// Schedule implements ports.Scheduler.
func (DirectScheduler) Schedule(fn func()) { fn() }

func (e *Engine) startTask(inst *instance) {
	activation := inst.activation
	e.mu.Lock()
	ctx := e.runCtx
	e.mu.Unlock()
	e.tasks.Start(ctx, inst.node.Task, func(err error) {
		e.schedule(activation, err)
	})
}

func (e *Engine) schedule(activation uint64, err error) {
	e.scheduler.Schedule(func() {
		e.complete(activation, err)
	})
}

// complete enqueues a completion for the node instance identified by activation.
// Errors from the drain it may start are handed to the error handler.
func (e *Engine) complete(activation uint64, err error) {
	e.mu.Lock()
	if e.status == domain.StatusIdle {
		e.mu.Unlock()
		e.logger.Debug("discarding completion after reset", "activation", activation)
		return
	}
	e.queue = append(e.queue, item{kind: itemCompletion, activation: activation, err: err})
	ctx := e.runCtx
	if derr := e.kick(ctx); derr != nil {
		e.onError(derr)
	}
}

// resume advances a suspended node once its work is done.
func (e *Engine) resume(ctx context.Context, it item) error {
	inst, ok := e.live[it.activation]
	if !ok {
		e.logger.Debug("stale completion discarded", "activation", it.activation)
		e.drop(ctx, it, domain.DropStale)
		return nil
	}

	e.mu.Lock()
	status := e.status
	if status == domain.StatusPaused {
		e.parked = append(e.parked, it)
	}
	e.mu.Unlock()
	if status != domain.StatusActive {
		if status != domain.StatusPaused {
			e.drop(ctx, it, domain.DropInactive)
		}
		return nil
	}

	if it.err != nil {
		return &domain.HookError{Node: inst.node.ID, Stage: domain.StageTask, Origin: inst.node.Origin, Err: it.err}
	}
	if inst.activity != nil && !inst.activity.tree.settled() {
		return nil
	}

	t := inst.node.Completion
	e.logger.Debug("completion causing transition", "from", inst.node.ID, "to", targetID(t))
	if err := e.take(ctx, inst.region, t, ""); err != nil {
		return err
	}
	return e.join(ctx)
}

// activityTree is shared by an activity and everything split from it.
type activityTree struct {
	mu      sync.Mutex
	pending int
}

func (t *activityTree) settled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending == 0
}

type activity struct {
	id   string
	tree *activityTree
	fire func()
	done bool
}

func (e *Engine) newActivity(activation uint64) *activity {
	return &activity{
		id:   uuid.NewString(),
		tree: &activityTree{pending: 1},
		fire: func() { e.schedule(activation, nil) },
	}
}

func (a *activity) ID() string { return a.id }

func (a *activity) Complete() {
	a.tree.mu.Lock()
	if a.done {
		a.tree.mu.Unlock()
		return
	}
	a.done = true
	a.tree.pending--
	a.tree.mu.Unlock()
	a.fire()
}

func (a *activity) Split() domain.Activity {
	a.tree.mu.Lock()
	defer a.tree.mu.Unlock()
	a.tree.pending++
	return &activity{id: uuid.NewString(), tree: a.tree, fire: a.fire}
}

func (a *activity) Completed() bool {
	a.tree.mu.Lock()
	defer a.tree.mu.Unlock()
	return a.done
}
