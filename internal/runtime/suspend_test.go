package runtime_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/statechart/internal/runtime"
	"github.com/aretw0/statechart/pkg/domain"
	"github.com/aretw0/statechart/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_StaleTaskCompletionIsDiscarded(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	runner := &manualRunner{}
	var reasons []domain.DropReason

	e := newEngine(t, func(f *dsl.Factory) {
		i := f.Initial("init")
		f.Final("end")
		match := f.Split("match")
		after := f.State("after")
		menu := f.State("menu")

		i.Transition().Target(match)
		match.Split(
			func(r *dsl.Factory) {
				ri := r.Initial("init")
				rf := r.Final("end")
				load := r.TaskWait("load").OnExit(rec.hook("exit load"))
				loaded := r.State("loaded").OnEnter(rec.hook("enter loaded"))
				ri.Transition().Target(load)
				load.WaitingFor(noop).OnTransition(rec.hook("load done")).Target(loaded)
				loaded.Event("go").Target(rf)
			},
			func(r *dsl.Factory) {
				ri := r.Initial("init")
				r.Final("end")
				idle := r.State("idle")
				quit := r.Leave("quit")
				ri.Transition().Target(idle)
				idle.Event("disconnect").Target(quit)
				quit.Transition().Target(menu)
			},
		).Target(after)
	}, runtime.WithTaskRunner(runner), runtime.WithLifecycleHooks(drops(&reasons)))

	require.NoError(t, e.Run(ctx))
	require.Equal(t, 1, runner.started())

	require.NoError(t, e.Trigger(ctx, "disconnect"))
	assert.Equal(t, []string{"menu"}, e.Snapshot().LeafIDs())
	before := rec.log()

	runner.finish(0, nil)

	assert.Equal(t, before, rec.log())
	assert.Equal(t, []string{"exit load"}, rec.log())
	assert.Equal(t, []domain.DropReason{domain.DropStale}, reasons)
	assert.Equal(t, []string{"menu"}, e.Snapshot().LeafIDs())
}

func TestEngine_TaskCompletionAdvances(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	runner := &manualRunner{}
	e := newEngine(t, func(f *dsl.Factory) {
		i := f.Initial("init")
		end := f.Final("end")
		load := f.TaskWait("load")
		i.Transition().Target(load)
		load.WaitingFor(noop).OnTransition(rec.hook("loaded")).Target(end)
	}, runtime.WithTaskRunner(runner))

	require.NoError(t, e.Run(ctx))
	assert.Equal(t, []string{"load"}, e.Snapshot().LeafIDs())

	runner.finish(0, nil)
	assert.Equal(t, domain.StatusCompleted, e.Status())
	assert.Equal(t, []string{"loaded"}, rec.log())

	// A duplicate completion for the same instance is stale.
	runner.finish(0, nil)
	assert.Equal(t, []string{"loaded"}, rec.log())
}

func TestEngine_TaskErrorGoesToErrorHandler(t *testing.T) {
	ctx := context.Background()
	errLoad := errors.New("asset missing")
	runner := &manualRunner{}
	var handled []error

	e := newEngine(t, func(f *dsl.Factory) {
		i := f.Initial("init")
		end := f.Final("end")
		load := f.TaskWait("load")
		i.Transition().Target(load)
		load.WaitingFor(noop).Target(end)
	}, runtime.WithTaskRunner(runner), runtime.WithErrorHandler(func(err error) {
		handled = append(handled, err)
	}))

	require.NoError(t, e.Run(ctx))
	runner.finish(0, errLoad)

	require.Len(t, handled, 1)
	assert.ErrorIs(t, handled[0], errLoad)
	var hookErr *domain.HookError
	require.ErrorAs(t, handled[0], &hookErr)
	assert.Equal(t, domain.StageTask, hookErr.Stage)
	assert.Equal(t, "load", hookErr.Node)
	assert.Equal(t, []string{"load"}, e.Snapshot().LeafIDs())
}

func TestEngine_TaskContextCanceledOnReset(t *testing.T) {
	runner := &manualRunner{}
	e := newEngine(t, func(f *dsl.Factory) {
		i := f.Initial("init")
		end := f.Final("end")
		load := f.TaskWait("load")
		i.Transition().Target(load)
		load.WaitingFor(noop).Target(end)
	}, runtime.WithTaskRunner(runner))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, e.Run(ctx))
	cancel()

	taskCtx := runner.pending[0].ctx
	assert.NoError(t, taskCtx.Err(), "task context outlives the Run call")

	require.NoError(t, e.Reset())
	assert.ErrorIs(t, taskCtx.Err(), context.Canceled)

	// Completion after reset is ignored.
	runner.finish(0, nil)
	assert.Equal(t, domain.StatusIdle, e.Status())
}

func TestEngine_GoRunner(t *testing.T) {
	release := make(chan struct{})
	e := newEngine(t, func(f *dsl.Factory) {
		i := f.Initial("init")
		end := f.Final("end")
		load := f.TaskWait("load")
		i.Transition().Target(load)
		load.WaitingFor(func(ctx context.Context) error {
			<-release
			return nil
		}).Target(end)
	})

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, domain.StatusActive, e.Status())

	close(release)
	require.Eventually(t, func() bool {
		return e.Status() == domain.StatusCompleted
	}, time.Second, 5*time.Millisecond)
}

func TestGoRunner_RecoversPanics(t *testing.T) {
	done := make(chan error, 1)
	runtime.GoRunner{}.Start(context.Background(), func(context.Context) error {
		panic("bad task")
	}, func(err error) { done <- err })

	select {
	case err := <-done:
		assert.ErrorContains(t, err, "bad task")
	case <-time.After(time.Second):
		t.Fatal("task did not report")
	}
}

func TestEngine_WaitActivitySplitJoins(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	var parent domain.Activity
	e := newEngine(t, func(f *dsl.Factory) {
		i := f.Initial("init")
		end := f.Final("end")
		dialog := f.Wait("dialog")
		i.Transition().Target(dialog)
		dialog.WaitingFor(func(a domain.Activity) {
			mu.Lock()
			parent = a
			mu.Unlock()
		}).Target(end)
	})

	require.NoError(t, e.Run(ctx))
	require.NotNil(t, parent)
	child := parent.Split()
	assert.NotEqual(t, parent.ID(), child.ID())

	parent.Complete()
	assert.True(t, parent.Completed())
	assert.Equal(t, domain.StatusActive, e.Status(), "child activity still pending")

	parent.Complete()
	assert.Equal(t, domain.StatusActive, e.Status())

	child.Complete()
	assert.Equal(t, domain.StatusCompleted, e.Status())
}

func TestEngine_WaitCompletedDuringEntry(t *testing.T) {
	rec := &recorder{}
	e := newEngine(t, func(f *dsl.Factory) {
		i := f.Initial("init")
		f.Final("end")
		confirm := f.Wait("confirm").OnExit(rec.hook("exit confirm"))
		next := f.State("next").OnEnter(rec.hook("enter next"))
		i.Transition().Target(confirm)
		confirm.WaitingFor(func(a domain.Activity) { a.Complete() }).Target(next)
	})

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, []string{"next"}, e.Snapshot().LeafIDs())
	assert.Equal(t, []string{"exit confirm", "enter next"}, rec.log())
}

func TestEngine_StaleActivityAfterEvent(t *testing.T) {
	ctx := context.Background()
	var act domain.Activity
	var reasons []domain.DropReason
	rec := &recorder{}
	e := newEngine(t, func(f *dsl.Factory) {
		i := f.Initial("init")
		f.Final("end")
		dialog := f.Wait("dialog")
		confirmed := f.State("confirmed").OnEnter(rec.hook("enter confirmed"))
		closed := f.State("closed")
		i.Transition().Target(dialog)
		dialog.WaitingFor(func(a domain.Activity) { act = a }).Target(confirmed)
		dialog.Event("timeout").Target(closed)
	}, runtime.WithLifecycleHooks(drops(&reasons)))

	require.NoError(t, e.Run(ctx))
	require.NoError(t, e.Trigger(ctx, "timeout"))
	act.Complete()

	assert.Equal(t, []string{"closed"}, e.Snapshot().LeafIDs())
	assert.Empty(t, rec.log())
	assert.Equal(t, []domain.DropReason{domain.DropStale}, reasons)
}

func TestEngine_PauseParksCompletions(t *testing.T) {
	ctx := context.Background()
	runner := &manualRunner{}
	e := newEngine(t, func(f *dsl.Factory) {
		i := f.Initial("init")
		end := f.Final("end")
		load := f.TaskWait("load")
		i.Transition().Target(load)
		load.WaitingFor(noop).Target(end)
	}, runtime.WithTaskRunner(runner))

	require.NoError(t, e.Run(ctx))
	e.Pause()
	runner.finish(0, nil)
	assert.Equal(t, []string{"load"}, e.Snapshot().LeafIDs())

	require.NoError(t, e.Run(ctx))
	assert.Equal(t, domain.StatusCompleted, e.Status())
}

// mailbox defers completions until the test flushes them.
type mailbox struct {
	mu  sync.Mutex
	fns []func()
}

func (m *mailbox) Schedule(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fns = append(m.fns, fn)
}

func (m *mailbox) flush() {
	m.mu.Lock()
	fns := m.fns
	m.fns = nil
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func TestEngine_CompletionsGoThroughScheduler(t *testing.T) {
	box := &mailbox{}
	var act domain.Activity
	e := newEngine(t, func(f *dsl.Factory) {
		i := f.Initial("init")
		end := f.Final("end")
		w := f.Wait("w")
		i.Transition().Target(w)
		w.WaitingFor(func(a domain.Activity) { act = a }).Target(end)
	}, runtime.WithScheduler(box))

	require.NoError(t, e.Run(context.Background()))
	act.Complete()
	assert.Equal(t, domain.StatusActive, e.Status())

	box.flush()
	assert.Equal(t, domain.StatusCompleted, e.Status())
}
