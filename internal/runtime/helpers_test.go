package runtime_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/statechart/internal/runtime"
	"github.com/aretw0/statechart/pkg/domain"
	"github.com/aretw0/statechart/pkg/dsl"
	"github.com/stretchr/testify/require"
)

// recorder collects hook executions in order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) hook(name string) domain.Action {
	return func(context.Context) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, name)
		return nil
	}
}

func (r *recorder) log() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) count(name string) int {
	n := 0
	for _, c := range r.log() {
		if c == name {
			n++
		}
	}
	return n
}

// manualRunner holds tasks until the test finishes them.
type manualRunner struct {
	mu      sync.Mutex
	pending []pendingTask
}

type pendingTask struct {
	ctx  context.Context
	done func(error)
}

func (m *manualRunner) Start(ctx context.Context, _ domain.Task, done func(error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, pendingTask{ctx: ctx, done: done})
}

func (m *manualRunner) finish(i int, err error) {
	m.mu.Lock()
	p := m.pending[i]
	m.mu.Unlock()
	p.done(err)
}

func (m *manualRunner) started() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func newEngine(t *testing.T, setup dsl.Setup, opts ...runtime.Option) *runtime.Engine {
	t.Helper()
	g, err := dsl.Build(t.Name(), setup)
	require.NoError(t, err)
	return runtime.NewEngine(g, opts...)
}

func noop(context.Context) error { return nil }

func never() bool  { return false }
func always() bool { return true }

func drops(reasons *[]domain.DropReason) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDrop: func(_ context.Context, e *domain.DropEvent) {
			*reasons = append(*reasons, e.Reason)
		},
	}
}
