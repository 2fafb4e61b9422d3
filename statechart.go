package statechart

import (
	"context"
	"log/slog"

	"github.com/aretw0/statechart/internal/logging"
	"github.com/aretw0/statechart/internal/runtime"
	"github.com/aretw0/statechart/pkg/domain"
	"github.com/aretw0/statechart/pkg/dsl"
	"github.com/aretw0/statechart/pkg/ports"
)

// Engine is the high-level entry point for the statechart library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime     *runtime.Engine
	runtimeOpts []runtime.Option
	logger      *slog.Logger
	Name        string
}

var _ ports.Engine = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. It can be passed several times.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithLifecycleHooks(hooks))
	}
}

// WithTaskRunner replaces the runner used for TaskWait nodes. By default each task
// runs on its own goroutine.
func WithTaskRunner(r ports.TaskRunner) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithTaskRunner(r))
	}
}

// WithScheduler routes task and activity completions through s, typically a
// runner.Loop that owns the engine.
func WithScheduler(s ports.Scheduler) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithScheduler(s))
	}
}

// WithErrorHandler receives hook or task errors raised while processing a
// completion, since those have no Trigger caller to return to.
func WithErrorHandler(fn func(error)) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithErrorHandler(fn))
	}
}

// New builds and validates the chart, returning an idle engine.
// Construction problems are returned as *domain.ConfigurationError values joined
// together; errors.Is(err, domain.ErrInvalidChart) reports any of them.
func New(name string, setup dsl.Setup, opts ...Option) (*Engine, error) {
	eng := &Engine{Name: name}
	for _, opt := range opts {
		opt(eng)
	}

	graph, err := dsl.Build(name, setup)
	if err != nil {
		return nil, err
	}

	// Ensure logger is initialized so the runtime default is not replaced by nil.
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	eng.logger = eng.logger.With("chart", name)

	runtimeOpts := append([]runtime.Option{runtime.WithLogger(eng.logger)}, eng.runtimeOpts...)
	eng.runtime = runtime.NewEngine(graph, runtimeOpts...)
	return eng, nil
}

// Validate builds the chart and reports construction errors without creating an engine.
func Validate(name string, setup dsl.Setup) error {
	_, err := dsl.Build(name, setup)
	return err
}

// Run starts the chart, or resumes it after Pause.
func (e *Engine) Run(ctx context.Context) error {
	return e.runtime.Run(ctx)
}

// Trigger dispatches an event. Unknown events are ignored.
func (e *Engine) Trigger(ctx context.Context, ev domain.Event) error {
	return e.runtime.Trigger(ctx, ev)
}

// Pause stops event processing until Run is called again.
func (e *Engine) Pause() {
	e.runtime.Pause()
}

// Reset discards the active configuration without running hooks.
func (e *Engine) Reset() error {
	return e.runtime.Reset()
}

// Status returns the lifecycle phase of the chart.
func (e *Engine) Status() domain.Status {
	return e.runtime.Status()
}

// RunID identifies the current run.
func (e *Engine) RunID() string {
	return e.runtime.RunID()
}

// Snapshot returns the active configuration.
func (e *Engine) Snapshot() *domain.Snapshot {
	return e.runtime.Snapshot()
}

// Debug renders the active configuration as an indented tree.
func (e *Engine) Debug() string {
	return e.runtime.Debug()
}

// Inspect returns the full graph definition for visualization or introspection tools.
func (e *Engine) Inspect() []domain.Node {
	return e.runtime.Inspect()
}
