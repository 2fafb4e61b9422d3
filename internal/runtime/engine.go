// Package runtime executes statecharts built by pkg/dsl.
//
// The Engine owns the active configuration of one chart. All mutation happens
// inside drain, which runs on whichever goroutine found the queue idle; every
// other entry point only enqueues.
package runtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/statechart/internal/logging"
	"github.com/aretw0/statechart/internal/model"
	"github.com/aretw0/statechart/pkg/domain"
	"github.com/aretw0/statechart/pkg/ports"
	"github.com/google/uuid"
)

// Engine is the statechart dispatcher.
type Engine struct {
	graph     *model.Graph
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	tasks     ports.TaskRunner
	scheduler ports.Scheduler
	onError   func(error)

	mu       sync.Mutex
	queue    []item
	parked   []item
	draining bool
	status   domain.Status
	runID    string
	runCtx   context.Context
	cancel   context.CancelFunc

	// Owned by the drain.
	root       *region
	live       map[uint64]*instance
	activation uint64
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets the structured logger used for debug traces.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observer callbacks. Calling it twice merges both sets.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = domain.MergeHooks(e.hooks, hooks)
	}
}

// WithTaskRunner replaces the runner used for TaskWait nodes (default GoRunner).
func WithTaskRunner(r ports.TaskRunner) Option {
	return func(e *Engine) {
		if r != nil {
			e.tasks = r
		}
	}
}

// WithScheduler replaces the scheduler completions are posted through (default: call directly).
func WithScheduler(s ports.Scheduler) Option {
	return func(e *Engine) {
		if s != nil {
			e.scheduler = s
		}
	}
}

// WithErrorHandler receives errors raised while draining a completion, which
// has no caller to return them to. The default logs them.
func WithErrorHandler(fn func(error)) Option {
	return func(e *Engine) {
		if fn != nil {
			e.onError = fn
		}
	}
}

// NewEngine creates an idle engine for a validated graph.
func NewEngine(g *model.Graph, opts ...Option) *Engine {
	e := &Engine{
		graph:     g,
		logger:    logging.NewNop(),
		tasks:     GoRunner{},
		scheduler: DirectScheduler{},
		status:    domain.StatusIdle,
		live:      make(map[uint64]*instance),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.onError == nil {
		e.onError = func(err error) {
			e.logger.Error("completion failed", "error", err)
		}
	}
	return e
}

// Name returns the chart name.
func (e *Engine) Name() string {
	return e.graph.Name
}

// Run starts the chart from the root initial node, or resumes a paused chart.
// It returns once the resulting cascade has been fully processed.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	switch e.status {
	case domain.StatusActive, domain.StatusCompleted:
		e.mu.Unlock()
		return domain.ErrAlreadyRunning
	case domain.StatusPaused:
		e.status = domain.StatusActive
		e.queue = append(e.queue, item{kind: itemResume})
		e.queue = append(e.queue, e.parked...)
		e.parked = nil
		e.logger.Debug("resuming", "run_id", e.runID)
	default:
		if e.draining {
			e.mu.Unlock()
			return domain.ErrAlreadyRunning
		}
		e.status = domain.StatusActive
		e.runID = uuid.NewString()
		e.runCtx, e.cancel = context.WithCancel(context.WithoutCancel(ctx))
		e.queue = append(e.queue, item{kind: itemStart})
	}
	return e.kick(ctx)
}

// Trigger dispatches an event through the active configuration.
// When called from a hook, the event is queued and processed after the current step.
func (e *Engine) Trigger(ctx context.Context, ev domain.Event) error {
	e.mu.Lock()
	if e.status == domain.StatusIdle {
		e.mu.Unlock()
		return domain.ErrNotRunning
	}
	e.queue = append(e.queue, item{kind: itemEvent, event: ev})
	return e.kick(ctx)
}

// kick drains the queue unless a drain is already in flight. It must be called with mu held.
func (e *Engine) kick(ctx context.Context) error {
	if e.draining {
		e.mu.Unlock()
		return nil
	}
	e.draining = true
	e.mu.Unlock()
	return e.drain(ctx)
}

// Pause stops event processing. Events are dropped and completions are held until Run.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status == domain.StatusActive {
		e.status = domain.StatusPaused
		e.logger.Debug("paused", "run_id", e.runID)
	}
}

// Reset discards the configuration without running any hook. Outstanding
// activities and tasks become stale and the task context is canceled.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.draining {
		return domain.ErrAlreadyRunning
	}
	if e.cancel != nil {
		e.cancel()
	}
	e.status = domain.StatusIdle
	e.queue = nil
	e.parked = nil
	e.runID = ""
	e.runCtx, e.cancel = nil, nil
	e.root = nil
	e.live = make(map[uint64]*instance)
	return nil
}

// Status returns the lifecycle phase of the chart.
func (e *Engine) Status() domain.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// RunID identifies the current run. It is empty while idle.
func (e *Engine) RunID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runID
}

func (e *Engine) setStatus(s domain.Status) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
}
