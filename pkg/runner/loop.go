package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/statechart/internal/logging"
	"github.com/aretw0/statechart/pkg/domain"
	"github.com/aretw0/statechart/pkg/ports"
)

// ErrStopped is returned for calls made after the Loop was stopped.
var ErrStopped = errors.New("runner loop stopped")

// Machine is the part of a statechart engine a Loop drives.
// *statechart.Engine satisfies it.
type Machine interface {
	Run(ctx context.Context) error
	Trigger(ctx context.Context, ev domain.Event) error
	Pause()
	Reset() error
	Snapshot() *domain.Snapshot
	Inspect() []domain.Node
}

// Recorder persists snapshots, see session.Manager.
type Recorder interface {
	Record(ctx context.Context, snap *domain.Snapshot) error
}

// ChangeFunc observes configuration changes. It runs on the loop goroutine.
type ChangeFunc func(snap *domain.Snapshot, diff *domain.SnapshotDiff)

// Loop serializes every access to a Machine on one goroutine.
type Loop struct {
	logger    *slog.Logger
	recorder  Recorder
	size      int
	listeners []ChangeFunc

	mu      sync.Mutex
	machine Machine
	mailbox chan func()
	quit    chan struct{}
	done    chan struct{}
	stop    sync.Once

	// last is only touched on the loop goroutine.
	last *domain.Snapshot
}

var (
	_ ports.Engine    = (*Loop)(nil)
	_ ports.Scheduler = (*Loop)(nil)
)

// NewLoop creates a Loop. It does nothing until Start.
func NewLoop(opts ...Option) *Loop {
	l := &Loop{
		size: DefaultMailboxSize,
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logging.NewNop()
	}
	l.mailbox = make(chan func(), l.size)
	return l
}

// OnChange registers a callback for configuration changes after construction.
func (l *Loop) OnChange(fn ChangeFunc) {
	l.Post(func() {
		l.listeners = append(l.listeners, fn)
	})
}

// Start launches the loop goroutine and runs the machine on it.
func (l *Loop) Start(ctx context.Context, m Machine) error {
	l.mu.Lock()
	if l.machine != nil {
		l.mu.Unlock()
		return domain.ErrAlreadyRunning
	}
	l.machine = m
	l.mu.Unlock()

	go l.serve()
	return l.Do(ctx, func(m Machine) error {
		return m.Run(ctx)
	})
}

func (l *Loop) serve() {
	defer close(l.done)
	for {
		select {
		case fn := <-l.mailbox:
			l.call(fn)
		case <-l.quit:
			return
		}
	}
}

// call runs fn and reports the change it caused. A panic escaping the machine is
// logged and swallowed so the loop keeps serving.
func (l *Loop) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("runner call panicked", "panic", fmt.Sprint(r))
		}
	}()
	fn()
	l.observe()
}

func (l *Loop) observe() {
	snap := l.machine.Snapshot()
	diff := domain.Diff(l.last, snap)
	if diff == nil {
		return
	}
	if l.last != nil && l.last.RunID != snap.RunID {
		diff = domain.Diff(nil, snap)
	}
	l.last = snap

	l.logger.Debug("configuration changed",
		"run_id", snap.RunID, "status", snap.Status, "leaves", snap.LeafIDs())

	if l.recorder != nil && snap.RunID != "" {
		if err := l.recorder.Record(context.Background(), snap); err != nil {
			l.logger.Error("failed to record snapshot", "run_id", snap.RunID, "err", err)
		}
	}
	for _, fn := range l.listeners {
		fn(snap, diff)
	}
}

// Do runs fn on the loop goroutine and waits for its result.
func (l *Loop) Do(ctx context.Context, fn func(Machine) error) error {
	result := make(chan error, 1)
	call := func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("runner call panicked: %v", r)
			}
		}()
		result <- fn(l.machine)
	}

	select {
	case l.mailbox <- call:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.quit:
		return ErrStopped
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// Post queues fn without waiting. It never blocks, so it is safe to call from
// the loop goroutine itself.
func (l *Loop) Post(fn func()) {
	select {
	case l.mailbox <- fn:
	case <-l.quit:
	default:
		go func() {
			select {
			case l.mailbox <- fn:
			case <-l.quit:
			}
		}()
	}
}

// Schedule implements ports.Scheduler.
func (l *Loop) Schedule(fn func()) {
	l.Post(fn)
}

// Trigger implements ports.Engine.
func (l *Loop) Trigger(ctx context.Context, ev domain.Event) error {
	return l.Do(ctx, func(m Machine) error {
		return m.Trigger(ctx, ev)
	})
}

// Snapshot implements ports.Engine. It returns nil once the loop is stopped.
func (l *Loop) Snapshot() *domain.Snapshot {
	var snap *domain.Snapshot
	err := l.Do(context.Background(), func(m Machine) error {
		snap = m.Snapshot()
		return nil
	})
	if err != nil {
		return nil
	}
	return snap
}

// Inspect implements ports.Engine. The graph is immutable, so it is read directly.
func (l *Loop) Inspect() []domain.Node {
	l.mu.Lock()
	m := l.machine
	l.mu.Unlock()
	if m == nil {
		return nil
	}
	return m.Inspect()
}

// Run starts the machine again after Reset, or resumes it after Pause.
func (l *Loop) Run(ctx context.Context) error {
	return l.Do(ctx, func(m Machine) error {
		return m.Run(ctx)
	})
}

// Pause stops event processing on the machine.
func (l *Loop) Pause(ctx context.Context) error {
	return l.Do(ctx, func(m Machine) error {
		m.Pause()
		return nil
	})
}

// Reset discards the active configuration and starts a fresh run.
func (l *Loop) Reset(ctx context.Context) error {
	return l.Do(ctx, func(m Machine) error {
		if err := m.Reset(); err != nil {
			return err
		}
		return m.Run(ctx)
	})
}

// Stop terminates the loop goroutine. Pending calls are abandoned.
func (l *Loop) Stop() {
	l.stop.Do(func() {
		close(l.quit)
	})
	l.mu.Lock()
	started := l.machine != nil
	l.mu.Unlock()
	if started {
		<-l.done
	}
}

// Done is closed when the loop goroutine exits.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
