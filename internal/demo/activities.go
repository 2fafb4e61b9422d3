package demo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/statechart/pkg/domain"
)

// Activities collects the activities handed out by Wait nodes so a script or a
// human can complete them by name.
type Activities struct {
	mu      sync.Mutex
	pending map[string][]domain.Activity
	changed chan struct{}
}

// NewActivities creates an empty registry.
func NewActivities() *Activities {
	return &Activities{
		pending: make(map[string][]domain.Activity),
		changed: make(chan struct{}),
	}
}

// Register returns a WaitingFor function that files activities under name.
func (a *Activities) Register(name string) func(domain.Activity) {
	return func(act domain.Activity) {
		a.mu.Lock()
		a.pending[name] = append(a.pending[name], act)
		close(a.changed)
		a.changed = make(chan struct{})
		a.mu.Unlock()
	}
}

// Pending lists the names with at least one activity left to complete.
func (a *Activities) Pending() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	names := make([]string, 0, len(a.pending))
	for name, acts := range a.pending {
		for _, act := range acts {
			if !act.Completed() {
				names = append(names, name)
				break
			}
		}
	}
	sort.Strings(names)
	return names
}

// Complete finishes every activity filed under name, waiting for one to be
// registered if none is pending yet. It returns how many were completed.
func (a *Activities) Complete(ctx context.Context, name string) (int, error) {
	for {
		a.mu.Lock()
		acts := a.pending[name]
		delete(a.pending, name)
		changed := a.changed
		a.mu.Unlock()

		n := 0
		for _, act := range acts {
			if !act.Completed() {
				act.Complete()
				n++
			}
		}
		if n > 0 {
			return n, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// AutoComplete completes the named activities after delay each time they are
// handed out, until ctx is done. Interactive sessions use it in place of a
// real backend.
func (a *Activities) AutoComplete(ctx context.Context, delay time.Duration, names ...string) {
	for _, name := range names {
		go func() {
			for {
				if err := a.await(ctx, name); err != nil {
					return
				}
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return
				}
				if _, err := a.Complete(ctx, name); err != nil {
					return
				}
			}
		}()
	}
}

// await blocks until an uncompleted activity is filed under name.
func (a *Activities) await(ctx context.Context, name string) error {
	for {
		a.mu.Lock()
		changed := a.changed
		pending := false
		for _, act := range a.pending[name] {
			if !act.Completed() {
				pending = true
				break
			}
		}
		a.mu.Unlock()

		if pending {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
