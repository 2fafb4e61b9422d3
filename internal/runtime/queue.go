package runtime

import (
	"context"

	"github.com/aretw0/statechart/pkg/domain"
)

type itemKind int

const (
	itemStart itemKind = iota
	itemEvent
	itemCompletion
	itemResume
)

// item is one unit of work in the dispatch queue.
type item struct {
	kind       itemKind
	event      domain.Event
	activation uint64
	err        error
}

// drain processes queued items until the queue is empty. Items enqueued by
// hooks while draining are picked up by the same loop, in FIFO order.
func (e *Engine) drain(ctx context.Context) error {
	defer func() {
		if r := recover(); r != nil {
			e.abort()
			panic(r)
		}
	}()

	for {
		e.mu.Lock()
		if len(e.queue) == 0 {
			e.draining = false
			e.mu.Unlock()
			return nil
		}
		it := e.queue[0]
		e.queue = e.queue[1:]
		e.mu.Unlock()

		if err := e.process(ctx, it); err != nil {
			e.abort()
			return err
		}
	}
}

// abort discards pending items after a failed step.
func (e *Engine) abort() {
	e.mu.Lock()
	if n := len(e.queue); n > 0 {
		e.logger.Debug("discarding queued items", "count", n)
	}
	e.queue = nil
	e.draining = false
	e.mu.Unlock()
}

func (e *Engine) process(ctx context.Context, it item) error {
	switch it.kind {
	case itemStart:
		return e.start(ctx)
	case itemCompletion:
		return e.resume(ctx, it)
	case itemResume:
		return e.join(ctx)
	}

	if e.Status() != domain.StatusActive {
		e.drop(ctx, it, domain.DropInactive)
		return nil
	}
	matched := false
	if it.event != "" {
		var err error
		if matched, err = e.offer(ctx, e.root, it.event); err != nil {
			return err
		}
	}
	if !matched {
		e.drop(ctx, it, domain.DropUnmatched)
		return nil
	}
	return e.join(ctx)
}

func (e *Engine) start(ctx context.Context) error {
	e.root = &region{scope: e.graph.Root}
	e.logger.Debug("starting", "run_id", e.runID)
	if err := e.enter(ctx, e.root, e.graph.Root.Initial()); err != nil {
		return err
	}
	return e.join(ctx)
}
