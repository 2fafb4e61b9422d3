/*
Package statechart is a hierarchical, concurrent state machine engine for Go.

A chart is declared once with the builder in pkg/dsl and then driven by an external
stream of events. The engine supports nested composite states, parallel regions
with fork/join semantics, guarded pseudostates, and states that suspend until
asynchronous work completes.

# Concept

The host owns every side effect. Hooks, guards and tasks are plain Go closures
registered at build time; the engine only decides which of them run and in what
order. The graph is immutable after New returns, and the active configuration is
mutated by a single dispatch loop at a time.

# Key Features

  - Re-entrant Trigger: hooks may trigger further events, which are queued and
    processed in FIFO order before the outer call returns.
  - Split/Join: an event is offered to every live region; the split's transition
    fires exactly once, after its last region reached its final node.
  - Suspension: Wait nodes hand an Activity to the host, TaskWait nodes run a task.
    Completions for node instances that are no longer active are discarded.
  - Strict Construction: unreachable nodes, choices without a fallback and duplicate
    events are reported by New, with the file:line of the offending declaration.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/statechart"
		"github.com/aretw0/statechart/pkg/dsl"
	)

	func main() {
		engine, err := statechart.New("door", func(f *dsl.Factory) {
			initial := f.Initial("init")
			final := f.Final("end")
			closed := f.State("closed")
			open := f.State("open")

			initial.Transition().Target(closed)
			closed.Event("open").Target(open)
			open.Event("close").Target(closed)
			open.Event("remove").Target(final)
		})
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		if err := engine.Run(ctx); err != nil {
			log.Fatal(err)
		}
		_ = engine.Trigger(ctx, "open")
		log.Println(engine.Debug())
	}
*/
package statechart
