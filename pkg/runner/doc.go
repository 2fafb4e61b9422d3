/*
Package runner owns a statechart engine on a single goroutine and exposes it to
concurrent callers.

The engine is not safe for concurrent use: events, completions and snapshot reads
must all happen on the goroutine that drives it. A Loop is that goroutine. Every
call is posted to its mailbox and executed in arrival order, so adapters (HTTP,
MCP, the interactive console) can share one engine without extra locking.

# Key Components

  - Loop: the mailbox goroutine. It implements ports.Engine for adapters and
    ports.Scheduler so task and activity completions are marshalled back onto it.
  - Console: reads event names line by line and triggers them through a Loop.
  - SignalManager: turns SIGINT/SIGTERM into context cancellation.

# Usage

	loop := runner.NewLoop(runner.WithLogger(logger))
	engine, err := statechart.New("door", door, statechart.WithScheduler(loop))
	if err != nil {
		log.Fatal(err)
	}

	if err := loop.Start(ctx, engine); err != nil {
		log.Fatal(err)
	}
	defer loop.Stop()

	_ = loop.Trigger(ctx, "open")
*/
package runner
