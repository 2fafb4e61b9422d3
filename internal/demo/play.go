package demo

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/statechart/internal/config"
	"github.com/aretw0/statechart/internal/logging"
	"github.com/aretw0/statechart/pkg/ports"
	"github.com/aretw0/statechart/pkg/runner"
)

//go:embed scenario.yaml
var defaultScenario []byte

// DefaultStepTimeout bounds await and complete steps.
const DefaultStepTimeout = 5 * time.Second

const pollInterval = 10 * time.Millisecond

// DefaultScenario plays a full session: connect, one match, logout.
func DefaultScenario() *config.Scenario {
	sc, err := config.ParseScenario(defaultScenario)
	if err != nil {
		panic(fmt.Sprintf("demo: invalid embedded scenario: %v", err))
	}
	return sc
}

// Play runs the steps of sc against engine.
func Play(ctx context.Context, engine ports.Engine, acts *Activities, sc *config.Scenario, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With("scenario", sc.Name)

	for i, step := range sc.Steps {
		if err := play(ctx, engine, acts, step); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		logger.Debug("step done", "step", i+1, "leaves", engine.Snapshot().LeafIDs())
	}
	return nil
}

func play(ctx context.Context, engine ports.Engine, acts *Activities, step config.Step) error {
	switch {
	case step.Trigger != "":
		ev, err := runner.SanitizeEvent(step.Trigger)
		if err != nil {
			return err
		}
		return engine.Trigger(ctx, ev)

	case step.Complete != "":
		ctx, cancel := context.WithTimeout(ctx, DefaultStepTimeout)
		defer cancel()
		if _, err := acts.Complete(ctx, step.Complete); err != nil {
			return fmt.Errorf("complete %q: %w", step.Complete, err)
		}
		return nil

	case step.Await != "":
		ctx, cancel := context.WithTimeout(ctx, DefaultStepTimeout)
		defer cancel()
		return await(ctx, engine, step.Await)
	}

	t := time.NewTimer(step.Sleep)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func await(ctx context.Context, engine ports.Engine, nodeID string) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if snap := engine.Snapshot(); snap != nil && snap.IsActive(nodeID) {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return fmt.Errorf("await %q: %w", nodeID, ctx.Err())
		}
	}
}
