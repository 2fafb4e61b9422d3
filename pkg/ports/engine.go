package ports

import (
	"context"

	"github.com/aretw0/statechart/pkg/domain"
)

// Engine is the interface adapters (HTTP, MCP) use to drive a running chart.
type Engine interface {
	// Trigger dispatches one event through the active configuration.
	Trigger(ctx context.Context, ev domain.Event) error

	// Snapshot returns the current active configuration.
	Snapshot() *domain.Snapshot

	// Inspect returns the static description of every node.
	Inspect() []domain.Node
}
