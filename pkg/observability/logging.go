package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/statechart/pkg/domain"
)

// LoggingHooks writes observer events to logger at Info level, and failed hooks at Error.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "node_enter", "chart", e.Chart, "node_id", e.NodeID, "kind", e.Kind, "activation", e.Activation)
		},
		OnNodeExit: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "node_exit", "chart", e.Chart, "node_id", e.NodeID, "activation", e.Activation)
		},
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.InfoContext(ctx, "transition", "chart", e.Chart, "event", e.Event, "from", e.From, "to", e.To, "loop", e.Loop)
		},
		OnHookEnd: func(ctx context.Context, e *domain.HookEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, "hook_failed", "chart", e.Chart, "node_id", e.NodeID, "stage", e.Stage, "error", e.Err)
			}
		},
		OnDrop: func(ctx context.Context, e *domain.DropEvent) {
			logger.InfoContext(ctx, "dropped", "chart", e.Chart, "event", e.Event, "reason", e.Reason)
		},
	}
}
