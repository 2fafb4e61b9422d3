package observability

import (
	"context"
	"sync"

	"github.com/aretw0/statechart/pkg/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type hookKey struct {
	run   string
	node  string
	stage domain.HookStage
	index int
}

// TracingHooks emits a span for every host hook and records transitions and
// dropped items as span events on an instant "statechart.dispatch" span.
func TracingHooks(tracer trace.Tracer) domain.LifecycleHooks {
	var mu sync.Mutex
	open := make(map[hookKey]trace.Span)

	keyOf := func(e *domain.HookEvent) hookKey {
		return hookKey{run: e.RunID, node: e.NodeID, stage: e.Stage, index: e.Index}
	}

	return domain.LifecycleHooks{
		OnHookStart: func(ctx context.Context, e *domain.HookEvent) {
			_, span := tracer.Start(ctx, "statechart.hook "+string(e.Stage),
				trace.WithTimestamp(e.Timestamp),
				trace.WithAttributes(
					attribute.String("statechart.chart", e.Chart),
					attribute.String("statechart.run_id", e.RunID),
					attribute.String("statechart.node_id", e.NodeID),
					attribute.String("statechart.stage", string(e.Stage)),
					attribute.Int("statechart.hook_index", e.Index),
				),
			)
			mu.Lock()
			open[keyOf(e)] = span
			mu.Unlock()
		},
		OnHookEnd: func(_ context.Context, e *domain.HookEvent) {
			mu.Lock()
			span, ok := open[keyOf(e)]
			delete(open, keyOf(e))
			mu.Unlock()
			if !ok {
				return
			}
			if e.Err != nil {
				span.RecordError(e.Err)
				span.SetStatus(codes.Error, e.Err.Error())
			}
			span.End(trace.WithTimestamp(e.Timestamp))
		},
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			_, span := tracer.Start(ctx, "statechart.transition", trace.WithTimestamp(e.Timestamp))
			span.SetAttributes(
				attribute.String("statechart.chart", e.Chart),
				attribute.String("statechart.event", string(e.Event)),
				attribute.String("statechart.from", e.From),
				attribute.String("statechart.to", e.To),
				attribute.Bool("statechart.loop", e.Loop),
			)
			span.End(trace.WithTimestamp(e.Timestamp))
		},
		OnDrop: func(ctx context.Context, e *domain.DropEvent) {
			span := trace.SpanFromContext(ctx)
			span.AddEvent("statechart.drop", trace.WithAttributes(
				attribute.String("statechart.event", string(e.Event)),
				attribute.String("statechart.reason", string(e.Reason)),
			))
		},
	}
}
