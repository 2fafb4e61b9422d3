package observability

import (
	"context"
	"errors"

	"github.com/aretw0/statechart/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by the engine hooks.
type Metrics struct {
	NodeEnters   *prometheus.CounterVec
	Transitions  *prometheus.CounterVec
	HookDuration *prometheus.HistogramVec
	HookErrors   *prometheus.CounterVec
	Drops        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// Collectors already registered by another engine are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		NodeEnters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statechart_node_enters_total",
				Help: "Total number of node activations",
			},
			[]string{"chart", "node_id", "kind"},
		),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statechart_transitions_total",
				Help: "Total number of transitions taken",
			},
			[]string{"chart", "from", "to"},
		),
		HookDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "statechart_hook_duration_seconds",
				Help:    "Duration of host hook executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"chart", "stage"},
		),
		HookErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statechart_hook_errors_total",
				Help: "Total number of host hooks that returned an error",
			},
			[]string{"chart", "stage"},
		),
		Drops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statechart_dropped_total",
				Help: "Events and completions that had no effect",
			},
			[]string{"chart", "reason"},
		),
	}

	var err error
	m.NodeEnters, err = register(reg, m.NodeEnters)
	if err != nil {
		return nil, err
	}
	m.Transitions, err = register(reg, m.Transitions)
	if err != nil {
		return nil, err
	}
	m.HookDuration, err = register(reg, m.HookDuration)
	if err != nil {
		return nil, err
	}
	m.HookErrors, err = register(reg, m.HookErrors)
	if err != nil {
		return nil, err
	}
	m.Drops, err = register(reg, m.Drops)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Hooks returns the lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeEnters.WithLabelValues(e.Chart, e.NodeID, string(e.Kind)).Inc()
		},
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			if e.Loop || e.To == "" {
				return
			}
			m.Transitions.WithLabelValues(e.Chart, e.From, e.To).Inc()
		},
		OnHookEnd: func(_ context.Context, e *domain.HookEvent) {
			m.HookDuration.WithLabelValues(e.Chart, string(e.Stage)).Observe(e.Duration.Seconds())
			if e.Err != nil {
				m.HookErrors.WithLabelValues(e.Chart, string(e.Stage)).Inc()
			}
		},
		OnDrop: func(_ context.Context, e *domain.DropEvent) {
			m.Drops.WithLabelValues(e.Chart, string(e.Reason)).Inc()
		},
	}
}
