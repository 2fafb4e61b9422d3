package validator_test

import (
	"testing"

	"github.com/aretw0/statechart/pkg/domain"
	"github.com/aretw0/statechart/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func always() bool { return true }

func TestValidate_ValidChart(t *testing.T) {
	_, err := dsl.Build("valid", func(f *dsl.Factory) {
		initial := f.Initial("init")
		final := f.Final("end")
		menu := f.State("menu")
		check := f.Choice("check")
		match := f.Split("match")

		initial.Transition().Target(menu)
		menu.Event("play").Target(check)
		menu.Event("noop").OnTransition(nil)
		check.Transition().Condition(always).Target(match)
		check.Transition().Target(menu)
		match.Split(
			func(r *dsl.Factory) {
				ri := r.Initial("init")
				rf := r.Final("end")
				ri.Transition().Target(rf)
			},
			func(r *dsl.Factory) {
				ri := r.Initial("init")
				rf := r.Final("end")
				quit := r.Leave("quit")
				wait := r.State("wait")
				ri.Transition().Target(wait)
				wait.Event("done").Target(rf)
				wait.Event("quit").Target(quit)
				quit.Transition().Target(final)
			},
		).Target(final)
	})
	require.NoError(t, err)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		setup  dsl.Setup
		reason string
	}{
		{
			name: "Missing Initial",
			setup: func(f *dsl.Factory) {
				f.Final("end")
			},
			reason: "missing initial node",
		},
		{
			name: "Two Finals",
			setup: func(f *dsl.Factory) {
				i := f.Initial("init")
				a := f.Final("a")
				f.Final("b")
				i.Transition().Target(a)
			},
			reason: "2 final nodes",
		},
		{
			name: "Choice Without Fallback",
			setup: func(f *dsl.Factory) {
				i := f.Initial("init")
				end := f.Final("end")
				c := f.Choice("check")
				i.Transition().Target(c)
				c.Transition().Condition(always).Target(end)
			},
			reason: "no unguarded fallback",
		},
		{
			name: "Unreachable State",
			setup: func(f *dsl.Factory) {
				i := f.Initial("init")
				end := f.Final("end")
				orphan := f.State("orphan")
				i.Transition().Target(end)
				orphan.Event("go").Target(end)
			},
			reason: "unreachable",
		},
		{
			name: "Duplicate Event",
			setup: func(f *dsl.Factory) {
				i := f.Initial("init")
				end := f.Final("end")
				s := f.State("menu")
				i.Transition().Target(s)
				s.Event("go").Target(end)
				s.Event("go").OnTransition(nil)
			},
			reason: "duplicate transition for event \"go\"",
		},
		{
			name: "Split With One Region",
			setup: func(f *dsl.Factory) {
				i := f.Initial("init")
				end := f.Final("end")
				sp := f.Split("match")
				i.Transition().Target(sp)
				sp.Split(func(r *dsl.Factory) {
					ri := r.Initial("init")
					rf := r.Final("end")
					ri.Transition().Target(rf)
				}).Target(end)
			},
			reason: "at least 2 regions",
		},
		{
			name: "Composite Targets Itself",
			setup: func(f *dsl.Factory) {
				i := f.Initial("init")
				end := f.Final("end")
				n := f.Nest("menu")
				i.Transition().Target(n)
				n.Event("again").Target(n)
				n.Nest(func(r *dsl.Factory) {
					ri := r.Initial("init")
					rf := r.Final("end")
					ri.Transition().Target(rf)
				}).Target(end)
			},
			reason: "targets the composite itself",
		},
		{
			name: "Leave Inside Own Scope",
			setup: func(f *dsl.Factory) {
				i := f.Initial("init")
				end := f.Final("end")
				l := f.Leave("quit")
				i.Transition().Target(l)
				l.Transition().Target(end)
			},
			reason: "enclosing scope",
		},
		{
			name: "Target Outside Scope",
			setup: func(f *dsl.Factory) {
				i := f.Initial("init")
				end := f.Final("end")
				n := f.Nest("menu")
				i.Transition().Target(n)
				n.Nest(func(r *dsl.Factory) {
					ri := r.Initial("init")
					r.Final("end")
					ri.Transition().Target(end)
				}).Target(end)
			},
			reason: "outside the scope",
		},
		{
			name: "Nested Twice",
			setup: func(f *dsl.Factory) {
				i := f.Initial("init")
				end := f.Final("end")
				n := f.Nest("menu")
				inner := func(r *dsl.Factory) {
					ri := r.Initial("init")
					rf := r.Final("end")
					ri.Transition().Target(rf)
				}
				i.Transition().Target(n)
				n.Nest(inner).Target(end)
				n.Nest(inner)
			},
			reason: "nested more than once",
		},
		{
			name: "Wait Without WaitingFor",
			setup: func(f *dsl.Factory) {
				i := f.Initial("init")
				f.Final("end")
				w := f.Wait("dialog")
				i.Transition().Target(w)
			},
			reason: "has no WaitingFor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dsl.Build(tt.name, tt.setup)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidChart)
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestValidate_ReportsOrigin(t *testing.T) {
	_, err := dsl.Build("origin", func(f *dsl.Factory) {
		i := f.Initial("init")
		f.Final("end")
		s := f.State("menu")
		i.Transition().Target(s)
		s.Event("go").Target(s)
		s.Event("go").Target(s)
	})
	require.Error(t, err)

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "menu", cfgErr.Node)
	assert.Contains(t, cfgErr.Origin, "validator_test.go:")
}

func TestValidate_LeaveTargetIsReachable(t *testing.T) {
	_, err := dsl.Build("escape", func(f *dsl.Factory) {
		i := f.Initial("init")
		end := f.Final("end")
		menu := f.Nest("menu")
		lobby := f.State("lobby")

		i.Transition().Target(menu)
		menu.Nest(func(n *dsl.Factory) {
			ni := n.Initial("init")
			nf := n.Final("end")
			quit := n.Leave("quit")
			ni.Transition().Target(quit)
			quit.Transition().Target(lobby)
			_ = nf
		}).Target(end)
		lobby.Event("done").Target(end)
	})
	require.NoError(t, err)
}
