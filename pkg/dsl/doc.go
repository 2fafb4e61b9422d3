/*
Package dsl provides the builder used to declare statecharts in Go.

Every scope (the root, a nest, or one region of a split) is described by a Setup
function that receives a Factory. The factory has one method per node kind and
returns typed handles used to attach hooks and transitions.

Example usage:

	package main

	import (
		"github.com/aretw0/statechart"
		"github.com/aretw0/statechart/pkg/dsl"
	)

	func main() {
		engine, err := statechart.New("menu", func(f *dsl.Factory) {
			initial := f.Initial("init")
			final := f.Final("end")
			lobby := f.State("lobby")
			match := f.Nest("match")

			initial.Transition().Target(lobby)
			lobby.Event("play").Target(match)
			match.Nest(func(m *dsl.Factory) {
				mi := m.Initial("init")
				mf := m.Final("end")
				mi.Transition().Target(mf)
			}).Target(final)
		})
		// ...
	}

Declaration mistakes (a choice without fallback, an unreachable node, a duplicate
event, ...) are all reported by Build as *domain.ConfigurationError values joined
with errors.Join. Each error carries the file:line of the offending builder call.
*/
package dsl
