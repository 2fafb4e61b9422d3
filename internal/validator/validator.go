// Package validator detects construction errors in a chart before it can run.
package validator

import (
	"errors"
	"fmt"

	"github.com/aretw0/statechart/internal/model"
	"github.com/aretw0/statechart/pkg/domain"
)

// Validate checks every scope of the graph and returns all problems joined
// with errors.Join. Each problem is a *domain.ConfigurationError.
func Validate(g *model.Graph) error {
	v := &checker{}
	v.scope(g.Root)
	return errors.Join(v.errs...)
}

type checker struct {
	errs []error
}

func (v *checker) failScope(s *model.Scope, format string, args ...any) {
	v.errs = append(v.errs, &domain.ConfigurationError{
		Scope:  s.ID,
		Reason: fmt.Sprintf(format, args...),
	})
}

func (v *checker) fail(n *model.Node, origin, format string, args ...any) {
	if origin == "" {
		origin = n.Origin
	}
	v.errs = append(v.errs, &domain.ConfigurationError{
		Scope:  n.Scope.ID,
		Node:   n.ID,
		Origin: origin,
		Reason: fmt.Sprintf(format, args...),
	})
}

func (v *checker) scope(s *model.Scope) {
	var initials, finals int
	names := make(map[string]bool)

	for _, n := range s.Nodes {
		switch n.Kind {
		case domain.KindInitial:
			initials++
		case domain.KindFinal:
			finals++
		}
		if n.Name == "" {
			v.fail(n, "", "empty node name")
		} else if names[n.Name] {
			v.fail(n, "", "duplicate node name %q in scope", n.Name)
		}
		names[n.Name] = true

		v.node(n)
	}

	switch {
	case initials == 0:
		v.failScope(s, "missing initial node")
	case initials > 1:
		v.failScope(s, "%d initial nodes, expected exactly one", initials)
	}
	switch {
	case finals == 0:
		v.failScope(s, "missing final node")
	case finals > 1:
		v.failScope(s, "%d final nodes, expected exactly one", finals)
	}

	if initials == 1 {
		v.reachability(s)
	}

	for _, n := range s.Nodes {
		for _, r := range n.Regions {
			v.scope(r)
		}
	}
}

func (v *checker) node(n *model.Node) {
	switch n.Kind {
	case domain.KindInitial, domain.KindPassThrough:
		v.singleEdge(n)
		for _, t := range n.Transitions {
			if t.Target != nil {
				v.localTarget(n, t)
			}
		}

	case domain.KindFinal:
		// Finals only carry enter hooks.

	case domain.KindState:
		v.events(n)

	case domain.KindChoice:
		v.choice(n)

	case domain.KindWait, domain.KindTaskWait:
		v.events(n)
		if n.Completion == nil || (n.Wait == nil && n.Task == nil) {
			v.fail(n, "", "%s node has no WaitingFor", n.Kind)
			return
		}
		v.completion(n)

	case domain.KindNest, domain.KindSplit:
		v.events(n)
		if len(n.Regions) == 0 || n.Completion == nil {
			v.fail(n, "", "%s node has no nested setup", n.Kind)
			return
		}
		if n.Kind == domain.KindSplit && len(n.Regions) < 2 {
			v.fail(n, "", "split needs at least 2 regions, got %d", len(n.Regions))
		}
		for _, t := range n.Transitions {
			if t.Target == n {
				v.fail(n, t.Origin, "event %q targets the composite itself", t.Event)
			}
		}
		v.completion(n)

	case domain.KindLeave:
		v.singleEdge(n)
		for _, t := range n.Transitions {
			if t.Target == nil {
				continue
			}
			if t.Target.Scope == n.Scope || !t.Target.Scope.Encloses(n.Scope) {
				v.fail(n, t.Origin, "leave target %q must belong to an enclosing scope", t.Target.ID)
			}
		}
	}
}

// singleEdge checks nodes that resolve through exactly one unguarded transition.
func (v *checker) singleEdge(n *model.Node) {
	if len(n.Transitions) != 1 {
		v.fail(n, "", "%s node needs exactly one transition", n.Kind)
		return
	}
	t := n.Transitions[0]
	if t.Guard != nil {
		v.fail(n, t.Origin, "%s transition cannot have a condition", n.Kind)
	}
	if t.Target == nil {
		v.fail(n, t.Origin, "%s transition has no target", n.Kind)
	} else if t.Target == n {
		v.fail(n, t.Origin, "%s node targets itself", n.Kind)
	}
}

func (v *checker) events(n *model.Node) {
	seen := make(map[domain.Event]bool)
	for _, t := range n.Transitions {
		if seen[t.Event] {
			v.fail(n, t.Origin, "duplicate transition for event %q", t.Event)
		}
		seen[t.Event] = true
		if t.Target != nil && t.Target.Scope != n.Scope {
			v.fail(n, t.Origin, "event %q targets %q outside its scope", t.Event, t.Target.ID)
		}
	}
}

func (v *checker) choice(n *model.Node) {
	if len(n.Transitions) == 0 {
		v.fail(n, "", "choice has no transitions")
		return
	}
	for i, t := range n.Transitions {
		v.localTarget(n, t)
		if t.Target == n {
			v.fail(n, t.Origin, "choice targets itself")
		}
		if t.Guard == nil && i < len(n.Transitions)-1 {
			v.fail(n, t.Origin, "unguarded transition %d makes the following ones unreachable", i)
		}
	}
	if n.Transitions[len(n.Transitions)-1].Guard != nil {
		v.fail(n, "", "choice has no unguarded fallback transition")
	}
}

func (v *checker) completion(n *model.Node) {
	t := n.Completion
	if t.Guard != nil {
		v.fail(n, t.Origin, "completion transition cannot have a condition")
	}
	if t.Target == nil {
		v.fail(n, t.Origin, "completion transition has no target")
		return
	}
	if t.Target == n {
		v.fail(n, t.Origin, "%s node is pointing to itself on completion", n.Kind)
		return
	}
	v.localTarget(n, t)
}

func (v *checker) localTarget(n *model.Node, t *model.Transition) {
	if t.Target == nil {
		v.fail(n, t.Origin, "transition has no target")
		return
	}
	if t.Target.Scope != n.Scope {
		v.fail(n, t.Origin, "target %q is outside the scope of %q", t.Target.ID, n.ID)
	}
}

// reachability crawls the scope from its initial node and reports every
// state-like node that cannot be entered.
func (v *checker) reachability(s *model.Scope) {
	visited := make(map[*model.Node]bool)
	queue := []*model.Node{s.Initial()}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		edges := current.Transitions
		if current.Completion != nil {
			edges = append(edges[:len(edges):len(edges)], current.Completion)
		}
		for _, t := range edges {
			if t.Target != nil && t.Target.Scope == s && !visited[t.Target] {
				queue = append(queue, t.Target)
			}
		}
		queue = append(queue, escapes(current, s)...)
	}

	for _, n := range s.Nodes {
		if visited[n] {
			continue
		}
		switch n.Kind {
		case domain.KindState, domain.KindChoice, domain.KindWait, domain.KindTaskWait,
			domain.KindNest, domain.KindSplit:
			v.fail(n, "", "node is unreachable from %q", s.Initial().ID)
		}
	}
}

// escapes returns the nodes of s targeted by leave nodes nested anywhere below n.
func escapes(n *model.Node, s *model.Scope) []*model.Node {
	var out []*model.Node
	for _, r := range n.Regions {
		r.Walk(func(inner *model.Node) {
			if inner.Kind != domain.KindLeave {
				return
			}
			for _, t := range inner.Transitions {
				if t.Target != nil && t.Target.Scope == s {
					out = append(out, t.Target)
				}
			}
		})
	}
	return out
}
