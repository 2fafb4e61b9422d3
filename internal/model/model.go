// Package model holds the immutable graph a statechart is built from.
//
// Values are produced by pkg/dsl, checked by internal/validator and then only read
// by internal/runtime. Nothing in this package mutates a graph after Build returns.
package model

import (
	"fmt"

	"github.com/aretw0/statechart/pkg/domain"
)

// Graph is a complete chart.
type Graph struct {
	Name string
	Root *Scope
}

// Scope is the set of nodes owned by the root, a nest, or one region of a split.
type Scope struct {
	// ID is "" for the root scope, the owner ID for a nest and "<owner>#<n>" for split regions.
	ID    string
	Owner *Node
	Index int
	Nodes []*Node

	// ExecuteExit runs the exit hooks of the scope's active nodes when the owner is
	// interrupted before the scope completed.
	ExecuteExit bool
	// ExecuteFinal runs the scope's final OnEnter hooks when the owner is interrupted
	// before the scope completed.
	ExecuteFinal bool
}

// Node is a vertex of the graph.
type Node struct {
	ID     string
	Name   string
	Kind   domain.NodeKind
	Scope  *Scope
	Origin string

	OnEnter []domain.Action
	OnExit  []domain.Action

	// Transitions are the event edges of states, waits and composites, the ordered
	// guarded edges of a choice, or the single edge of an initial, pass-through or leave node.
	Transitions []*Transition

	// Completion is taken when a wait/task completes or when every region of a composite has.
	Completion *Transition

	Regions []*Scope
	Wait    func(domain.Activity)
	Task    domain.Task
}

// Transition is an edge between two nodes.
type Transition struct {
	Source       *Node
	Event        domain.Event
	Guard        domain.Condition
	OnTransition []domain.Action
	Target       *Node
	Origin       string
}

// NodeID builds the ID of a node named name inside scope.
func NodeID(scope *Scope, name string) string {
	if scope == nil || scope.ID == "" {
		return name
	}
	return scope.ID + "/" + name
}

// RegionID builds the ID of region index of the composite node.
func RegionID(owner *Node, index int) string {
	if owner.Kind == domain.KindNest {
		return owner.ID
	}
	return fmt.Sprintf("%s#%d", owner.ID, index)
}

// Initial returns the first initial node of the scope, or nil.
func (s *Scope) Initial() *Node {
	return s.first(domain.KindInitial)
}

// Final returns the first final node of the scope, or nil.
func (s *Scope) Final() *Node {
	return s.first(domain.KindFinal)
}

func (s *Scope) first(kind domain.NodeKind) *Node {
	for _, n := range s.Nodes {
		if n.Kind == kind {
			return n
		}
	}
	return nil
}

// Parent returns the scope enclosing the owner of s, or nil for the root scope.
func (s *Scope) Parent() *Scope {
	if s.Owner == nil {
		return nil
	}
	return s.Owner.Scope
}

// Encloses reports whether s is other or one of its ancestors.
func (s *Scope) Encloses(other *Scope) bool {
	for cur := other; cur != nil; cur = cur.Parent() {
		if cur == s {
			return true
		}
	}
	return false
}

// Walk visits every node of the scope and of its nested scopes, depth-first in declaration order.
func (s *Scope) Walk(fn func(*Node)) {
	for _, n := range s.Nodes {
		fn(n)
		for _, r := range n.Regions {
			r.Walk(fn)
		}
	}
}

// Nodes returns every node of the graph, depth-first in declaration order.
func (g *Graph) Nodes() []*Node {
	var nodes []*Node
	g.Root.Walk(func(n *Node) {
		nodes = append(nodes, n)
	})
	return nodes
}

// Describe converts the graph into its serializable form.
func (g *Graph) Describe() []domain.Node {
	nodes := g.Nodes()
	out := make([]domain.Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Describe())
	}
	return out
}

// Describe converts the node into its serializable form.
func (n *Node) Describe() domain.Node {
	d := domain.Node{
		ID:     n.ID,
		Name:   n.Name,
		Kind:   n.Kind,
		Scope:  n.Scope.ID,
		Origin: n.Origin,
	}
	for _, t := range n.Transitions {
		d.Transitions = append(d.Transitions, t.describe(false))
	}
	if n.Completion != nil {
		d.Transitions = append(d.Transitions, n.Completion.describe(true))
	}
	for _, r := range n.Regions {
		d.Regions = append(d.Regions, r.ID)
	}
	return d
}

func (t *Transition) describe(completion bool) domain.Transition {
	d := domain.Transition{
		Event:      t.Event,
		Guarded:    t.Guard != nil,
		Completion: completion,
	}
	if t.Target != nil {
		d.ToNodeID = t.Target.ID
	}
	return d
}
