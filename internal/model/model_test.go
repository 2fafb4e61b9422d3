package model

import (
	"testing"

	"github.com/aretw0/statechart/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tinyGraph builds: init -> match(split: [a], [b]) -> end
func tinyGraph() *Graph {
	root := &Scope{}
	initial := &Node{ID: "init", Name: "init", Kind: domain.KindInitial, Scope: root}
	match := &Node{ID: "match", Name: "match", Kind: domain.KindSplit, Scope: root}
	end := &Node{ID: "end", Name: "end", Kind: domain.KindFinal, Scope: root}
	root.Nodes = []*Node{initial, match, end}
	initial.Transitions = []*Transition{{Source: initial, Target: match}}
	match.Completion = &Transition{Source: match, Target: end}

	for i, name := range []string{"a", "b"} {
		region := &Scope{ID: RegionID(match, i), Owner: match, Index: i}
		region.Nodes = []*Node{{ID: NodeID(region, name), Name: name, Kind: domain.KindState, Scope: region}}
		match.Regions = append(match.Regions, region)
	}
	return &Graph{Name: "tiny", Root: root}
}

func TestGraph_NodesOrder(t *testing.T) {
	g := tinyGraph()

	var ids []string
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"init", "match", "match#0/a", "match#1/b", "end"}, ids)
}

func TestScope_Encloses(t *testing.T) {
	g := tinyGraph()
	match := g.Root.Nodes[1]
	region := match.Regions[1]

	assert.True(t, g.Root.Encloses(region))
	assert.True(t, region.Encloses(region))
	assert.False(t, region.Encloses(g.Root))
	assert.False(t, match.Regions[0].Encloses(region))
	assert.Equal(t, g.Root, region.Parent())
}

func TestGraph_Describe(t *testing.T) {
	g := tinyGraph()
	nodes := g.Describe()
	require.Len(t, nodes, 5)

	match := nodes[1]
	assert.Equal(t, domain.KindSplit, match.Kind)
	assert.Equal(t, []string{"match#0", "match#1"}, match.Regions)
	require.Len(t, match.Transitions, 1)
	assert.True(t, match.Transitions[0].Completion)
	assert.Equal(t, "end", match.Transitions[0].ToNodeID)

	assert.Equal(t, "match#1", nodes[3].Scope)
}
