package domain

// Event identifies a trigger. Events are compared by value.
type Event string

// String implements fmt.Stringer.
func (e Event) String() string {
	return string(e)
}

// Transition is the static description of an edge.
type Transition struct {
	// Event is empty for completion edges and pseudostate edges.
	Event Event `json:"event,omitempty"`
	// ToNodeID is empty when the transition only runs its OnTransition hooks.
	ToNodeID string `json:"to_node_id,omitempty"`
	Guarded  bool   `json:"guarded,omitempty"`
	// Completion marks the edge taken when a composite or suspension node completes.
	Completion bool `json:"completion,omitempty"`
}
