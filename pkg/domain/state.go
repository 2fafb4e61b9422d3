package domain

import "time"

// Status is the lifecycle phase of an engine.
type Status string

const (
	StatusIdle      Status = "idle"      // Built, never run (or reset)
	StatusActive    Status = "active"    // Processing events
	StatusPaused    Status = "paused"    // Events are dropped until Run is called again
	StatusCompleted Status = "completed" // Root final reached
)

// Snapshot is a read-only, serializable view of the active configuration.
type Snapshot struct {
	Chart  string `json:"chart"`
	RunID  string `json:"run_id,omitempty"`
	Status Status `json:"status"`

	// Leaves lists the active leaf of every live region, depth-first in declaration order.
	Leaves []Leaf `json:"leaves,omitempty"`

	// Root is the active node of the root scope with its nested regions.
	Root *Frame `json:"root,omitempty"`

	TakenAt time.Time `json:"taken_at"`

	// Sealed holds the encrypted configuration when the snapshot went through an
	// encrypting store. Leaves and Root are empty in that case.
	Sealed []byte `json:"sealed,omitempty"`
}

// Leaf is an active node that owns no live child region.
type Leaf struct {
	NodeID string   `json:"node_id"`
	Name   string   `json:"name"`
	Kind   NodeKind `json:"kind"`
	// Activation is the node-instance identity. It changes every time the node is entered.
	Activation uint64 `json:"activation"`
}

// Frame is an active node together with the regions it owns.
type Frame struct {
	NodeID     string   `json:"node_id"`
	Name       string   `json:"name"`
	Kind       NodeKind `json:"kind"`
	Activation uint64   `json:"activation"`
	Regions    []Region `json:"regions,omitempty"`
}

// Region is one child scope of an active composite.
type Region struct {
	Scope     string `json:"scope"`
	Completed bool   `json:"completed,omitempty"`
	Current   *Frame `json:"current,omitempty"`
}

// LeafIDs returns the node IDs of the active leaves.
func (s *Snapshot) LeafIDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.Leaves))
	for _, l := range s.Leaves {
		ids = append(ids, l.NodeID)
	}
	return ids
}

// IsActive reports whether the node is part of the active configuration,
// either as a leaf or as an enclosing composite.
func (s *Snapshot) IsActive(nodeID string) bool {
	return s != nil && s.Root != nil && s.Root.contains(nodeID)
}

func (f *Frame) contains(nodeID string) bool {
	if f.NodeID == nodeID {
		return true
	}
	for _, r := range f.Regions {
		if r.Current != nil && r.Current.contains(nodeID) {
			return true
		}
	}
	return false
}
