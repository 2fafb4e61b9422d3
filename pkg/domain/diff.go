package domain

// SnapshotDiff represents the changes between two snapshots of the same run.
// It is designed to be serialized to JSON for partial updates on debug clients.
type SnapshotDiff struct {
	RunID string `json:"run_id"`

	Status *Status `json:"status,omitempty"`

	// Exited lists leaves present in the old snapshot but not in the new one.
	Exited []Leaf `json:"exited,omitempty"`

	// Entered lists leaves present in the new snapshot but not in the old one.
	// A node that was left and re-entered shows up in both lists with different activations.
	Entered []Leaf `json:"entered,omitempty"`
}

// Diff calculates the difference between oldSnap and newSnap.
// If oldSnap is nil, the diff describes the entire newSnap.
// It returns nil when nothing changed.
func Diff(oldSnap, newSnap *Snapshot) *SnapshotDiff {
	if newSnap == nil {
		return nil
	}

	diff := &SnapshotDiff{RunID: newSnap.RunID}

	if oldSnap == nil || oldSnap.Status != newSnap.Status {
		status := newSnap.Status
		diff.Status = &status
	}

	var oldLeaves []Leaf
	if oldSnap != nil {
		oldLeaves = oldSnap.Leaves
	}
	diff.Exited = leafDelta(oldLeaves, newSnap.Leaves)
	diff.Entered = leafDelta(newSnap.Leaves, oldLeaves)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// leafDelta returns the leaves of a that are absent from b.
func leafDelta(a, b []Leaf) []Leaf {
	seen := make(map[uint64]bool, len(b))
	for _, l := range b {
		seen[l.Activation] = true
	}

	var delta []Leaf
	for _, l := range a {
		if !seen[l.Activation] {
			delta = append(delta, l)
		}
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SnapshotDiff) IsEmpty() bool {
	return d.Status == nil && len(d.Exited) == 0 && len(d.Entered) == 0
}
