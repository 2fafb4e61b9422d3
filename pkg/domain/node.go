package domain

// NodeKind is the tagged variant of a chart vertex.
type NodeKind string

const (
	KindInitial     NodeKind = "initial"
	KindFinal       NodeKind = "final"
	KindState       NodeKind = "state"
	KindChoice      NodeKind = "choice"
	KindPassThrough NodeKind = "transition"
	KindWait        NodeKind = "wait"
	KindTaskWait    NodeKind = "task_wait"
	KindNest        NodeKind = "nest"
	KindSplit       NodeKind = "split"
	KindLeave       NodeKind = "leave"
)

// IsPseudo reports whether nodes of this kind are resolved immediately on entry
// and can never be part of a settled configuration.
func (k NodeKind) IsPseudo() bool {
	switch k {
	case KindInitial, KindChoice, KindPassThrough, KindLeave:
		return true
	}
	return false
}

// IsComposite reports whether nodes of this kind own child scopes.
func (k NodeKind) IsComposite() bool {
	return k == KindNest || k == KindSplit
}

// Node is the static, serializable description of a chart vertex used for
// introspection (graph export, HTTP and MCP surfaces).
type Node struct {
	// ID is the scope-qualified path of the node (e.g. "match/core/countdown").
	ID string `json:"id"`
	// Name is the name given to the builder.
	Name string `json:"name"`
	Kind NodeKind `json:"kind"`
	// Scope is the ID of the scope that contains the node ("" for the root scope).
	Scope string `json:"scope,omitempty"`
	// Origin is the file:line where the node was declared.
	Origin      string       `json:"origin,omitempty"`
	Transitions []Transition `json:"transitions,omitempty"`
	// Regions lists the child scope IDs of a nest (one) or split (many).
	Regions []string `json:"regions,omitempty"`
}
