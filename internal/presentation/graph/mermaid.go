package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/statechart/pkg/domain"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	// ActiveNodes are composites enclosing the current leaves.
	ActiveNodes []string
	// CurrentNodes are the active leaves, one per live region.
	CurrentNodes []string
}

// OverlayFromSnapshot builds an overlay highlighting the active configuration.
func OverlayFromSnapshot(snap *domain.Snapshot) *GraphOverlay {
	if snap == nil || snap.Root == nil {
		return nil
	}
	overlay := &GraphOverlay{CurrentNodes: snap.LeafIDs()}
	leaves := make(map[string]bool)
	for _, id := range overlay.CurrentNodes {
		leaves[id] = true
	}
	var walk func(f *domain.Frame)
	walk = func(f *domain.Frame) {
		if !leaves[f.NodeID] {
			overlay.ActiveNodes = append(overlay.ActiveNodes, f.NodeID)
		}
		for _, r := range f.Regions {
			if r.Current != nil && !r.Completed {
				walk(r.Current)
			}
		}
	}
	walk(snap.Root)
	return overlay
}

// GenerateMermaid produces a Mermaid flowchart from a list of nodes.
// Composite nodes become subgraphs, one nested subgraph per split region.
// Shapes follow the node kind:
//   - Initial: ((circle)), Final: (((double circle)))
//   - Choice: {rhombus}
//   - Wait: [/parallelogram/], TaskWait: [[subroutine]]
//   - Leave: [\trapezoid/]
func GenerateMermaid(nodes []domain.Node, overlay *GraphOverlay) string {
	byScope := make(map[string][]domain.Node)
	for _, n := range nodes {
		byScope[n.Scope] = append(byScope[n.Scope], n)
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")
	writeScope(&sb, byScope, "", 1)

	for _, node := range nodes {
		writeEdges(&sb, node)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds.
		sb.WriteString("    classDef active fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for _, id := range overlay.ActiveNodes {
			fmt.Fprintf(&sb, "    class %s active;\n", sanitizeMermaidID(id))
		}
		for _, id := range overlay.CurrentNodes {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(id))
		}
	}

	return sb.String()
}

func writeScope(sb *strings.Builder, byScope map[string][]domain.Node, scope string, depth int) {
	indent := strings.Repeat("    ", depth)
	for _, node := range byScope[scope] {
		safeID := sanitizeMermaidID(node.ID)
		if !node.Kind.IsComposite() {
			opener, closer := shape(node.Kind)
			fmt.Fprintf(sb, "%s%s%s\"%s\"%s\n", indent, safeID, opener, escape(node.Name), closer)
			continue
		}

		fmt.Fprintf(sb, "%ssubgraph %s[\"%s\"]\n", indent, safeID, escape(node.Name))
		if len(node.Regions) == 1 {
			writeScope(sb, byScope, node.Regions[0], depth+1)
		} else {
			for i, region := range node.Regions {
				fmt.Fprintf(sb, "%s    subgraph %s[\"region %d\"]\n", indent, sanitizeMermaidID(region), i)
				writeScope(sb, byScope, region, depth+2)
				fmt.Fprintf(sb, "%s    end\n", indent)
			}
		}
		fmt.Fprintf(sb, "%send\n", indent)
	}
}

func writeEdges(sb *strings.Builder, node domain.Node) {
	safeID := sanitizeMermaidID(node.ID)
	for _, t := range node.Transitions {
		if t.ToNodeID == "" {
			continue
		}
		safeTo := sanitizeMermaidID(t.ToNodeID)

		label := string(t.Event)
		if t.Guarded {
			label += " [guard]"
		}
		label = strings.TrimSpace(label)

		var arrow string
		switch {
		case t.Completion:
			arrow = "==>"
		case node.Kind == domain.KindLeave:
			arrow = "-.->"
		case label != "":
			arrow = fmt.Sprintf("-- \"%s\" -->", escape(label))
		default:
			arrow = "-->"
		}
		fmt.Fprintf(sb, "    %s %s %s\n", safeID, arrow, safeTo)
	}
}

func shape(kind domain.NodeKind) (string, string) {
	switch kind {
	case domain.KindInitial:
		return "((", "))"
	case domain.KindFinal:
		return "(((", ")))"
	case domain.KindChoice:
		return "{", "}"
	case domain.KindWait:
		return "[/", "/]"
	case domain.KindTaskWait:
		return "[[", "]]"
	case domain.KindLeave:
		return "[\\", "/]"
	case domain.KindPassThrough:
		return ">", "]"
	}
	return "[", "]"
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "__")
	s = strings.ReplaceAll(s, "#", "_r")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
