package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/statechart/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// NodeTable describes the chart as a markdown table, one row per node.
func NodeTable(chart string, nodes []domain.Node) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", chart)
	sb.WriteString("| Node | Kind | Scope | Transitions | Declared at |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, n := range nodes {
		scope := n.Scope
		if scope == "" {
			scope = "(root)"
		}
		fmt.Fprintf(&sb, "| `%s` | %s | %s | %s | %s |\n", n.ID, n.Kind, scope, describeTransitions(n.Transitions), n.Origin)
	}
	return sb.String()
}

func describeTransitions(ts []domain.Transition) string {
	if len(ts) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(ts))
	for _, t := range ts {
		label := string(t.Event)
		switch {
		case t.Completion:
			label = "(done)"
		case label == "":
			label = "(auto)"
		}
		if t.Guarded {
			label += " [guard]"
		}
		target := t.ToNodeID
		if target == "" {
			target = "(none)"
		}
		parts = append(parts, label+" → "+target)
	}
	return strings.Join(parts, "<br>")
}
