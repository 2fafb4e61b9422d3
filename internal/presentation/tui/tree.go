package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/statechart/internal/runtime"
	"github.com/aretw0/statechart/pkg/domain"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// TreeRenderer returns a colored tree renderer when w is a terminal and the plain
// one otherwise, so piped output stays grep-friendly.
func TreeRenderer(w io.Writer) func(*domain.Snapshot) string {
	if f, ok := w.(*os.File); ok && IsTerminal(f) {
		out := termenv.NewOutput(w)
		return func(snap *domain.Snapshot) string {
			return ColorTree(out, snap)
		}
	}
	return runtime.RenderTree
}

// ColorTree renders the active configuration like runtime.RenderTree, with
// leaves highlighted and completed regions dimmed.
func ColorTree(out *termenv.Output, snap *domain.Snapshot) string {
	var sb strings.Builder
	header := out.String(snap.Chart).Bold()
	fmt.Fprintf(&sb, "%s (%s)\n", header, statusStyle(out, snap.Status))
	if snap.Root != nil {
		leaves := make(map[uint64]bool, len(snap.Leaves))
		for _, l := range snap.Leaves {
			leaves[l.Activation] = true
		}
		writeColorFrame(&sb, out, snap.Root, leaves, 0)
	}
	return sb.String()
}

func writeColorFrame(sb *strings.Builder, out *termenv.Output, f *domain.Frame, leaves map[uint64]bool, depth int) {
	name := out.String(f.Name)
	switch {
	case leaves[f.Activation]:
		name = name.Bold().Foreground(out.Color("#22c55e"))
	case f.Kind.IsComposite():
		name = name.Foreground(out.Color("#38bdf8"))
	}
	fmt.Fprintf(sb, "%s↳ %s [%s]\n", strings.Repeat("  ", depth), name, f.Kind)

	for _, r := range f.Regions {
		if r.Current == nil {
			continue
		}
		if r.Completed {
			done := out.String(fmt.Sprintf("↳ %s [%s] (done)", r.Current.Name, r.Current.Kind)).Faint()
			fmt.Fprintf(sb, "%s%s\n", strings.Repeat("  ", depth+1), done)
			continue
		}
		writeColorFrame(sb, out, r.Current, leaves, depth+1)
	}
}

func statusStyle(out *termenv.Output, status domain.Status) termenv.Style {
	s := out.String(string(status))
	switch status {
	case domain.StatusActive:
		return s.Foreground(out.Color("#22c55e"))
	case domain.StatusPaused:
		return s.Foreground(out.Color("#eab308"))
	case domain.StatusCompleted:
		return s.Foreground(out.Color("#818cf8"))
	}
	return s.Faint()
}
