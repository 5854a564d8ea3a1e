// Package output renders engine results as colored terminal reports.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/PROACTIVA-US/VISLZR/pkg/actions"
	"github.com/PROACTIVA-US/VISLZR/pkg/cycles"
	"github.com/PROACTIVA-US/VISLZR/pkg/engine"
	"github.com/PROACTIVA-US/VISLZR/pkg/layout"
	"github.com/PROACTIVA-US/VISLZR/pkg/model"
	"github.com/PROACTIVA-US/VISLZR/pkg/nodectx"
	"github.com/fatih/color"
)

var (
	bold   = color.New(color.Bold)
	red    = color.New(color.FgRed)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

func header(w io.Writer, title string) {
	bold.Fprintln(w, title)
	bold.Fprintln(w, strings.Repeat("=", len(title)))
}

// PrintContext prints the derived context of a node
func PrintContext(w io.Writer, node *model.Node, nc nodectx.NodeContext) {
	header(w, fmt.Sprintf("Node %s", node.ID))
	fmt.Fprintf(w, "Label:  %s\n", node.Label)
	fmt.Fprintf(w, "Type:   %s\n", nc.NodeType)
	statusColor(nc).Fprintf(w, "Status: %s\n", nc.Status)

	flags := []struct {
		name string
		set  bool
	}{
		{"children", nc.HasChildren},
		{"parent", nc.HasParent},
		{"dependencies", nc.HasDependencies},
		{"blocked", nc.IsBlocked},
		{"overdue", nc.IsOverdue},
		{"code", nc.HasCode},
	}
	var set []string
	for _, f := range flags {
		if f.set {
			set = append(set, f.name)
		}
	}
	if len(set) == 0 {
		set = []string{"none"}
	}
	fmt.Fprintf(w, "Flags:  %s\n", strings.Join(set, ", "))
	fmt.Fprintln(w)
}

func statusColor(nc nodectx.NodeContext) *color.Color {
	switch {
	case nc.Status == model.StatusCompleted:
		return green
	case nc.IsBlocked || nc.IsOverdue:
		return red
	default:
		return yellow
	}
}

// PrintActions lists the offered actions in display order
func PrintActions(w io.Writer, offered []*actions.Descriptor) {
	if len(offered) == 0 {
		yellow.Fprintln(w, "No actions available")
		return
	}
	bold.Fprintf(w, "%d action(s):\n", len(offered))
	for _, d := range offered {
		cyan.Fprintf(w, "  %-20s", d.ID)
		fmt.Fprintf(w, " %-14s p=%-3d %s", d.Category, d.Priority, d.Label)
		if d.IsGroupParent {
			faint.Fprintf(w, " [group %s]", d.Group)
		}
		if d.RequiresConfirmation {
			yellow.Fprint(w, " (confirm)")
		}
		fmt.Fprintln(w)
	}
}

// PrintLayout prints the placed slots of a layout
func PrintLayout(w io.Writer, placed []layout.Instance) {
	if len(placed) == 0 {
		yellow.Fprintln(w, "Nothing to place")
		return
	}
	bold.Fprintf(w, "Layout: %s, %d slot(s)\n", placed[0].Layout, len(placed))
	for _, p := range placed {
		cyan.Fprintf(w, "  %-32s", p.ID)
		fmt.Fprintf(w, " x=%8.2f y=%8.2f", p.Position.X, p.Position.Y)
		if p.Position.Angle != nil {
			faint.Fprintf(w, " angle=%.1f", *p.Position.Angle)
		}
		fmt.Fprintln(w)
	}
}

// PrintDependencies prints the dependency summary of a node
func PrintDependencies(w io.Writer, id string, deps engine.Dependencies) {
	bold.Fprintf(w, "Dependencies of %s\n", id)
	fmt.Fprintf(w, "  Upstream:   %s\n", list(deps.Upstream))
	fmt.Fprintf(w, "  Downstream: %s\n", list(deps.Downstream))
	if len(deps.Blocking) > 0 {
		red.Fprintf(w, "  Blocking:   %s\n", list(deps.Blocking))
	} else {
		green.Fprintln(w, "  Blocking:   none")
	}
	if deps.OnCycle {
		red.Fprintln(w, "  Part of a dependency cycle")
	}
}

// PrintCycles prints every dependency cycle, or a success line when there are none
func PrintCycles(w io.Writer, found []cycles.Cycle) {
	if len(found) == 0 {
		green.Fprintln(w, "✓ No dependency cycles")
		return
	}
	red.Fprintf(w, "%d dependency cycle(s):\n", len(found))
	for i, c := range found {
		yellow.Fprintf(w, "  %d. %s\n", i+1, strings.Join(c.Nodes, " -> "))
	}
}

// PrintResult prints the outcome of an action execution
func PrintResult(w io.Writer, actionID string, res actions.Result) {
	if res.Success {
		green.Fprintf(w, "✓ %s: %s\n", actionID, res.Message)
		return
	}
	red.Fprintf(w, "✗ %s: %s\n", actionID, res.Message)
}

func list(ids []string) string {
	if len(ids) == 0 {
		return "none"
	}
	return strings.Join(ids, ", ")
}
