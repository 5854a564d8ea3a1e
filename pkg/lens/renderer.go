package lens

import (
	"fmt"

	"github.com/PROACTIVA-US/VISLZR/pkg/logging"
	"github.com/PROACTIVA-US/VISLZR/pkg/model"
)

// Render applies cfg around the focal nodes and returns the resulting view.
// Node and edge order follow g. Edges touching a folded node are rerouted to
// its nearest visible collapsed ancestor; edges that end up looping or
// duplicated are dropped.
func Render(g *model.Graph, focal []string, cfg Config) *View {
	distances := ComputeDistances(g, focal)
	isFocal := make(map[string]bool, len(focal))
	for _, id := range focal {
		isFocal[id] = true
	}
	collapse := make(map[string]bool, len(cfg.Collapse))
	for _, id := range cfg.Collapse {
		collapse[id] = true
	}

	states := make(map[string]*NodeState, len(g.Nodes))
	for _, n := range g.Nodes {
		d := distances[n.ID]
		visible := cfg.inRange(d)
		if visible && cfg.HideCompleted && n.Status == model.StatusCompleted && !isFocal[n.ID] {
			visible = false
		}
		states[n.ID] = &NodeState{Visible: visible, Collapsed: collapse[n.ID], Distance: d}
	}

	// fold descendants of collapsed nodes into their outermost collapsed ancestor
	folded := make(map[string]string)
	for _, n := range g.Nodes {
		for _, a := range ancestors(n.ID, g) {
			if collapse[a] {
				folded[n.ID] = a
			}
		}
	}

	view := model.NewGraph()
	if g.Project != nil {
		p := *g.Project
		view.Project = &p
	}
	for _, n := range g.Nodes {
		if _, hidden := folded[n.ID]; hidden || !states[n.ID].Visible {
			continue
		}
		view.AddNode(n.Clone())
	}

	seen := make(map[string]bool)
	for _, e := range g.Edges {
		if !cfg.keepsEdge(e.Type) {
			continue
		}
		src, dst := reroute(e.Source, folded), reroute(e.Target, folded)
		if src == dst || view.Node(src) == nil || view.Node(dst) == nil {
			continue
		}
		key := edgeKey(src, dst, e.Type)
		if seen[key] {
			continue
		}
		seen[key] = true

		c := *e
		c.Metadata = cloneMetadata(e.Metadata)
		if src != e.Source || dst != e.Target {
			c.ID = fmt.Sprintf("%s~folded", e.ID)
			c.Source, c.Target = src, dst
		}
		view.AddEdge(&c)
	}

	logging.Debug("rendered lens", "lens", cfg.Name, "focal", focal, "nodes", len(view.Nodes), "edges", len(view.Edges))
	return &View{Graph: view, States: states}
}

func reroute(id string, folded map[string]string) string {
	if to, ok := folded[id]; ok {
		return to
	}
	return id
}

func cloneMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
