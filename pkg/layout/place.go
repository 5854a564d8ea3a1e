package layout

import (
	"fmt"

	"github.com/PROACTIVA-US/VISLZR/pkg/actions"
)

// Instance is an action placed on the canvas
type Instance struct {
	ID       string              `json:"id"`
	Action   *actions.Descriptor `json:"action"`
	Position Position            `json:"position"`
	Layout   Kind                `json:"layout"`
}

// InstanceID names the i-th placed sibling for an action
func InstanceID(actionID string, i int) string {
	return fmt.Sprintf("sibling-%s-%d", actionID, i)
}

// Place lays out the ordered actions around focal and resolves collisions
// against entities. Slot order follows action order.
func Place(focal Focal, ordered []*actions.Descriptor, entities []Entity, cfg Config) []Instance {
	kind := Select(len(ordered), cfg)
	positions := ResolveCollisions(CalculateWith(kind, focal, len(ordered), cfg), entities, cfg)

	out := make([]Instance, len(ordered))
	for i, d := range ordered {
		out[i] = Instance{
			ID:       InstanceID(d.ID, i),
			Action:   d,
			Position: positions[i],
			Layout:   kind,
		}
	}
	return out
}
