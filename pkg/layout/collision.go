package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Entity is anything already on screen that siblings must keep clear of
type Entity struct {
	ID     string  `json:"id,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

func (e Entity) vec() r2.Vec { return r2.Vec{X: e.X, Y: e.Y} }

// CheckCollision reports whether pos is closer than MinClearance+radius to any entity
func CheckCollision(pos Position, entities []Entity, cfg Config) bool {
	return penetration(pos, entities, cfg) > 0
}

// penetration is the deepest clearance violation at pos, or a value <= 0 when clear
func penetration(pos Position, entities []Entity, cfg Config) float64 {
	worst := math.Inf(-1)
	p := pos.vec()
	for _, e := range entities {
		depth := cfg.MinClearance + e.Radius - r2.Norm(r2.Sub(p, e.vec()))
		if depth > worst {
			worst = depth
		}
	}
	return worst
}

// ResolveCollisions pushes each colliding slot outward along its own angle in
// PushStep increments, at most MaxAttempts times. A slot that never clears
// ends at the least-penetrating position it reached.
func ResolveCollisions(positions []Position, entities []Entity, cfg Config) []Position {
	out := make([]Position, len(positions))
	for i, pos := range positions {
		out[i] = resolve(pos, entities, cfg)
	}
	return out
}

func resolve(pos Position, entities []Entity, cfg Config) Position {
	best := pos
	bestDepth := penetration(pos, entities, cfg)
	if bestDepth <= 0 {
		return pos
	}

	push := r2.Scale(cfg.PushStep, direction(pos.angle()))
	current := pos.vec()
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		current = r2.Add(current, push)
		candidate := Position{X: current.X, Y: current.Y, Angle: pos.Angle}
		depth := penetration(candidate, entities, cfg)
		if depth < bestDepth {
			best, bestDepth = candidate, depth
		}
		if depth <= 0 {
			return candidate
		}
	}
	return best
}
