// Package layout places action siblings around a focal node and nudges them
// clear of other on-screen entities.
package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Kind is a placement strategy
type Kind string

const (
	KindArc   Kind = "arc"
	KindStack Kind = "stack"
	KindRing  Kind = "ring"
)

// Config holds the geometry constants. Distances are in canvas units.
type Config struct {
	ArcMax       int     `koanf:"arc_max" json:"arcMax"`     // largest count laid out as an arc
	StackMax     int     `koanf:"stack_max" json:"stackMax"` // largest count laid out as a stack
	ArcOffset    float64 `koanf:"arc_offset" json:"arcOffset"`
	RingOffset   float64 `koanf:"ring_offset" json:"ringOffset"`
	StackSpacing float64 `koanf:"stack_spacing" json:"stackSpacing"`
	StackOffsetX float64 `koanf:"stack_offset_x" json:"stackOffsetX"`
	MinClearance float64 `koanf:"min_clearance" json:"minClearance"`
	PushStep     float64 `koanf:"push_step" json:"pushStep"`
	MaxAttempts  int     `koanf:"max_attempts" json:"maxAttempts"`
}

// DefaultConfig returns the stock geometry
func DefaultConfig() Config {
	return Config{
		ArcMax:       4,
		StackMax:     7,
		ArcOffset:    80,
		RingOffset:   80,
		StackSpacing: 35,
		StackOffsetX: 70,
		MinClearance: 30,
		PushStep:     10,
		MaxAttempts:  10,
	}
}

// Focal is the node the siblings surround
type Focal struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// Position is a computed slot. Angle is in degrees, screen coordinates (y grows down).
type Position struct {
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Angle *float64 `json:"angle,omitempty"`
}

func (p Position) vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

func (p Position) angle() float64 {
	if p.Angle == nil {
		return 0
	}
	return *p.Angle
}

func degrees(d float64) *float64 { return &d }

// Select picks the strategy for n slots
func Select(n int, cfg Config) Kind {
	switch {
	case n <= cfg.ArcMax:
		return KindArc
	case n <= cfg.StackMax:
		return KindStack
	default:
		return KindRing
	}
}

// Calculate computes n slots around focal using the strategy Select picks
func Calculate(focal Focal, n int, cfg Config) []Position {
	return CalculateWith(Select(n, cfg), focal, n, cfg)
}

// CalculateWith computes n slots with an explicit strategy
func CalculateWith(kind Kind, focal Focal, n int, cfg Config) []Position {
	if n <= 0 {
		return []Position{}
	}
	switch kind {
	case KindStack:
		return stack(focal, n, cfg)
	case KindRing:
		return ring(focal, n, cfg)
	default:
		return arc(focal, n, cfg)
	}
}

// arc spreads slots from -90 to +90 degrees; a single slot sits straight above
func arc(focal Focal, n int, cfg Config) []Position {
	radius := focal.Radius + cfg.ArcOffset
	step := 0.0
	if n > 1 {
		step = 180.0 / float64(n-1)
	}
	out := make([]Position, n)
	for i := range out {
		out[i] = polar(focal, radius, -90+float64(i)*step)
	}
	return out
}

// stack lines slots up in a column to the right of the focal point
func stack(focal Focal, n int, cfg Config) []Position {
	out := make([]Position, n)
	mid := float64(n-1) / 2
	for i := range out {
		out[i] = Position{
			X:     focal.X + cfg.StackOffsetX,
			Y:     focal.Y + (float64(i)-mid)*cfg.StackSpacing,
			Angle: degrees(0),
		}
	}
	return out
}

// ring spaces slots evenly over a full circle starting at the top
func ring(focal Focal, n int, cfg Config) []Position {
	radius := focal.Radius + cfg.RingOffset
	step := 360.0 / float64(n)
	out := make([]Position, n)
	for i := range out {
		out[i] = polar(focal, radius, -90+float64(i)*step)
	}
	return out
}

func polar(focal Focal, radius, deg float64) Position {
	p := r2.Add(r2.Vec{X: focal.X, Y: focal.Y}, r2.Scale(radius, direction(deg)))
	return Position{X: p.X, Y: p.Y, Angle: degrees(deg)}
}

func direction(deg float64) r2.Vec {
	rad := deg * math.Pi / 180
	return r2.Vec{X: math.Cos(rad), Y: math.Sin(rad)}
}
