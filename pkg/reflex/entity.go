package reflex

import "github.com/teslashibe/go-arcade/pkg/collision"

// State is the lifecycle state of an entity. Exactly one holds at any time.
type State int

const (
	Live State = iota
	Popped
	Missed
)

func (s State) String() string {
	switch s {
	case Live:
		return "live"
	case Popped:
		return "popped"
	case Missed:
		return "missed"
	}
	return "unknown"
}

// Entity is one rising balloon
type Entity struct {
	ID     int
	Radius int     // Pixels, > 0
	Speed  int     // Pixels per second, upward
	Drift  float64 // Horizontal speed as a fraction of Speed
	X, Y   float64
	Points int // Fixed at spawn
	State  State
}

// Popped reports whether the entity was hit
func (e *Entity) Popped() bool { return e.State == Popped }

// Missed reports whether the entity escaped unpopped
func (e *Entity) Missed() bool { return e.State == Missed }

// Live reports whether the entity is still in play
func (e *Entity) Live() bool { return e.State == Live }

// Target returns the hit circle for collision checks
func (e *Entity) Target() collision.Circle {
	return collision.Circle{Center: collision.Pt(e.X, e.Y), Radius: float64(e.Radius)}
}

// Points computes the award for an entity: smaller, faster entities are worth more.
// Integer arithmetic keeps the floor exact.
func Points(cfg Config, radius, speed int) int {
	return cfg.BasePoints * cfg.ReferenceRadius * speed / (radius * cfg.ReferenceSpeed)
}
