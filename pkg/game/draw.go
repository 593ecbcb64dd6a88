package game

import "github.com/teslashibe/go-arcade/pkg/landmark"

// Sprite is a round entity to draw.
type Sprite struct {
	X, Y   float64
	Radius float64
	Popped bool
}

// Overlay is the challenge image to blend over the frame.
type Overlay struct {
	Index   int
	Name    string
	Opacity float64 // 0-1
}

// Marker is a tracked point in pixel space.
type Marker struct {
	ID         landmark.JointID
	X, Y       float64
	Confidence float64
}

// DrawList is everything the compositor must draw for one frame.
// How it is drawn is up to the compositor.
type DrawList struct {
	Variant   string
	Phase     Phase
	Score     int
	Level     int
	HighScore int
	Banner    string // Title or game-over text; empty during play

	Entities  []Sprite
	Challenge *Overlay
	Markers   []Marker
}

// Reset clears the list for reuse.
func (d *DrawList) Reset() {
	entities, markers := d.Entities[:0], d.Markers[:0]
	*d = DrawList{Entities: entities, Markers: markers}
}
