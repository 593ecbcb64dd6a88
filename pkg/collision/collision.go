// Package collision implements the hit/match predicates shared by both game variants.
//
// Every function here is a pure function of its inputs.
package collision

import (
	"image"
	"math"
)

// Point is a position in frame pixel space.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Target is anything a tracked point can hit.
type Target interface {
	Contains(p Point) bool
}

// Circle is a round target such as a reflex entity.
type Circle struct {
	Center Point
	Radius float64
}

// Contains reports whether p lies within the circle (boundary inclusive).
func (c Circle) Contains(p Point) bool {
	dx := p.X - c.Center.X
	dy := p.Y - c.Center.Y
	return math.Hypot(dx, dy) <= c.Radius
}

// MaskRegion checks points against a safe-pixel mask with a neighborhood tolerance.
// A point is safe if any of the 9 samples {-t,0,t}x{-t,0,t} around its pixel is in the mask.
type MaskRegion struct {
	Mask      *Mask
	Tolerance int
}

// Contains reports whether the point's pixel neighborhood touches the mask.
func (r MaskRegion) Contains(p Point) bool {
	return r.ContainsPixel(int(p.X), int(p.Y))
}

// ContainsPixel is Contains for integer pixel coordinates.
func (r MaskRegion) ContainsPixel(x, y int) bool {
	if r.Mask == nil {
		return false
	}
	t := r.Tolerance
	for _, dx := range [3]int{-t, 0, t} {
		for _, dy := range [3]int{-t, 0, t} {
			if r.Mask.Contains(x+dx, y+dy) {
				return true
			}
		}
	}
	return false
}

// Any reports whether at least one point hits the target.
func Any(points []Point, target Target) bool {
	for _, p := range points {
		if target.Contains(p) {
			return true
		}
	}
	return false
}

// Mask is an immutable-after-build set of safe pixel coordinates.
// Stored as a row-major bitset over the frame bounds.
type Mask struct {
	width, height int
	bits          []uint64
	count         int
}

// NewMask creates an empty mask covering width x height pixels.
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	n := width * height
	return &Mask{
		width:  width,
		height: height,
		bits:   make([]uint64, (n+63)/64),
	}
}

// Set marks (x, y) as safe. Out-of-bounds coordinates are ignored.
// Only call Set while building a mask.
func (m *Mask) Set(x, y int) {
	if !m.inBounds(x, y) {
		return
	}
	i := y*m.width + x
	word, bit := i/64, uint(i%64)
	if m.bits[word]&(1<<bit) == 0 {
		m.bits[word] |= 1 << bit
		m.count++
	}
}

// Contains reports whether (x, y) is a safe pixel.
func (m *Mask) Contains(x, y int) bool {
	if !m.inBounds(x, y) {
		return false
	}
	i := y*m.width + x
	return m.bits[i/64]&(1<<uint(i%64)) != 0
}

// Len returns the number of safe pixels.
func (m *Mask) Len() int {
	return m.count
}

// Size returns the mask bounds.
func (m *Mask) Size() (width, height int) {
	return m.width, m.height
}

func (m *Mask) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.width && y < m.height
}

// MaskFromImage thresholds an image: a pixel is safe when every color channel
// is strictly brighter than threshold (0-255). The mask has the image's size.
func MaskFromImage(img image.Image, threshold uint8) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	t := uint32(threshold)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r>>8 > t && g>>8 > t && bl>>8 > t {
				m.Set(x-b.Min.X, y-b.Min.Y)
			}
		}
	}
	return m
}
