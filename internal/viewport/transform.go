// Package viewport maps between world and screen coordinates and owns the
// operator's pan/zoom state.
package viewport

import "math"

const (
	MinZoom = 0.2
	MaxZoom = 5.0

	zoomOutFactor = 0.9
	zoomInFactor  = 1.1
)

// Point is a 2-D coordinate in either screen pixels or world units.
type Point struct {
	X, Y float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Mid returns the midpoint of p and q.
func (p Point) Mid(q Point) Point { return Point{(p.X + q.X) / 2, (p.Y + q.Y) / 2} }

// State is the affine world→screen transform: screen = world*Zoom + Offset.
type State struct {
	Zoom    float64
	OffsetX float64
	OffsetY float64
}

// DefaultState is the camera at session start.
func DefaultState() State {
	return State{Zoom: 1}
}

// ToWorld converts a screen point to world coordinates.
func (s State) ToWorld(p Point) Point {
	return Point{
		X: (p.X - s.OffsetX) / s.Zoom,
		Y: (p.Y - s.OffsetY) / s.Zoom,
	}
}

// ToScreen converts a world point to screen coordinates. Inverse of ToWorld.
func (s State) ToScreen(p Point) Point {
	return Point{
		X: p.X*s.Zoom + s.OffsetX,
		Y: p.Y*s.Zoom + s.OffsetY,
	}
}

// VisibleWorld returns the world rectangle covered by a w×h surface.
func (s State) VisibleWorld(w, h float64) (min, max Point) {
	return s.ToWorld(Point{}), s.ToWorld(Point{w, h})
}

func clampZoom(z float64) float64 {
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}
