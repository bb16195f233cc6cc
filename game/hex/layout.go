package hex

import "math"

// DefaultSize is the hex circumradius used when a layout is built with a
// non-positive size.
const DefaultSize = 0.5

// Point is a world-space position on the ground plane.
type Point struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// Add returns p translated by o.
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Z: p.Z + o.Z}
}

// Layout converts axial (col, row) coordinates to world positions.
type Layout struct {
	Size float64 `json:"size"`
}

// NewLayout creates a layout for hexes of the given circumradius
func NewLayout(size float64) Layout {
	if size <= 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		size = DefaultSize
	}
	return Layout{Size: size}
}

// XOffset is the horizontal distance between adjacent column centers.
func (l Layout) XOffset() float64 {
	return l.Size * 1.5
}

// ZOffset is the vertical distance between adjacent row centers.
func (l Layout) ZOffset() float64 {
	return l.Size * math.Sqrt(3)
}

// ToWorld returns the world position of the hex at (col, row).
func (l Layout) ToWorld(col, row int) Point {
	zOffset := l.ZOffset()
	return Point{
		X: float64(col) * l.XOffset(),
		Z: float64(row)*zOffset + float64(Parity(col))*(zOffset/2),
	}
}

// Origin returns the translation that centers a width x height grid on the
// world origin.
func (l Layout) Origin(width, height int) Point {
	return Point{
		X: -(float64(width)*l.XOffset())/2 + l.Size,
		Z: -(float64(height) * l.ZOffset()) / 2,
	}
}

// Corners returns the six corners of a flat-top hex centered at center,
// starting at the east corner and going counter-clockwise.
func (l Layout) Corners(center Point) [6]Point {
	var corners [6]Point
	for i := 0; i < 6; i++ {
		angle := math.Pi / 3 * float64(i)
		corners[i] = Point{
			X: center.X + l.Size*math.Cos(angle),
			Z: center.Z + l.Size*math.Sin(angle),
		}
	}
	return corners
}

// Parity returns col mod 2 using Euclidean modulo (always 0 or 1).
func Parity(col int) int {
	return Mod(col, 2)
}

// Mod returns the Euclidean remainder of a / m for m > 0.
func Mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
