package render

import (
	"math"

	"github.com/wricardo/mcp-training/hexgrid/game/hex"
)

// Camera maps world X to screen x and world Z to screen y
type Camera struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// FitCamera scales and centers b inside a width x height screen, leaving
// margin pixels on every side.
func FitCamera(b Bounds, width, height int, margin float64) Camera {
	w := b.Max.X - b.Min.X
	h := b.Max.Z - b.Min.Z
	availW := float64(width) - 2*margin
	availH := float64(height) - 2*margin
	if w <= 0 || h <= 0 || availW <= 0 || availH <= 0 {
		return Camera{Scale: 1, OffsetX: float64(width) / 2, OffsetY: float64(height) / 2}
	}

	scale := math.Min(availW/w, availH/h)
	return Camera{
		Scale:   scale,
		OffsetX: (float64(width)-w*scale)/2 - b.Min.X*scale,
		OffsetY: (float64(height)-h*scale)/2 - b.Min.Z*scale,
	}
}

// Project returns the screen position of p
func (c Camera) Project(p hex.Point) (x, y float32) {
	return float32(p.X*c.Scale + c.OffsetX), float32(p.Z*c.Scale + c.OffsetY)
}

// Polygon returns the six screen-space corners of the hex centered at center
func (c Camera) Polygon(layout hex.Layout, center hex.Point) [6][2]float32 {
	var out [6][2]float32
	for i, corner := range layout.Corners(center) {
		out[i][0], out[i][1] = c.Project(corner)
	}
	return out
}
