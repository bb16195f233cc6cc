// Package render keeps a drawable copy of a composed grid: tile sprites,
// the actor sprite and the camera that maps world positions to screen pixels.
// It holds no graphics state; cmd/viewer draws from it with ebiten.
package render

import (
	"math"
	"sync"

	"github.com/wricardo/mcp-training/hexgrid/game/engine"
	"github.com/wricardo/mcp-training/hexgrid/game/hex"
)

// Sprite is one attached tile
type Sprite struct {
	Center hex.Point
	Color  engine.Color
}

type tileHandle int

type actorHandle struct{}

// Scene implements engine.Scene
type Scene struct {
	mu       sync.RWMutex
	layout   hex.Layout
	tiles    []Sprite
	actor    hex.Point
	hasActor bool
	moves    int
}

// NewScene creates an empty scene for hexes of the given layout
func NewScene(layout hex.Layout) *Scene {
	return &Scene{layout: layout}
}

// AttachTile records a tile and returns its index handle
func (s *Scene) AttachTile(pos hex.Point, color engine.Color) engine.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiles = append(s.tiles, Sprite{Center: pos, Color: color})
	return tileHandle(len(s.tiles) - 1)
}

// AttachActor places the actor sprite
func (s *Scene) AttachActor(pos hex.Point) engine.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actor = pos
	s.hasActor = true
	return actorHandle{}
}

// UpdateActorPosition moves the actor sprite. Tile handles are ignored.
func (s *Scene) UpdateActorPosition(h engine.Handle, pos hex.Point) {
	if _, ok := h.(actorHandle); !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actor = pos
	s.moves++
}

// Clear drops every sprite; the engine calls it before composing a new grid
func (s *Scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiles = nil
	s.hasActor = false
	s.moves = 0
}

// Tiles returns a copy of the tile sprites in attach order
func (s *Scene) Tiles() []Sprite {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Sprite, len(s.tiles))
	copy(out, s.tiles)
	return out
}

// Actor returns the actor sprite position, if one is attached
func (s *Scene) Actor() (hex.Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actor, s.hasActor
}

// Updates counts actor position updates since the last Clear
func (s *Scene) Updates() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.moves
}

// Layout returns the hex layout sprites are drawn with
func (s *Scene) Layout() hex.Layout {
	return s.layout
}

// Bounds is an axis-aligned world rectangle
type Bounds struct {
	Min, Max hex.Point
}

// Bounds returns the rectangle covering every tile's corners. An empty scene
// has zero bounds.
func (s *Scene) Bounds() Bounds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.tiles) == 0 {
		return Bounds{}
	}
	b := Bounds{
		Min: hex.Point{X: math.Inf(1), Z: math.Inf(1)},
		Max: hex.Point{X: math.Inf(-1), Z: math.Inf(-1)},
	}
	for _, t := range s.tiles {
		for _, c := range s.layout.Corners(t.Center) {
			b.Min.X = math.Min(b.Min.X, c.X)
			b.Min.Z = math.Min(b.Min.Z, c.Z)
			b.Max.X = math.Max(b.Max.X, c.X)
			b.Max.Z = math.Max(b.Max.Z, c.Z)
		}
	}
	return b
}
