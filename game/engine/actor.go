package engine

import "github.com/wricardo/mcp-training/hexgrid/game/hex"

// Actor is the player token. Its world position always matches its axial
// coordinates.
type Actor struct {
	Col   int       `json:"col"`
	Row   int       `json:"row"`
	World hex.Point `json:"world"`

	layout hex.Layout
}

// NewActor places an actor at (col, row)
func NewActor(layout hex.Layout, col, row int) *Actor {
	a := &Actor{Col: col, Row: row}
	a.bind(layout)
	return a
}

// Position returns the actor's axial coordinates
func (a *Actor) Position() Position {
	return Position{Col: a.Col, Row: a.Row}
}

// Move steps one unit in d. There is no bounds check.
func (a *Actor) Move(d Direction) {
	dc, dr := d.Delta()
	a.MoveTo(a.Col+dc, a.Row+dr)
}

// MoveTo places the actor at (col, row)
func (a *Actor) MoveTo(col, row int) {
	a.Col = col
	a.Row = row
	a.World = a.layout.ToWorld(col, row)
}

// Update is the per-frame hook.
func (a *Actor) Update() {}

// bind attaches a layout (lost across JSON round-trips) and recomputes the
// world position.
func (a *Actor) bind(layout hex.Layout) {
	a.layout = layout
	a.World = layout.ToWorld(a.Col, a.Row)
}
