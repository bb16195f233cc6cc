package engine

import "strings"

// cube converts an offset position (odd columns shifted down) to cube coordinates
func cube(p Position) (x, y, z int) {
	x = p.Col
	z = p.Row - (p.Col-(p.Col&1))/2
	y = -x - z
	return x, y, z
}

// HexDistance returns the number of hex steps between two positions
func HexDistance(from, to Position) int {
	ax, ay, az := cube(from)
	bx, by, bz := cube(to)
	return max(abs(ax-bx), abs(ay-by), abs(az-bz))
}

// Neighbors returns the six hexes adjacent to p
func Neighbors(p Position) [6]Position {
	x, _, z := cube(p)
	dirs := [6][2]int{{1, 0}, {1, -1}, {0, -1}, {-1, 0}, {-1, 1}, {0, 1}}

	var out [6]Position
	for i, d := range dirs {
		nx, nz := x+d[0], z+d[1]
		out[i] = Position{Col: nx, Row: nz + (nx-(nx&1))/2}
	}
	return out
}

// DirectionalView lists the tile reached by each movement command from the actor
func (gs *GameState) DirectionalView() []SurroundingTile {
	pos := gs.Actor.Position()
	out := make([]SurroundingTile, 0, len(Directions))
	for _, d := range Directions {
		target := pos.Step(d)
		st := SurroundingTile{Direction: d, Col: target.Col, Row: target.Row, Type: "void"}
		if tile, ok := gs.Grid.At(target.Col, target.Row); ok {
			st.Type = tile.Type.String()
			st.OnGrid = true
		}
		out = append(out, st)
	}
	return out
}

// ASCII renders the grid one line per row using tile letters, with '@' at
// the actor when it stands on the grid. The half-row shift of odd columns is
// not drawn.
func (g *Grid) ASCII(actor *Position) []string {
	lines := make([]string, 0, g.Height)
	for row := 0; row < g.Height; row++ {
		var b strings.Builder
		for col := 0; col < g.Width; col++ {
			if actor != nil && actor.Col == col && actor.Row == row {
				b.WriteString("@")
				continue
			}
			tile, _ := g.At(col, row)
			b.WriteString(tile.Type.Char())
		}
		lines = append(lines, b.String())
	}
	return lines
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Snapshot returns a shallow copy of the state that stays consistent while
// the engine keeps running. The grid is shared; it is never modified after
// generation, and history entries are only appended.
func (gs *GameState) Snapshot() *GameState {
	cp := *gs
	cp.Surroundings = append([]SurroundingTile(nil), gs.Surroundings...)
	return &cp
}
