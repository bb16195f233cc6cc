package engine

import (
	"fmt"
	"math/rand"

	"github.com/wricardo/mcp-training/hexgrid/game/hex"
)

// Tile is one positioned hex of the grid
type Tile struct {
	Col   int       `json:"col"`
	Row   int       `json:"row"`
	Type  TileType  `json:"type"`
	World hex.Point `json:"world"`
}

// Grid holds width x height tiles in generation order (column outer, row inner)
type Grid struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	HexSize     float64 `json:"hex_size"`
	ClusterSize int     `json:"cluster_size"`
	Tiles       []Tile  `json:"tiles"`
}

// Layout returns the hex layout the grid was generated with
func (g *Grid) Layout() hex.Layout {
	return hex.NewLayout(g.HexSize)
}

// Contains reports whether (col, row) lies inside the grid
func (g *Grid) Contains(col, row int) bool {
	return col >= 0 && col < g.Width && row >= 0 && row < g.Height
}

// Index returns the position of (col, row) in Tiles
func (g *Grid) Index(col, row int) (int, bool) {
	if !g.Contains(col, row) {
		return 0, false
	}
	return col*g.Height + row, true
}

// At returns the tile at (col, row)
func (g *Grid) At(col, row int) (Tile, bool) {
	i, ok := g.Index(col, row)
	if !ok || i >= len(g.Tiles) {
		return Tile{}, false
	}
	return g.Tiles[i], true
}

// Counts returns the number of tiles of each type
func (g *Grid) Counts() map[TileType]int {
	counts := make(map[TileType]int, len(TileTypes))
	for _, t := range g.Tiles {
		counts[t.Type]++
	}
	return counts
}

// Generator produces grids with clustered random tile types
type Generator struct {
	Layout      hex.Layout
	Weights     *WeightTable
	ClusterSize int
	rng         *rand.Rand
}

// NewGenerator creates a generator. A nil weights table uses DefaultWeights,
// a non-positive cluster size uses DefaultClusterSize.
func NewGenerator(layout hex.Layout, weights *WeightTable, clusterSize int, rng *rand.Rand) *Generator {
	if weights == nil {
		weights = DefaultWeightTable()
	}
	if clusterSize <= 0 {
		clusterSize = DefaultClusterSize
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Generator{
		Layout:      layout,
		Weights:     weights,
		ClusterSize: clusterSize,
		rng:         rng,
	}
}

// Generate builds a width x height grid. A new tile type is drawn every
// ClusterSize tiles in generation order.
func (gen *Generator) Generate(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimension, width, height)
	}

	grid := &Grid{
		Width:       width,
		Height:      height,
		HexSize:     gen.Layout.Size,
		ClusterSize: gen.ClusterSize,
		Tiles:       make([]Tile, 0, width*height),
	}

	current := gen.next()
	clusterCounter := 0

	for col := 0; col < width; col++ {
		for row := 0; row < height; row++ {
			if clusterCounter >= gen.ClusterSize {
				current = gen.next()
				clusterCounter = 0
			}

			grid.Tiles = append(grid.Tiles, Tile{
				Col:   col,
				Row:   row,
				Type:  current,
				World: gen.Layout.ToWorld(col, row),
			})
			clusterCounter++
		}
	}

	return grid, nil
}

func (gen *Generator) next() TileType {
	return gen.Weights.Pick(gen.rng.Float64())
}
