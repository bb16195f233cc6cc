package engine

import (
	"fmt"
	"strings"

	"github.com/wricardo/mcp-training/hexgrid/game/hex"
)

// Direction is a movement command
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"

	// Validation constants
	MinGridSize         = 1
	MaxGridSize         = 200
	DefaultClusterSize  = 3
	MaxClusterSize      = 1000
	DefaultInputBuffer  = 64
	MaxInputBuffer      = 4096
	MaxBulkMoves        = 50
	WebSocketBufferSize = 256
)

// Directions lists the four movement commands
var Directions = []Direction{Up, Down, Left, Right}

// ParseDirection parses a direction name (case-insensitive)
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Up, Down, Left, Right:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// Delta returns the column and row change of one step in d
func (d Direction) Delta() (dCol, dRow int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

// Position is an axial (column, row) pair
type Position struct {
	Col int `json:"col" yaml:"col"`
	Row int `json:"row" yaml:"row"`
}

// Step returns the position one unit away in d
func (p Position) Step(d Direction) Position {
	dc, dr := d.Delta()
	return Position{Col: p.Col + dc, Row: p.Row + dr}
}

// Messages are the player-facing texts of a configuration
type Messages struct {
	Welcome string `json:"welcome" yaml:"welcome"`
	Moved   string `json:"moved,omitempty" yaml:"moved,omitempty"`       // format: col, row
	OffGrid string `json:"off_grid,omitempty" yaml:"off_grid,omitempty"` // format: col, row
	Blocked string `json:"blocked,omitempty" yaml:"blocked,omitempty"`
	Reset   string `json:"reset,omitempty" yaml:"reset,omitempty"`
}

// GameConfig describes how a grid is generated and how the actor behaves
type GameConfig struct {
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description" yaml:"description"`
	Width       int                `json:"width" yaml:"width"`
	Height      int                `json:"height" yaml:"height"`
	HexSize     float64            `json:"hex_size,omitempty" yaml:"hex_size,omitempty"`
	ClusterSize int                `json:"cluster_size,omitempty" yaml:"cluster_size,omitempty"`
	Seed        int64              `json:"seed,omitempty" yaml:"seed,omitempty"`
	TileWeights map[string]float64 `json:"tile_weights,omitempty" yaml:"tile_weights,omitempty"`
	Start       Position           `json:"start" yaml:"start"`
	ClampToGrid bool               `json:"clamp_to_grid,omitempty" yaml:"clamp_to_grid,omitempty"`
	InputBuffer int                `json:"input_buffer,omitempty" yaml:"input_buffer,omitempty"`
	Messages    Messages           `json:"messages" yaml:"messages"`
}

// SurroundingTile describes the cell one step away from the actor
type SurroundingTile struct {
	Direction Direction `json:"direction"`
	Col       int       `json:"col"`
	Row       int       `json:"row"`
	Type      string    `json:"type"` // tile type name, or "void" off the grid
	OnGrid    bool      `json:"on_grid"`
}

// GameState represents the complete game state
type GameState struct {
	Grid        *Grid              `json:"grid"`
	Actor       Actor              `json:"actor"`
	Start       Position           `json:"start"`
	Seed        int64              `json:"seed"`
	Frame       uint64             `json:"frame"`
	OnGrid      bool               `json:"on_grid"`
	Message     string             `json:"message"`
	ConfigName  string             `json:"config_name"`
	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`

	// CurrentMoves tracks only the moves since the last reset. It mirrors MoveHistory entries
	// but gets cleared on reset while MoveHistory remains cumulative.
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`

	// Computed helper views (not required for core game logic)
	Surroundings      []SurroundingTile `json:"surroundings,omitempty"`
	DistanceFromStart int               `json:"distance_from_start"`
}

// MoveHistoryEntry represents a single move in the game history
type MoveHistoryEntry struct {
	Action       string    `json:"action"`
	FromPosition Position  `json:"from_position"`
	ToPosition   Position  `json:"to_position"`
	WorldTo      hex.Point `json:"world_to"`
	Frame        uint64    `json:"frame"`
	Timestamp    int64     `json:"timestamp"`
	Success      bool      `json:"success"`
	MoveNumber   int       `json:"move_number"`
}
