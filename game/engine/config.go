package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/wricardo/mcp-training/hexgrid/game/hex"
)

const (
	defaultMovedMessage   = "Moved to (%d,%d)"
	defaultOffGridMessage = "Off the map at (%d,%d)"
	defaultBlockedMessage = "Can't leave the map!"
	defaultResetMessage   = "Game reset to the starting tile"
)

// ValidateGameConfig validates a game configuration for correctness
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return errors.New("config validation: config is nil")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	// Validate dimensions
	if config.Width < MinGridSize || config.Width > MaxGridSize {
		return fmt.Errorf("config validation: %w: width must be between %d and %d, got %d",
			ErrInvalidDimension, MinGridSize, MaxGridSize, config.Width)
	}
	if config.Height < MinGridSize || config.Height > MaxGridSize {
		return fmt.Errorf("config validation: %w: height must be between %d and %d, got %d",
			ErrInvalidDimension, MinGridSize, MaxGridSize, config.Height)
	}

	// Validate generation parameters
	if config.HexSize < 0 || math.IsNaN(config.HexSize) || math.IsInf(config.HexSize, 0) {
		return fmt.Errorf("config validation: hex_size must be a positive number, got %v", config.HexSize)
	}
	if config.ClusterSize < 0 || config.ClusterSize > MaxClusterSize {
		return fmt.Errorf("config validation: cluster_size must be between 1 and %d, got %d", MaxClusterSize, config.ClusterSize)
	}
	if config.InputBuffer < 0 || config.InputBuffer > MaxInputBuffer {
		return fmt.Errorf("config validation: input_buffer must be between 1 and %d, got %d", MaxInputBuffer, config.InputBuffer)
	}
	if _, err := config.WeightTable(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	// Validate start position
	if config.Start.Col < 0 || config.Start.Col >= config.Width ||
		config.Start.Row < 0 || config.Start.Row >= config.Height {
		return fmt.Errorf("config validation: start (%d,%d) must lie inside the %dx%d grid",
			config.Start.Col, config.Start.Row, config.Width, config.Height)
	}

	// Validate messages
	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if m := config.Messages.Moved; m != "" && !isPositionTemplate(m) {
		return fmt.Errorf("config validation: messages.moved must contain %%d twice for column and row and no other verbs")
	}
	if m := config.Messages.OffGrid; m != "" && !isPositionTemplate(m) {
		return fmt.Errorf("config validation: messages.off_grid must contain %%d twice for column and row and no other verbs")
	}

	return nil
}

// EffectiveHexSize returns the hex size, falling back to hex.DefaultSize
func (c *GameConfig) EffectiveHexSize() float64 {
	if c.HexSize <= 0 {
		return hex.DefaultSize
	}
	return c.HexSize
}

// EffectiveClusterSize returns the cluster size, falling back to DefaultClusterSize
func (c *GameConfig) EffectiveClusterSize() int {
	if c.ClusterSize <= 0 {
		return DefaultClusterSize
	}
	return c.ClusterSize
}

// EffectiveInputBuffer returns the input queue capacity
func (c *GameConfig) EffectiveInputBuffer() int {
	if c.InputBuffer <= 0 {
		return DefaultInputBuffer
	}
	return c.InputBuffer
}

// WeightTable builds the tile weight table, using DefaultWeights when none are configured
func (c *GameConfig) WeightTable() (*WeightTable, error) {
	if len(c.TileWeights) == 0 {
		return DefaultWeightTable(), nil
	}
	return NewWeightTableFromNames(c.TileWeights)
}

// DefaultGameConfig returns the configuration of the original prototype:
// a 10x10 grid of 0.5-sized hexes with the player in the corner.
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:        "default",
		Description: "10x10 hex grid with plains, desert and river clusters",
		Width:       10,
		Height:      10,
		HexSize:     hex.DefaultSize,
		ClusterSize: DefaultClusterSize,
		TileWeights: map[string]float64{
			"plains": 0.5,
			"desert": 0.3,
			"river":  0.2,
		},
		Messages: Messages{
			Welcome: "Welcome! Use the arrow keys to explore the hex grid.",
			Moved:   defaultMovedMessage,
			OffGrid: defaultOffGridMessage,
		},
	}
}

// InitGameState creates the initial state for a generated grid
func InitGameState(config *GameConfig, grid *Grid, seed int64) *GameState {
	actor := NewActor(grid.Layout(), config.Start.Col, config.Start.Row)

	return &GameState{
		Grid:              grid,
		Actor:             *actor,
		Start:             config.Start,
		Seed:              seed,
		Frame:             0,
		OnGrid:            grid.Contains(config.Start.Col, config.Start.Row),
		Message:           config.Messages.Welcome,
		ConfigName:        config.Name,
		MoveHistory:       []MoveHistoryEntry{},
		TotalMoves:        0,
		CurrentMoves:      []MoveHistoryEntry{},
		CurrentMovesCount: 0,
	}
}

// isPositionTemplate reports whether msg formats exactly a column and a row:
// two %d verbs, with %% as the only other escape.
func isPositionTemplate(msg string) bool {
	verbs := 0
	for i := 0; i < len(msg); i++ {
		if msg[i] != '%' {
			continue
		}
		if i+1 >= len(msg) {
			return false
		}
		i++
		switch msg[i] {
		case '%':
		case 'd':
			verbs++
		default:
			return false
		}
	}
	return verbs == 2
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
