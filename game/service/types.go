package service

import (
	"time"

	"github.com/wricardo/mcp-training/hexgrid/game/engine"
	"github.com/wricardo/mcp-training/hexgrid/game/hex"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success     bool              `json:"success"`
	GameState   *engine.GameState `json:"game_state"`
	Message     string            `json:"message"`
	Events      []GameEvent       `json:"events,omitempty"`
	Step        *StepInfo         `json:"step,omitempty"`
	AttemptedTo *AttemptInfo      `json:"attempted_to,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int               `json:"moves_executed"`
	RequestedMoves int               `json:"requested_moves"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`   // Human-readable reason
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // invalid_direction|blocked_boundary
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused stop
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartPos   engine.Position `json:"start_pos"`
	EndPos     engine.Position `json:"end_pos"`
	StartWorld hex.Point       `json:"start_world"`
	EndWorld   hex.Point       `json:"end_world"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	// Failure diagnostics
	AttemptedTo *AttemptInfo `json:"attempted_to,omitempty"`

	// Final status aids
	Message       string   `json:"message,omitempty"`
	OnGrid        bool     `json:"on_grid"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
}

// StepInfo is a compact record for each executed move
type StepInfo struct {
	Idx      int             `json:"idx"`
	Dir      string          `json:"dir"`
	From     engine.Position `json:"from"`
	To       engine.Position `json:"to"`
	World    hex.Point       `json:"world"`
	TileChar string          `json:"tile_char"`
	TileType string          `json:"tile_type"` // "void" off the grid
	OnGrid   bool            `json:"on_grid"`
	Success  bool            `json:"success"`
}

// AttemptInfo details the target of a rejected move
type AttemptInfo struct {
	Col      int    `json:"col"`
	Row      int    `json:"row"`
	TileType string `json:"tile_type"`
	OnGrid   bool   `json:"on_grid"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string          `json:"type"` // "move", "off_grid", "enter_grid", "terrain", "reset"
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position,omitempty"`
}

// InputResult reports how many directions were queued for the next frame
type InputResult struct {
	Accepted int `json:"accepted"`
	Dropped  int `json:"dropped"`
	Pending  int `json:"pending"`
}

// FrameUpdate describes one session's frame in which at least one queued
// move was applied
type FrameUpdate struct {
	SessionID string                    `json:"session_id"`
	Frame     uint64                    `json:"frame"`
	Moves     []engine.MoveHistoryEntry `json:"moves"`
	GameState *engine.GameState         `json:"game_state"`
}

// TileInfo describes one grid cell, on or off the grid
type TileInfo struct {
	Col      int       `json:"col"`
	Row      int       `json:"row"`
	OnGrid   bool      `json:"on_grid"`
	Type     string    `json:"type"` // tile type name, or "void"
	Color    string    `json:"color,omitempty"`
	World    hex.Point `json:"world"`
	Distance int       `json:"distance"` // hex steps from the actor
	HasActor bool      `json:"has_actor"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string  `json:"filename"`
	ConfigID    string  `json:"config_id"` // The identifier to use for session creation
	Name        string  `json:"name"`      // Display name
	Description string  `json:"description"`
	Format      string  `json:"format"` // json, yaml or yml
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	HexSize     float64 `json:"hex_size"`
	ClusterSize int     `json:"cluster_size"`
	ClampToGrid bool    `json:"clamp_to_grid"`
}
