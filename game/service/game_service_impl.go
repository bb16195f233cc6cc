package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/hexgrid/game/engine"
	"github.com/wricardo/mcp-training/hexgrid/game/hex"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	// Fallback: return as-is or "default"
	if configName == "" {
		return "default"
	}
	return configName
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Load configuration
	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// Prefer the input configName if provided, otherwise look up the config_id
	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	return s.sessionInfo(session, configID), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return s.sessionInfo(session, s.getConfigID(session.Config.Name)), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, s.getConfigID(sess.Config.Name)))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Move executes a single move for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	events := []GameEvent{}

	if reset {
		sess.Engine.Reset()
		events = append(events, resetEvent())
	}

	prevPos := sess.Engine.GetPlayerPosition()
	success := sess.Engine.Move(direction)
	newPos := sess.Engine.GetPlayerPosition()
	state := s.enrich(sess)

	result := &MoveResult{
		Success:   success,
		GameState: state,
		Message:   state.Message,
		Events:    events,
	}

	grid := sess.Engine.GetGrid()
	if success {
		result.Events = append(result.Events, moveEvents(grid, prevPos, newPos, direction)...)
		result.Step = stepInfo(grid, 1, direction, prevPos, newPos, sess.Engine.GetWorldPosition())
	} else {
		result.AttemptedTo = attemptInfo(grid, prevPos, direction)
	}

	log.Printf("[MOVE] session=%s dir=%s success=%v pos=(%d,%d)", sessionID, direction, success, newPos.Col, newPos.Row)

	// Auto-save session after move
	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after move: %v", sessionID, err)
	}

	return result, nil
}

// BulkMove executes multiple moves in sequence, stopping at the first failure
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	if reset {
		sess.Engine.Reset()
		result.Events = append(result.Events, resetEvent())
	}

	result.StartPos = sess.Engine.GetPlayerPosition()
	result.StartWorld = sess.Engine.GetWorldPosition()

	// Limit moves to prevent abuse
	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	grid := sess.Engine.GetGrid()
	for i, move := range moves {
		prevPos := sess.Engine.GetPlayerPosition()
		if !sess.Engine.Move(move) {
			result.Success = false
			result.StoppedOnMove = i + 1
			if _, err := engine.ParseDirection(move); err != nil {
				result.StopReasonCode = "invalid_direction"
				result.StoppedReason = fmt.Sprintf("move %d: unknown direction %q", i+1, move)
			} else {
				result.StopReasonCode = "blocked_boundary"
				result.StoppedReason = fmt.Sprintf("move %d blocked: %s", i+1, move)
				result.AttemptedTo = attemptInfo(grid, prevPos, move)
			}
			break
		}

		result.MovesExecuted++
		newPos := sess.Engine.GetPlayerPosition()
		result.Events = append(result.Events, moveEvents(grid, prevPos, newPos, move)...)
		result.Steps = append(result.Steps, *stepInfo(grid, i+1, move, prevPos, newPos, sess.Engine.GetWorldPosition()))
	}

	endState := s.enrich(sess)
	result.GameState = endState
	result.EndPos = endState.Actor.Position()
	result.EndWorld = endState.Actor.World
	result.Message = endState.Message
	result.OnGrid = endState.OnGrid
	result.PossibleMoves = sess.Engine.GetPossibleMoves()

	log.Printf("[BULK] session=%s executed=%d/%d end=(%d,%d)", sessionID, result.MovesExecuted, result.RequestedMoves, result.EndPos.Col, result.EndPos.Row)

	// Auto-save session after bulk moves
	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after bulk moves: %v", sessionID, err)
	}

	return result, nil
}

// Reset resets a game session to its start tile
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	sess.Engine.Reset()
	state := s.enrich(sess)

	// Auto-save session after reset
	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after reset: %v", sessionID, err)
	}

	return state, nil
}

// Enqueue queues directions for the session's next frame. Nothing is queued
// when any direction is invalid; when the queue fills up the remaining
// directions are dropped.
func (s *gameServiceImpl) Enqueue(ctx context.Context, sessionID string, directions []string) (*InputResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	for _, d := range directions {
		if _, err := engine.ParseDirection(d); err != nil {
			return nil, err
		}
	}

	result := &InputResult{}
	for _, d := range directions {
		if err := sess.Engine.Enqueue(d); err != nil {
			result.Dropped = len(directions) - result.Accepted
			break
		}
		result.Accepted++
	}
	result.Pending = sess.Engine.PendingInput()

	if result.Accepted == 0 && result.Dropped > 0 {
		return result, fmt.Errorf("session %s: %w", sessionID, engine.ErrInputQueueFull)
	}
	return result, nil
}

// Tick advances every session by one frame and returns the sessions in which
// queued moves were applied, ordered by session ID
func (s *gameServiceImpl) Tick(ctx context.Context) ([]*FrameUpdate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var updates []*FrameUpdate
	for _, sess := range s.sessions.List() {
		frame := sess.Engine.GetState().Frame
		applied := sess.Engine.Tick()
		if len(applied) == 0 {
			continue
		}

		updates = append(updates, &FrameUpdate{
			SessionID: sess.ID,
			Frame:     frame,
			Moves:     applied,
			GameState: s.enrich(sess),
		})

		if err := s.sessions.Save(sess.ID); err != nil {
			log.Printf("Warning: Failed to persist session %s after frame %d: %v", sess.ID, frame, err)
		}
	}

	sort.Slice(updates, func(i, j int) bool {
		return updates[i].SessionID < updates[j].SessionID
	})
	return updates, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return s.enrich(sess), nil
}

// GetTiles returns the session's generated grid
func (s *gameServiceImpl) GetTiles(ctx context.Context, sessionID string) (*engine.Grid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	return sess.Engine.GetGrid(), nil
}

// DescribeTile describes the cell at (col, row); cells off the grid are
// reported as void with their would-be world position
func (s *gameServiceImpl) DescribeTile(ctx context.Context, sessionID string, col, row int) (*TileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	grid := sess.Engine.GetGrid()
	actor := sess.Engine.GetPlayerPosition()
	pos := engine.Position{Col: col, Row: row}

	info := &TileInfo{
		Col:      col,
		Row:      row,
		Type:     "void",
		World:    grid.Layout().ToWorld(col, row),
		Distance: engine.HexDistance(actor, pos),
		HasActor: actor == pos,
	}
	if tile, ok := grid.At(col, row); ok {
		info.OnGrid = true
		info.Type = tile.Type.String()
		info.Color = tile.Type.Color().Hex()
	}
	return info, nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	// Calculate pagination
	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	// Get the slice of moves
	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// Reverse order (most recent first)
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append(moves, history[start:end]...)
	}

	// Ensure moves is not nil
	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// sessionInfo builds the API view of a session
func (s *gameServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID, // Return the config_id, not the display name
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      s.enrich(sess),
		GameConfig:     sess.Config,
	}
}

// enrich returns a snapshot of the session state with the computed helper
// views filled in
func (s *gameServiceImpl) enrich(sess *Session) *engine.GameState {
	state := sess.Engine.GetState()
	snap := state.Snapshot()
	snap.Surroundings = state.DirectionalView()
	snap.DistanceFromStart = engine.HexDistance(state.Actor.Position(), state.Start)
	return snap
}

func resetEvent() GameEvent {
	return GameEvent{
		Type:      "reset",
		Message:   "Game reset to the starting tile",
		Timestamp: time.Now(),
	}
}

// moveEvents generates events from a successful move
func moveEvents(grid *engine.Grid, prevPos, newPos engine.Position, direction string) []GameEvent {
	now := time.Now()
	events := []GameEvent{{
		Type:      "move",
		Message:   fmt.Sprintf("Moved %s to (%d,%d)", direction, newPos.Col, newPos.Row),
		Timestamp: now,
		Position:  newPos,
	}}

	prevTile, wasOn := grid.At(prevPos.Col, prevPos.Row)
	newTile, isOn := grid.At(newPos.Col, newPos.Row)

	switch {
	case wasOn && !isOn:
		events = append(events, GameEvent{
			Type:      "off_grid",
			Message:   fmt.Sprintf("Left the map at (%d,%d)", newPos.Col, newPos.Row),
			Timestamp: now,
			Position:  newPos,
		})
	case !wasOn && isOn:
		events = append(events, GameEvent{
			Type:      "enter_grid",
			Message:   fmt.Sprintf("Back on the map on %s", newTile.Type),
			Timestamp: now,
			Position:  newPos,
		})
	case wasOn && isOn && prevTile.Type != newTile.Type:
		events = append(events, GameEvent{
			Type:      "terrain",
			Message:   fmt.Sprintf("Entered %s", newTile.Type),
			Timestamp: now,
			Position:  newPos,
		})
	}

	return events
}

// stepInfo builds the compact trace entry of an executed move
func stepInfo(grid *engine.Grid, idx int, direction string, from, to engine.Position, world hex.Point) *StepInfo {
	step := &StepInfo{
		Idx:      idx,
		Dir:      direction,
		From:     from,
		To:       to,
		World:    world,
		TileChar: ".",
		TileType: "void",
		Success:  true,
	}
	if tile, ok := grid.At(to.Col, to.Row); ok {
		step.TileChar = tile.Type.Char()
		step.TileType = tile.Type.String()
		step.OnGrid = true
	}
	return step
}

// attemptInfo describes the target of a rejected move
func attemptInfo(grid *engine.Grid, from engine.Position, direction string) *AttemptInfo {
	dir, err := engine.ParseDirection(direction)
	if err != nil {
		return nil
	}
	target := from.Step(dir)
	info := &AttemptInfo{Col: target.Col, Row: target.Row, TileType: "void"}
	if tile, ok := grid.At(target.Col, target.Row); ok {
		info.TileType = tile.Type.String()
		info.OnGrid = true
	}
	return info
}
