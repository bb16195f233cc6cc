package engine

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/wricardo/mcp-training/hexgrid/game/hex"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	GetPlayerPosition() Position
	GetWorldPosition() hex.Point

	// Movement operations
	Move(direction string) bool
	BulkMove(moves []string) []bool
	CanMove(direction string) bool
	GetPossibleMoves() []string

	// Frame loop
	Enqueue(direction string) error
	Tick() []MoveHistoryEntry

	// Grid
	GetGrid() *Grid
	TileAt(col, row int) (Tile, bool)

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry

	// Rendering
	Attach(scene Scene)
}

// GameEngine implements the Engine interface
type GameEngine struct {
	state  *GameState
	config *GameConfig
	input  *InputQueue
	rng    *rand.Rand

	scene       Scene
	actorHandle Handle
}

// Option customizes engine construction
type Option func(*GameEngine)

// WithRand makes grid generation draw from rng instead of the configured seed
func WithRand(rng *rand.Rand) Option {
	return func(e *GameEngine) {
		e.rng = rng
	}
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	engine := &GameEngine{config: config}
	for _, opt := range opts {
		opt(engine)
	}

	if err := engine.generate(); err != nil {
		return nil, err
	}
	return engine, nil
}

// NewEngineWithDefaults creates a new game engine with default configuration
func NewEngineWithDefaults() *GameEngine {
	engine, err := NewEngine(DefaultGameConfig())
	if err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return engine
}

// generate builds a fresh grid and state from the current config
func (e *GameEngine) generate() error {
	weights, err := e.config.WeightTable()
	if err != nil {
		return err
	}

	seed := e.config.Seed
	rng := e.rng
	if rng == nil {
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}

	gen := NewGenerator(hex.NewLayout(e.config.EffectiveHexSize()), weights, e.config.EffectiveClusterSize(), rng)
	grid, err := gen.Generate(e.config.Width, e.config.Height)
	if err != nil {
		return err
	}

	e.state = InitGameState(e.config, grid, seed)
	e.input = NewInputQueue(e.config.EffectiveInputBuffer())
	e.recompose()
	return nil
}

// recompose clears the attached scene, if it supports clearing, and attaches
// the current grid and actor again.
func (e *GameEngine) recompose() {
	if e.scene == nil {
		return
	}
	if c, ok := e.scene.(interface{ Clear() }); ok {
		c.Clear()
	}
	e.actorHandle = Compose(e.scene, e.state.Grid, &e.state.Actor)
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetState sets the game state (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if state.Grid == nil {
		return fmt.Errorf("state grid cannot be nil")
	}
	if len(state.Grid.Tiles) != state.Grid.Width*state.Grid.Height {
		return fmt.Errorf("state grid has %d tiles, expected %d", len(state.Grid.Tiles), state.Grid.Width*state.Grid.Height)
	}

	state.Actor.bind(state.Grid.Layout())
	state.OnGrid = state.Grid.Contains(state.Actor.Col, state.Actor.Row)
	regrid := e.state == nil || !sameGrid(e.state.Grid, state.Grid)
	e.state = state
	e.input.Drain()
	if regrid {
		e.recompose()
	} else {
		e.notifyScene()
	}
	return nil
}

func sameGrid(a, b *Grid) bool {
	if a == b {
		return true
	}
	if a.Width != b.Width || a.Height != b.Height || a.HexSize != b.HexSize {
		return false
	}
	for i := range a.Tiles {
		if a.Tiles[i] != b.Tiles[i] {
			return false
		}
	}
	return true
}

// Reset returns the actor to the start tile, keeping the grid
func (e *GameEngine) Reset() *GameState {
	e.input.Drain()
	e.state.Actor.MoveTo(e.state.Start.Col, e.state.Start.Row)
	e.state.OnGrid = e.state.Grid.Contains(e.state.Start.Col, e.state.Start.Row)
	e.state.Message = messageOr(e.config.Messages.Reset, defaultResetMessage)

	// Cumulative history survives; only the current segment is cleared
	e.state.CurrentMoves = []MoveHistoryEntry{}
	e.state.CurrentMovesCount = 0

	e.notifyScene()
	return e.state
}

// GetPlayerPosition returns the actor's axial position
func (e *GameEngine) GetPlayerPosition() Position {
	return e.state.Actor.Position()
}

// GetWorldPosition returns the actor's world position
func (e *GameEngine) GetWorldPosition() hex.Point {
	return e.state.Actor.World
}

// Move moves the actor one step in the given direction immediately
func (e *GameEngine) Move(direction string) bool {
	dir, err := ParseDirection(direction)
	if err != nil {
		prev := e.state.Actor.Position()
		e.state.Message = fmt.Sprintf("Unknown direction %q (use up, down, left or right)", direction)
		e.state.AddMoveToHistory(direction, prev, prev, e.state.Actor.World, false)
		return false
	}
	return e.apply(dir)
}

// apply performs one validated move
func (e *GameEngine) apply(dir Direction) bool {
	prev := e.state.Actor.Position()
	target := prev.Step(dir)
	onGrid := e.state.Grid.Contains(target.Col, target.Row)

	if e.config.ClampToGrid && !onGrid {
		e.state.Message = messageOr(e.config.Messages.Blocked, defaultBlockedMessage)
		e.state.AddMoveToHistory(string(dir), prev, prev, e.state.Actor.World, false)
		return false
	}

	e.state.Actor.Move(dir)
	e.state.OnGrid = onGrid
	if onGrid {
		e.state.Message = fmt.Sprintf(messageOr(e.config.Messages.Moved, defaultMovedMessage), target.Col, target.Row)
	} else {
		e.state.Message = fmt.Sprintf(messageOr(e.config.Messages.OffGrid, defaultOffGridMessage), target.Col, target.Row)
	}

	e.state.AddMoveToHistory(string(dir), prev, target, e.state.Actor.World, true)
	e.notifyScene()
	return true
}

// BulkMove executes multiple moves in sequence, returning success status for each.
// Execution stops at the first failed move.
func (e *GameEngine) BulkMove(moves []string) []bool {
	results := make([]bool, 0, len(moves))

	for _, direction := range moves {
		success := e.Move(direction)
		results = append(results, success)
		if !success {
			break
		}
	}

	return results
}

// CanMove checks if the actor can move in the specified direction
func (e *GameEngine) CanMove(direction string) bool {
	dir, err := ParseDirection(direction)
	if err != nil {
		return false
	}
	if !e.config.ClampToGrid {
		return true
	}
	target := e.state.Actor.Position().Step(dir)
	return e.state.Grid.Contains(target.Col, target.Row)
}

// GetPossibleMoves returns all valid directions the actor can move
func (e *GameEngine) GetPossibleMoves() []string {
	var possible []string
	for _, dir := range Directions {
		if e.CanMove(string(dir)) {
			possible = append(possible, string(dir))
		}
	}
	return possible
}

// Enqueue queues a movement command for the next Tick
func (e *GameEngine) Enqueue(direction string) error {
	dir, err := ParseDirection(direction)
	if err != nil {
		return err
	}
	return e.input.Enqueue(dir)
}

// PendingInput returns the number of queued commands
func (e *GameEngine) PendingInput() int {
	return e.input.Len()
}

// Tick runs one frame: queued commands are applied in arrival order, then the
// actor's Update hook runs once. It returns the history entries of the moves
// applied in this frame.
func (e *GameEngine) Tick() []MoveHistoryEntry {
	var applied []MoveHistoryEntry
	for _, dir := range e.input.Drain() {
		e.apply(dir)
		applied = append(applied, *e.GetLastMove())
	}

	e.state.Actor.Update()
	e.state.Frame++
	return applied
}

// GetGrid returns the generated grid
func (e *GameEngine) GetGrid() *Grid {
	return e.state.Grid
}

// TileAt returns the tile at (col, row)
func (e *GameEngine) TileAt(col, row int) (Tile, bool) {
	return e.state.Grid.At(col, row)
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// SetConfig sets a new game configuration and regenerates the grid
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}

	e.config = config
	return e.generate()
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.state.MoveHistory
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	return &e.state.MoveHistory[len(e.state.MoveHistory)-1]
}

// Attach composes the grid and actor into scene; later position changes are
// forwarded to it.
func (e *GameEngine) Attach(scene Scene) {
	e.scene = scene
	if scene != nil {
		e.actorHandle = Compose(scene, e.state.Grid, &e.state.Actor)
	}
}

func (e *GameEngine) notifyScene() {
	if e.scene != nil {
		e.scene.UpdateActorPosition(e.actorHandle, e.state.Actor.World)
	}
}

// AddMoveToHistory adds a move to the game's move history
func (gs *GameState) AddMoveToHistory(action string, fromPos, toPos Position, worldTo hex.Point, success bool) {
	entry := MoveHistoryEntry{
		Action:       action,
		FromPosition: fromPos,
		ToPosition:   toPos,
		WorldTo:      worldTo,
		Frame:        gs.Frame,
		Timestamp:    time.Now().Unix(),
		Success:      success,
		MoveNumber:   gs.TotalMoves + 1,
	}
	// Append to cumulative history (never cleared by reset) and increment total
	gs.MoveHistory = append(gs.MoveHistory, entry)
	gs.TotalMoves++

	// Append to current segment history and increment its counter
	gs.CurrentMoves = append(gs.CurrentMoves, entry)
	gs.CurrentMovesCount++
}
