package engine

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/wricardo/mcp-training/hexgrid/game/hex"
)

// createTestConfig creates a small deterministic configuration for testing
func createTestConfig() *GameConfig {
	return &GameConfig{
		Name:        "test",
		Description: "Test configuration",
		Width:       5,
		Height:      4,
		HexSize:     0.5,
		ClusterSize: 3,
		Seed:        42,
		TileWeights: map[string]float64{"plains": 0.5, "desert": 0.3, "river": 0.2},
		Messages: Messages{
			Welcome: "Welcome to test!",
			Moved:   "At (%d,%d)",
			OffGrid: "Void (%d,%d)",
		},
	}
}

// recordingScene counts scene calls
type recordingScene struct {
	tiles     []hex.Point
	colors    []Color
	actors    int
	updates   []hex.Point
	cleared   int
	lastActor Handle
}

func (s *recordingScene) AttachTile(pos hex.Point, color Color) Handle {
	s.tiles = append(s.tiles, pos)
	s.colors = append(s.colors, color)
	return len(s.tiles)
}

func (s *recordingScene) AttachActor(pos hex.Point) Handle {
	s.actors++
	s.lastActor = "actor"
	return s.lastActor
}

func (s *recordingScene) UpdateActorPosition(h Handle, pos hex.Point) {
	if h != s.lastActor {
		panic("unexpected handle")
	}
	s.updates = append(s.updates, pos)
}

func (s *recordingScene) Clear() {
	s.cleared++
	s.tiles = nil
	s.colors = nil
}

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(createTestConfig())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	state := engine.GetState()
	if state == nil {
		t.Fatal("Expected non-nil state")
	}
	if len(state.Grid.Tiles) != 20 {
		t.Errorf("Expected 20 tiles, got %d", len(state.Grid.Tiles))
	}
	if state.Message != "Welcome to test!" {
		t.Errorf("Expected welcome message, got %q", state.Message)
	}
	if pos := engine.GetPlayerPosition(); pos != (Position{0, 0}) {
		t.Errorf("Expected actor at (0,0), got %v", pos)
	}
	if !state.OnGrid {
		t.Error("Expected actor to start on the grid")
	}
	if state.Seed != 42 {
		t.Errorf("Expected seed 42, got %d", state.Seed)
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	config := createTestConfig()
	config.Width = 0

	_, err := NewEngine(config)
	if !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("Expected ErrInvalidDimension, got %v", err)
	}
}

func TestNewEngineWithDefaults(t *testing.T) {
	engine := NewEngineWithDefaults()

	grid := engine.GetGrid()
	if grid.Width != 10 || grid.Height != 10 {
		t.Errorf("Expected 10x10 grid, got %dx%d", grid.Width, grid.Height)
	}
	if grid.HexSize != 0.5 {
		t.Errorf("Expected hex size 0.5, got %v", grid.HexSize)
	}
	if engine.GetState().Seed == 0 {
		t.Error("Expected a time-derived seed when none is configured")
	}
}

func TestEngine_SeedIsReproducible(t *testing.T) {
	a, _ := NewEngine(createTestConfig())
	b, _ := NewEngine(createTestConfig())

	for i := range a.GetGrid().Tiles {
		if a.GetGrid().Tiles[i].Type != b.GetGrid().Tiles[i].Type {
			t.Fatalf("tile %d differs for the same seed", i)
		}
	}
}

func TestEngine_WithRand(t *testing.T) {
	config := createTestConfig()
	a, _ := NewEngine(config, WithRand(rand.New(rand.NewSource(5))))
	gen := NewGenerator(hex.NewLayout(0.5), nil, 3, rand.New(rand.NewSource(5)))
	want, _ := gen.Generate(config.Width, config.Height)

	for i := range want.Tiles {
		if a.GetGrid().Tiles[i].Type != want.Tiles[i].Type {
			t.Fatalf("tile %d: engine %s, generator %s", i, a.GetGrid().Tiles[i].Type, want.Tiles[i].Type)
		}
	}
}

func TestEngine_BasicMovement(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	for _, dir := range []string{"right", "right", "down"} {
		if !engine.Move(dir) {
			t.Fatalf("Move(%q) failed: %s", dir, engine.GetState().Message)
		}
	}

	if pos := engine.GetPlayerPosition(); pos != (Position{2, 1}) {
		t.Errorf("Expected (2,1), got %v", pos)
	}
	if want := engine.GetGrid().Layout().ToWorld(2, 1); engine.GetWorldPosition() != want {
		t.Errorf("Expected world %v, got %v", want, engine.GetWorldPosition())
	}
	if engine.GetState().Message != "At (2,1)" {
		t.Errorf("Unexpected message %q", engine.GetState().Message)
	}
	if engine.GetState().TotalMoves != 3 {
		t.Errorf("Expected 3 moves, got %d", engine.GetState().TotalMoves)
	}
}

func TestEngine_MoveOffGrid(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	if !engine.Move("up") {
		t.Fatal("Expected unclamped move off the grid to succeed")
	}

	state := engine.GetState()
	if state.OnGrid {
		t.Error("Expected actor to be off the grid")
	}
	if state.Message != "Void (0,-1)" {
		t.Errorf("Unexpected message %q", state.Message)
	}
	if want := engine.GetGrid().Layout().ToWorld(0, -1); engine.GetWorldPosition() != want {
		t.Errorf("Expected world %v, got %v", want, engine.GetWorldPosition())
	}

	engine.Move("down")
	if !engine.GetState().OnGrid {
		t.Error("Expected actor back on the grid")
	}
}

func TestEngine_ClampToGrid(t *testing.T) {
	config := createTestConfig()
	config.ClampToGrid = true
	engine, _ := NewEngine(config)

	if engine.Move("left") {
		t.Error("Expected clamped move off the grid to fail")
	}
	if pos := engine.GetPlayerPosition(); pos != (Position{0, 0}) {
		t.Errorf("Expected actor to stay at (0,0), got %v", pos)
	}
	if engine.GetState().Message != defaultBlockedMessage {
		t.Errorf("Unexpected message %q", engine.GetState().Message)
	}

	last := engine.GetLastMove()
	if last == nil || last.Success {
		t.Error("Expected a failed history entry")
	}
}

func TestEngine_InvalidDirection(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	if engine.Move("diagonal") {
		t.Error("Expected invalid direction to fail")
	}
	if engine.GetPlayerPosition() != (Position{0, 0}) {
		t.Error("Actor should not move on invalid direction")
	}
	if last := engine.GetLastMove(); last == nil || last.Success || last.Action != "diagonal" {
		t.Errorf("Unexpected last move %+v", last)
	}
}

func TestEngine_CanMove(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	if !engine.CanMove("up") {
		t.Error("Unclamped engine should allow moving off the grid")
	}
	if engine.CanMove("sideways") {
		t.Error("Invalid direction should not be allowed")
	}

	config := createTestConfig()
	config.ClampToGrid = true
	clamped, _ := NewEngine(config)

	moves := clamped.GetPossibleMoves()
	if len(moves) != 2 {
		t.Fatalf("Expected 2 moves from the corner, got %v", moves)
	}
	if moves[0] != "down" || moves[1] != "right" {
		t.Errorf("Expected [down right], got %v", moves)
	}
}

func TestEngine_BulkMove(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	results := engine.BulkMove([]string{"right", "down", "bogus", "right"})
	if len(results) != 3 {
		t.Fatalf("Expected execution to stop after the failure, got %v", results)
	}
	if !results[0] || !results[1] || results[2] {
		t.Errorf("Unexpected results %v", results)
	}
	if pos := engine.GetPlayerPosition(); pos != (Position{1, 1}) {
		t.Errorf("Expected (1,1), got %v", pos)
	}
}

func TestEngine_TickAppliesQueuedInput(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	for _, dir := range []string{"right", "down", "down"} {
		if err := engine.Enqueue(dir); err != nil {
			t.Fatalf("Enqueue(%q) failed: %v", dir, err)
		}
	}
	if engine.GetPlayerPosition() != (Position{0, 0}) {
		t.Error("Enqueue must not move the actor before Tick")
	}
	if engine.PendingInput() != 3 {
		t.Errorf("Expected 3 pending, got %d", engine.PendingInput())
	}

	applied := engine.Tick()
	if len(applied) != 3 {
		t.Fatalf("Expected 3 applied moves, got %d", len(applied))
	}
	for i, want := range []string{"right", "down", "down"} {
		if applied[i].Action != want {
			t.Errorf("applied[%d] = %s, want %s", i, applied[i].Action, want)
		}
		if applied[i].Frame != 0 {
			t.Errorf("applied[%d] frame = %d, want 0", i, applied[i].Frame)
		}
	}
	if pos := engine.GetPlayerPosition(); pos != (Position{1, 2}) {
		t.Errorf("Expected (1,2), got %v", pos)
	}
	if engine.GetState().Frame != 1 {
		t.Errorf("Expected frame 1, got %d", engine.GetState().Frame)
	}

	// An empty tick still advances the frame
	if len(engine.Tick()) != 0 {
		t.Error("Expected no moves on an empty tick")
	}
	if engine.GetState().Frame != 2 {
		t.Errorf("Expected frame 2, got %d", engine.GetState().Frame)
	}
}

func TestEngine_EnqueueErrors(t *testing.T) {
	config := createTestConfig()
	config.InputBuffer = 1
	engine, _ := NewEngine(config)

	if err := engine.Enqueue("nowhere"); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("Expected ErrInvalidDirection, got %v", err)
	}
	if err := engine.Enqueue("up"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := engine.Enqueue("up"); !errors.Is(err, ErrInputQueueFull) {
		t.Errorf("Expected ErrInputQueueFull, got %v", err)
	}
}

func TestEngine_Reset(t *testing.T) {
	config := createTestConfig()
	config.Start = Position{Col: 1, Row: 1}
	engine, _ := NewEngine(config)
	tiles := append([]Tile(nil), engine.GetGrid().Tiles...)

	engine.Move("right")
	engine.Move("down")
	_ = engine.Enqueue("up")

	state := engine.Reset()
	if pos := engine.GetPlayerPosition(); pos != (Position{1, 1}) {
		t.Errorf("Expected actor back at start, got %v", pos)
	}
	if engine.PendingInput() != 0 {
		t.Error("Expected pending input to be discarded")
	}
	if state.TotalMoves != 2 || len(state.MoveHistory) != 2 {
		t.Errorf("Expected cumulative history to survive reset, got %d", state.TotalMoves)
	}
	if state.CurrentMovesCount != 0 || len(state.CurrentMoves) != 0 {
		t.Error("Expected current segment to be cleared")
	}
	for i := range tiles {
		if engine.GetGrid().Tiles[i] != tiles[i] {
			t.Fatal("Reset must keep the grid")
		}
	}
}

func TestEngine_SceneComposition(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())
	scene := &recordingScene{}
	engine.Attach(scene)

	if len(scene.tiles) != 20 {
		t.Errorf("Expected 20 attached tiles, got %d", len(scene.tiles))
	}
	if scene.actors != 1 {
		t.Errorf("Expected one actor, got %d", scene.actors)
	}
	for i, tile := range engine.GetGrid().Tiles {
		if scene.tiles[i] != tile.World || scene.colors[i] != tile.Type.Color() {
			t.Errorf("attached tile %d does not match grid", i)
		}
	}

	engine.Move("right")
	engine.Move("bogus")
	if len(scene.updates) != 1 {
		t.Fatalf("Expected one position update, got %d", len(scene.updates))
	}
	if scene.updates[0] != engine.GetWorldPosition() {
		t.Errorf("Scene received %v, actor at %v", scene.updates[0], engine.GetWorldPosition())
	}

	engine.Reset()
	if len(scene.updates) != 2 {
		t.Errorf("Expected reset to update the scene, got %d updates", len(scene.updates))
	}
}

func TestEngine_SetConfigRegenerates(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())
	scene := &recordingScene{}
	engine.Attach(scene)

	config := createTestConfig()
	config.Name = "bigger"
	config.Width = 6
	config.Height = 6
	if err := engine.SetConfig(config); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}

	if len(engine.GetGrid().Tiles) != 36 {
		t.Errorf("Expected 36 tiles, got %d", len(engine.GetGrid().Tiles))
	}
	if engine.GetState().ConfigName != "bigger" {
		t.Errorf("Expected config name bigger, got %s", engine.GetState().ConfigName)
	}
	if scene.cleared != 1 || len(scene.tiles) != 36 {
		t.Errorf("Expected scene cleared and recomposed, cleared=%d tiles=%d", scene.cleared, len(scene.tiles))
	}

	bad := createTestConfig()
	bad.TileWeights = map[string]float64{"plains": 0.2}
	if err := engine.SetConfig(bad); !errors.Is(err, ErrInvalidWeights) {
		t.Errorf("Expected ErrInvalidWeights, got %v", err)
	}
}

func TestEngine_SetStateRecomposesScene(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())
	scene := &recordingScene{}
	engine.Attach(scene)

	// same grid: only the actor moves
	same, _ := NewEngine(createTestConfig())
	same.Move("right")
	if err := engine.SetState(same.GetState()); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}
	if scene.cleared != 0 || len(scene.updates) != 1 {
		t.Errorf("Expected a position update only, cleared=%d updates=%d", scene.cleared, len(scene.updates))
	}

	small := createTestConfig()
	small.Width = 2
	small.Height = 2
	small.Start = Position{Col: 0, Row: 0}
	other, err := NewEngine(small)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	if err := engine.SetState(other.GetState()); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}

	if scene.cleared != 1 {
		t.Errorf("Expected scene cleared once, got %d", scene.cleared)
	}
	if len(scene.tiles) != 4 {
		t.Errorf("Expected 4 attached tiles after restore, got %d", len(scene.tiles))
	}
	for i, tile := range engine.GetGrid().Tiles {
		if scene.tiles[i] != tile.World {
			t.Errorf("attached tile %d does not match restored grid", i)
		}
	}
	if scene.actors != 2 {
		t.Errorf("Expected actor attached again, got %d attachments", scene.actors)
	}
}

func TestEngine_SetStateRoundTrip(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())
	engine.Move("right")
	engine.Move("down")

	data, err := json.Marshal(engine.GetState())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var restored GameState
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	other, _ := NewEngine(createTestConfig())
	if err := other.SetState(&restored); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}
	if other.GetPlayerPosition() != (Position{1, 1}) {
		t.Errorf("Expected (1,1), got %v", other.GetPlayerPosition())
	}

	// The restored actor keeps computing world positions with the grid layout
	other.Move("right")
	if want := other.GetGrid().Layout().ToWorld(2, 1); other.GetWorldPosition() != want {
		t.Errorf("Expected %v, got %v", want, other.GetWorldPosition())
	}
}

func TestEngine_SetStateInvalid(t *testing.T) {
	engine := NewEngineWithDefaults()

	if err := engine.SetState(nil); err == nil {
		t.Error("Expected error for nil state")
	}
	if err := engine.SetState(&GameState{}); err == nil {
		t.Error("Expected error for missing grid")
	}
	if err := engine.SetState(&GameState{Grid: &Grid{Width: 2, Height: 2}}); err == nil {
		t.Error("Expected error for tile count mismatch")
	}
}

func TestGameState_DirectionalView(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())
	view := engine.GetState().DirectionalView()

	if len(view) != 4 {
		t.Fatalf("Expected 4 entries, got %d", len(view))
	}
	byDir := make(map[Direction]SurroundingTile)
	for _, st := range view {
		byDir[st.Direction] = st
	}
	if byDir[Up].OnGrid || byDir[Up].Type != "void" {
		t.Errorf("Expected void above the corner, got %+v", byDir[Up])
	}
	if !byDir[Right].OnGrid || byDir[Right].Col != 1 {
		t.Errorf("Expected on-grid tile to the right, got %+v", byDir[Right])
	}
}
