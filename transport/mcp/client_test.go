package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wricardo/mcp-training/hexgrid/api"
	"github.com/wricardo/mcp-training/hexgrid/game/config"
	"github.com/wricardo/mcp-training/hexgrid/game/engine"
	"github.com/wricardo/mcp-training/hexgrid/game/service"
	"github.com/wricardo/mcp-training/hexgrid/game/session"
)

func toolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("Expected result, got nil")
	}
	if len(result.Content) == 0 {
		t.Fatal("Expected content in result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func testState(t *testing.T) *engine.GameState {
	t.Helper()
	eng, err := engine.NewEngine(&engine.GameConfig{
		Name:        "test",
		Description: "test grid",
		Width:       3,
		Height:      3,
		Seed:        5,
		Start:       engine.Position{Col: 1, Row: 1},
		Messages:    engine.Messages{Welcome: "hello"},
	})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	state := eng.GetState()
	state.Surroundings = state.DirectionalView()
	return state
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	client := NewClient(baseURL)

	if client == nil {
		t.Fatal("Expected client to be created")
	}

	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}

	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}

	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}

	if trimmed := NewClient("http://localhost:8080/"); trimmed.baseURL != baseURL {
		t.Errorf("Expected trailing slash trimmed, got %s", trimmed.baseURL)
	}
}

func TestClient_apiCall(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected JSON content type, got %q", r.Header.Get("Content-Type"))
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "test-session"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]interface{}
	err := client.apiCall(context.Background(), "POST", "/api", map[string]string{"k": "v"}, &response)
	if err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}

	if response["id"] != "test-session" {
		t.Errorf("Expected id test-session, got %v", response["id"])
	}
	if gotBody["k"] != "v" {
		t.Errorf("Expected request body to be forwarded, got %v", gotBody)
	}
}

func TestClient_apiCall_Error(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")

	err := client.apiCall(context.Background(), "GET", "/api", nil, nil)
	if err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"plain body", "Internal Server Error", "API error: 500"},
		{"json error", `{"error":"session not found"}`, "session not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
			if err == nil {
				t.Fatal("Expected error for HTTP 500 response")
			}
			if !strings.Contains(err.Error(), tt.expected) {
				t.Errorf("Expected %q in error message, got: %v", tt.expected, err)
			}
		})
	}
}

func TestClient_createSession(t *testing.T) {
	state := testState(t)
	var gotConfig string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions" {
			t.Errorf("Expected POST /api/sessions, got %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		gotConfig = body["config_id"]

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(service.SessionInfo{
			ID:         "test-session-123",
			ConfigName: "islands",
			GameState:  state,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleCreateSession(context.Background(), toolRequest("create_session", map[string]interface{}{
		"config_id": "islands",
	}))
	if err != nil {
		t.Fatalf("createSession failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "test-session-123") {
		t.Errorf("Expected session ID in result, got: %s", text)
	}
	if gotConfig != "islands" {
		t.Errorf("Expected config_id islands to be sent, got %q", gotConfig)
	}
}

func TestClient_handlersSurfaceAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "session not found"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()
	args := map[string]interface{}{"session_id": "missing", "direction": "up", "col": float64(0), "row": float64(0)}

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"get_session":    client.handleGetSession,
		"game_state":     client.handleGameState,
		"move":           client.handleMove,
		"reset_game":     client.handleReset,
		"move_history":   client.handleMoveHistory,
		"describe_tile":  client.handleDescribeTile,
		"world_position": client.handleWorldPosition,
	}

	for name, handler := range handlers {
		t.Run(name, func(t *testing.T) {
			result, err := handler(ctx, toolRequest(name, args))
			if err != nil {
				t.Fatalf("Expected tool error result, got Go error: %v", err)
			}
			if !result.IsError {
				t.Error("Expected IsError result")
			}
			if text := resultText(t, result); !strings.Contains(text, "session not found") {
				t.Errorf("Expected API error message, got: %s", text)
			}
		})
	}
}

func TestClient_argumentValidation(t *testing.T) {
	client := NewClient("http://localhost:1")
	ctx := context.Background()

	result, _ := client.handleDescribeTile(ctx, toolRequest("describe_tile", map[string]interface{}{"session_id": "s"}))
	if !result.IsError {
		t.Error("Expected describe_tile without col/row to fail")
	}

	result, _ = client.handleWorldPosition(ctx, toolRequest("world_position", map[string]interface{}{"session_id": "s", "col": float64(1)}))
	if !result.IsError {
		t.Error("Expected world_position with only col to fail")
	}
}

func TestArgumentHelpers(t *testing.T) {
	args := arguments(toolRequest("x", nil))
	if args == nil {
		t.Fatal("Expected empty map for nil arguments")
	}

	args = map[string]interface{}{
		"f":     float64(-3),
		"i":     4,
		"s":     "five",
		"moves": []interface{}{"up", 7, "left"},
	}
	if v, ok := intArg(args, "f"); !ok || v != -3 {
		t.Errorf("intArg(f) = %d, %v", v, ok)
	}
	if v, ok := intArg(args, "i"); !ok || v != 4 {
		t.Errorf("intArg(i) = %d, %v", v, ok)
	}
	if _, ok := intArg(args, "s"); ok {
		t.Error("Expected string to be rejected by intArg")
	}
	if moves := stringsArg(args, "moves"); len(moves) != 2 || moves[0] != "up" || moves[1] != "left" {
		t.Errorf("stringsArg = %v", moves)
	}
}

func TestFormatGameState(t *testing.T) {
	text := formatGameState(testState(t))

	expected := []string{
		"Actor: (1,1)",
		"On the grid",
		"Message: hello",
		"Surroundings:",
		"up    -> (1,0)",
		"Map:",
		"@",
	}
	for _, s := range expected {
		if !strings.Contains(text, s) {
			t.Errorf("Expected %q in game state, got:\n%s", s, text)
		}
	}

	if formatGameState(nil) != "No state available" {
		t.Error("Expected placeholder for nil state")
	}
}

func TestFormatGameState_OffGrid(t *testing.T) {
	state := testState(t)
	state.OnGrid = false
	state.Actor.Col = -1

	text := formatGameState(state)
	if !strings.Contains(text, "OFF THE GRID") {
		t.Errorf("Expected off-grid notice, got:\n%s", text)
	}
	if strings.Contains(text, "@") {
		t.Errorf("Actor off the grid should not be drawn, got:\n%s", text)
	}
}

func TestFormatMoveResult(t *testing.T) {
	result := &service.MoveResult{
		Success:   true,
		GameState: testState(t),
		Message:   "Moved to (1,0)",
		Step: &service.StepInfo{
			Dir:      "up",
			From:     engine.Position{Col: 1, Row: 1},
			To:       engine.Position{Col: 1, Row: 0},
			TileType: "plains",
		},
		Events: []service.GameEvent{
			{Type: "move", Message: "ignored"},
			{Type: "terrain", Message: "Entered plains"},
		},
	}

	text := formatMoveResult(result)
	for _, s := range []string{"Move OK", "(1,1) -> (1,0) on plains", "[terrain] Entered plains"} {
		if !strings.Contains(text, s) {
			t.Errorf("Expected %q in result, got:\n%s", s, text)
		}
	}
	if strings.Contains(text, "ignored") {
		t.Error("Plain move events should not be listed")
	}
}

func TestFormatMoveResult_Failed(t *testing.T) {
	result := &service.MoveResult{
		Success:     false,
		GameState:   testState(t),
		AttemptedTo: &service.AttemptInfo{Col: 3, Row: 1, TileType: "void"},
	}

	text := formatMoveResult(result)
	if !strings.Contains(text, "Move FAILED: target (3,1) is void") {
		t.Errorf("Expected failure details, got:\n%s", text)
	}
}

func TestFormatBulkMoveResult(t *testing.T) {
	result := &service.BulkMoveResult{
		MovesExecuted:  1,
		RequestedMoves: 60,
		Truncated:      true,
		Limit:          engine.MaxBulkMoves,
		StartPos:       engine.Position{Col: 0, Row: 0},
		EndPos:         engine.Position{Col: 1, Row: 0},
		StoppedReason:  "Invalid direction: sideways",
		StopReasonCode: "invalid_direction",
		StoppedOnMove:  2,
		Steps: []service.StepInfo{
			{Idx: 1, Dir: "right", From: engine.Position{}, To: engine.Position{Col: 1}, TileChar: "P", TileType: "plains"},
		},
		PossibleMoves: []string{"up", "down"},
	}

	text := formatBulkMoveResult("s1", result)
	expected := []string{
		"executed 1/60 moves (truncated to 50)",
		"STOPPED [invalid_direction] on move 2",
		"right (0,0) -> (1,0) P plains",
		"Possible moves: up, down",
		"No state available",
	}
	for _, s := range expected {
		if !strings.Contains(text, s) {
			t.Errorf("Expected %q in result, got:\n%s", s, text)
		}
	}
}

func TestFormatTileAndHistory(t *testing.T) {
	void := formatTile(&service.TileInfo{Col: -2, Row: 5, Type: "void", Distance: 4})
	if !strings.Contains(void, "Off the grid") || !strings.Contains(void, "Hex distance from actor: 4") {
		t.Errorf("Unexpected void tile text:\n%s", void)
	}

	here := formatTile(&service.TileInfo{Col: 1, Row: 1, Type: "river", OnGrid: true, Color: "#1e90ff", HasActor: true})
	if !strings.Contains(here, "The actor is here") || !strings.Contains(here, "#1e90ff") {
		t.Errorf("Unexpected actor tile text:\n%s", here)
	}

	history := formatHistory(&service.HistoryResponse{
		Moves: []engine.MoveHistoryEntry{
			{Action: "left", FromPosition: engine.Position{}, ToPosition: engine.Position{Col: -1}, Success: true, MoveNumber: 1},
		},
		TotalMoves: 1,
		Page:       1,
		TotalPages: 1,
	})
	if !strings.Contains(history, "#1 left  (0,0) -> (-1,0) frame 0 OK") {
		t.Errorf("Unexpected history text:\n%s", history)
	}

	if seg := formatCurrentSegment(&engine.GameState{}); !strings.Contains(seg, "no moves since the last reset") {
		t.Errorf("Unexpected empty segment text: %s", seg)
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleGameInstructions(context.Background(), toolRequest("game_instructions", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleGameInstructions failed: %v", err)
	}

	text := resultText(t, result)
	expectedContent := []string{
		"Hex Grid Explorer - Instructions",
		"THE GRID:",
		"TILE LEGEND",
		"COORDINATES:",
		"MOVEMENT:",
		"TIPS:",
	}
	for _, content := range expectedContent {
		if !strings.Contains(text, content) {
			t.Errorf("Expected '%s' in instructions", content)
		}
	}
}

// End to end against the real REST server
func TestClient_Integration(t *testing.T) {
	configManager, err := config.NewManager("../../configs")
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	gameService := service.NewGameService(session.NewManager(), configManager)
	httpServer := httptest.NewServer(api.NewServer(gameService, nil))
	defer httpServer.Close()

	client := NewClient(httpServer.URL)
	ctx := context.Background()

	info, err := gameService.CreateSession(ctx, "islands")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	sid := info.ID

	// islands starts at (8,6)
	text := resultText(t, mustCall(t, client.handleMove, "move", map[string]interface{}{"session_id": sid, "direction": "right"}))
	if !strings.Contains(text, "Move OK") || !strings.Contains(text, "Actor: (9,6)") {
		t.Errorf("Unexpected move result:\n%s", text)
	}

	text = resultText(t, mustCall(t, client.handleBulkMove, "bulk_move", map[string]interface{}{
		"session_id": sid,
		"moves":      []interface{}{"down", "sideways", "down"},
	}))
	if !strings.Contains(text, "executed 1/3 moves") || !strings.Contains(text, "invalid_direction") {
		t.Errorf("Unexpected bulk result:\n%s", text)
	}

	text = resultText(t, mustCall(t, client.handleQueueInput, "queue_input", map[string]interface{}{
		"session_id": sid,
		"directions": []interface{}{"up", "up"},
	}))
	if !strings.Contains(text, "Queued 2 move(s)") {
		t.Errorf("Unexpected queue result: %s", text)
	}
	if _, err := gameService.Tick(ctx); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	text = resultText(t, mustCall(t, client.handleGameState, "game_state", map[string]interface{}{"session_id": sid}))
	if !strings.Contains(text, "Actor: (9,5)") {
		t.Errorf("Expected actor at (9,5) after the frame, got:\n%s", text)
	}

	text = resultText(t, mustCall(t, client.handleDescribeTile, "describe_tile", map[string]interface{}{
		"session_id": sid, "col": float64(-1), "row": float64(-1),
	}))
	if !strings.Contains(text, "Cell (-1,-1): void") {
		t.Errorf("Unexpected tile description:\n%s", text)
	}

	text = resultText(t, mustCall(t, client.handleWorldPosition, "world_position", map[string]interface{}{"session_id": sid}))
	if !strings.Contains(text, "Actor at (9,5)") {
		t.Errorf("Unexpected world position: %s", text)
	}

	text = resultText(t, mustCall(t, client.handleMoveHistory, "move_history", map[string]interface{}{
		"session_id": sid, "order": "asc", "limit": float64(10),
	}))
	if !strings.Contains(text, "#1 right") || !strings.Contains(text, "Current segment") {
		t.Errorf("Unexpected history:\n%s", text)
	}

	text = resultText(t, mustCall(t, client.handleReset, "reset_game", map[string]interface{}{"session_id": sid}))
	if !strings.Contains(text, "Actor: (8,6)") {
		t.Errorf("Expected actor back at start, got:\n%s", text)
	}

	text = resultText(t, mustCall(t, client.handleListSessions, "list_sessions", nil))
	if !strings.Contains(text, sid) {
		t.Errorf("Expected session in list:\n%s", text)
	}

	text = resultText(t, mustCall(t, client.handleListConfigs, "list_configs", nil))
	if !strings.Contains(text, "islands") || !strings.Contains(text, "clamped to grid") {
		t.Errorf("Unexpected config list:\n%s", text)
	}
}

func mustCall(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	result, err := handler(context.Background(), toolRequest(name, args))
	if err != nil {
		t.Fatalf("%s failed: %v", name, err)
	}
	if result.IsError {
		t.Fatalf("%s returned error: %s", name, resultText(t, result))
	}
	return result
}
