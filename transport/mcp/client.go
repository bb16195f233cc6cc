package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/hexgrid/game/engine"
	"github.com/wricardo/mcp-training/hexgrid/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Hex Grid Explorer",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Hex Grid Explorer - MCP Interface

This is a thin client that proxies all requests to the REST API server.

An actor stands on a generated hex grid of plains, desert and river tiles.
It moves one column or row at a time (up/down/left/right). Unless the
session's config clamps movement, the actor may walk off the map into the void.

AVAILABLE TOOLS:
- create_session / get_session / list_sessions: manage sessions
- game_state: actor position, world position, surroundings and map
- move / bulk_move: move now (bulk_move stops at the first failed move)
- queue_input: queue moves for the next frame of the live loop
- reset_game: back to the start tile, grid kept
- move_history: paginated moves
- list_configs: available grid configurations
- describe_tile: one cell, on or off the grid
- world_position: world coordinates of the actor or of any cell
- game_instructions: rules and coordinate system

NOTE: The 'intent' parameter on move/bulk_move tools serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func directionsSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "string",
		"enum": []string{"up", "down", "left", "right"},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the config to use, see list_configs (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current state: actor position, world position, surroundings and an ASCII map",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move the actor one step",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right"},
					"description": "Direction to move",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this move",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before moving",
				},
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: fmt.Sprintf("Execute up to %d moves in sequence, stopping at the first failure", engine.MaxBulkMoves),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"moves": map[string]interface{}{
					"type":        "array",
					"items":       directionsSchema(),
					"description": "Array of moves",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this sequence of moves",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before moving",
				},
			},
			Required: []string{"session_id", "moves"},
		},
	}, c.handleBulkMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "queue_input",
		Description: "Queue moves for the next frame of the live loop; watchers see them applied together",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"directions": map[string]interface{}{
					"type":        "array",
					"items":       directionsSchema(),
					"description": "Moves to queue in order",
				},
			},
			Required: []string{"session_id", "directions"},
		},
	}, c.handleQueueInput)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Return the actor to the start tile; the grid is kept",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get move history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest or newest first (default desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available grid configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_tile",
		Description: "Describe one cell: tile type, world position and hex distance from the actor. Cells off the grid are reported as void.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"col": map[string]interface{}{
					"type":        "integer",
					"description": "Column (may be negative)",
				},
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Row (may be negative)",
				},
			},
			Required: []string{"session_id", "col", "row"},
		},
	}, c.handleDescribeTile)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "world_position",
		Description: "World (x, z) coordinates of the actor, or of a cell when col and row are given",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"col": map[string]interface{}{
					"type":        "integer",
					"description": "Column (optional)",
				},
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Row (optional)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleWorldPosition)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get rules, coordinate system and tool usage tips",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// arguments returns the tool call arguments as a map
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		args = map[string]interface{}{}
	}
	return args
}

// intArg reads a JSON number argument
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

// stringsArg reads an array-of-strings argument
func stringsArg(args map[string]interface{}, key string) []string {
	raw, _ := args[key].([]interface{})
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func sessionPath(sessionID string, rest string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + rest
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)
	if configID == "" {
		configID, _ = args["config_name"].(string)
	}

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		fmt.Fprintf(&b, "- %s (Config: %s, Created: %s", s.ID, s.ConfigName, s.CreatedAt.Format("15:04:05"))
		if s.GameState != nil {
			fmt.Fprintf(&b, ", Actor: (%d,%d)", s.GameState.Actor.Col, s.GameState.Actor.Row)
		}
		b.WriteString(")\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	direction, _ := args["direction"].(string)
	reset, _ := args["reset"].(bool)

	body := map[string]interface{}{
		"direction": direction,
		"reset":     reset,
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	reset, _ := args["reset"].(bool)

	body := map[string]interface{}{
		"moves": stringsArg(args, "moves"),
		"reset": reset,
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/bulk-move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, &result)), nil
}

func (c *Client) handleQueueInput(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	body := map[string]interface{}{"directions": stringsArg(args, "directions")}

	var result service.InputResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/input"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Queued %d move(s) for the next frame (%d pending)", result.Accepted, result.Pending)
	if result.Dropped > 0 {
		text += fmt.Sprintf("\n%d move(s) dropped: the input queue is full", result.Dropped)
	}
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order, _ := args["order"].(string); order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatHistory(&history)

	// Also fetch current segment from live state
	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err == nil {
		result += "\n" + formatCurrentSegment(&state)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		clamp := "open edges"
		if config.ClampToGrid {
			clamp = "clamped to grid"
		}
		fmt.Fprintf(&b, "• %s (%s, %s)\n  %s\n  Grid: %dx%d, hex size %.2f, clusters of %d, %s\n\n",
			config.ConfigID, config.Name, config.Format, config.Description,
			config.Width, config.Height, config.HexSize, config.ClusterSize, clamp)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleDescribeTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	col, okCol := intArg(args, "col")
	row, okRow := intArg(args, "row")
	if !okCol || !okRow {
		return mcp.NewToolResultError("col and row are required integers"), nil
	}

	var tile service.TileInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, fmt.Sprintf("/tiles/%d/%d", col, row)), nil, &tile); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTile(&tile)), nil
}

func (c *Client) handleWorldPosition(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	col, okCol := intArg(args, "col")
	row, okRow := intArg(args, "row")

	if okCol != okRow {
		return mcp.NewToolResultError("give both col and row, or neither"), nil
	}

	if okCol {
		var tile service.TileInfo
		if err := c.apiCall(ctx, "GET", sessionPath(sessionID, fmt.Sprintf("/tiles/%d/%d", col, row)), nil, &tile); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Cell (%d,%d) world position: x=%.4f z=%.4f", col, row, tile.World.X, tile.World.Z)), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Actor at (%d,%d) world position: x=%.4f z=%.4f",
		state.Actor.Col, state.Actor.Row, state.Actor.World.X, state.Actor.World.Z)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Hex Grid Explorer - Instructions

THE GRID:
A session holds a width x height grid of flat-topped hexes, generated once
from weighted tile types. Tiles are filled column by column, and every run of
cluster_size consecutive tiles shares one type, so terrain forms short bands.

TILE LEGEND (ASCII map):
• P - Plains
• D - Desert
• R - River
• @ - The actor
Off the map is the void.

COORDINATES:
• Cells are addressed as (col, row). (0,0) is the top-left tile.
• up: row-1, down: row+1, left: col-1, right: col+1.
• World position of (col, row) with hex size s:
    x = col * 1.5 * s
    z = row * sqrt(3) * s, plus sqrt(3)/2 * s on odd columns
  Odd columns sit half a row lower, so a hex has six neighbors even though
  the actor only moves in four directions.

MOVEMENT:
• Moves never fail on open-edged configs: the actor can leave the map and
  come back. Clamped configs refuse moves that would leave the grid.
• bulk_move stops at the first invalid direction or refused move and reports
  stop_reason_code (invalid_direction or blocked_boundary).
• queue_input feeds the live frame loop: queued moves are applied together on
  the next frame and broadcast to WebSocket watchers.

TIPS:
• game_state lists what each direction leads to and the hex distance from the start.
• describe_tile works for any cell, including negative coordinates.
• reset_game keeps the grid and the cumulative history.`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\nConfig: %s\nCreated: %s\nLast accessed: %s\n",
		session.ID, session.ConfigName,
		session.CreatedAt.Format(time.RFC3339), session.LastAccessedAt.Format(time.RFC3339))
	if session.GameConfig != nil {
		fmt.Fprintf(&b, "Grid: %dx%d (clamped: %v)\n", session.GameConfig.Width, session.GameConfig.Height, session.GameConfig.ClampToGrid)
	}
	b.WriteString("\n")
	b.WriteString(formatGameState(session.GameState))
	return b.String()
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Actor: (%d,%d) world x=%.3f z=%.3f\n", state.Actor.Col, state.Actor.Row, state.Actor.World.X, state.Actor.World.Z)
	if state.OnGrid {
		b.WriteString("On the grid")
	} else {
		b.WriteString("OFF THE GRID (void)")
	}
	fmt.Fprintf(&b, " | Frame %d | Moves %d | Distance from start %d\n", state.Frame, state.TotalMoves, state.DistanceFromStart)
	if state.Message != "" {
		fmt.Fprintf(&b, "Message: %s\n", state.Message)
	}

	if len(state.Surroundings) > 0 {
		b.WriteString("\nSurroundings:\n")
		for _, s := range state.Surroundings {
			fmt.Fprintf(&b, "  %-5s -> (%d,%d) %s\n", s.Direction, s.Col, s.Row, s.Type)
		}
	}

	if state.Grid != nil && len(state.Grid.Tiles) > 0 {
		pos := state.Actor.Position()
		b.WriteString("\nMap:\n")
		for _, line := range state.Grid.ASCII(&pos) {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("Move OK")
		if s := result.Step; s != nil {
			fmt.Fprintf(&b, ": %s (%d,%d) -> (%d,%d) on %s", s.Dir, s.From.Col, s.From.Row, s.To.Col, s.To.Row, s.TileType)
		}
	} else {
		b.WriteString("Move FAILED")
		if a := result.AttemptedTo; a != nil {
			fmt.Fprintf(&b, ": target (%d,%d) is %s", a.Col, a.Row, a.TileType)
		}
	}
	b.WriteString("\n")
	if result.Message != "" {
		fmt.Fprintf(&b, "%s\n", result.Message)
	}
	for _, ev := range result.Events {
		if ev.Type != "move" {
			fmt.Fprintf(&b, "[%s] %s\n", ev.Type, ev.Message)
		}
	}
	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s: executed %d/%d moves", sessionID, result.MovesExecuted, result.RequestedMoves)
	if result.Truncated {
		fmt.Fprintf(&b, " (truncated to %d)", result.Limit)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Start (%d,%d) -> End (%d,%d)\n", result.StartPos.Col, result.StartPos.Row, result.EndPos.Col, result.EndPos.Row)

	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "STOPPED [%s] on move %d: %s\n", result.StopReasonCode, result.StoppedOnMove, result.StoppedReason)
		if a := result.AttemptedTo; a != nil {
			fmt.Fprintf(&b, "Attempted (%d,%d): %s\n", a.Col, a.Row, a.TileType)
		}
	}

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps:\n")
		for _, s := range result.Steps {
			fmt.Fprintf(&b, "  %2d. %-5s (%d,%d) -> (%d,%d) %s %s\n", s.Idx, s.Dir, s.From.Col, s.From.Row, s.To.Col, s.To.Row, s.TileChar, s.TileType)
		}
	}

	if len(result.PossibleMoves) > 0 {
		fmt.Fprintf(&b, "\nPossible moves: %s\n", strings.Join(result.PossibleMoves, ", "))
	}
	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatTile(tile *service.TileInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cell (%d,%d): %s\n", tile.Col, tile.Row, tile.Type)
	if !tile.OnGrid {
		b.WriteString("Off the grid (void)\n")
	} else if tile.Color != "" {
		fmt.Fprintf(&b, "Color: %s\n", tile.Color)
	}
	fmt.Fprintf(&b, "World: x=%.4f z=%.4f\n", tile.World.X, tile.World.Z)
	if tile.HasActor {
		b.WriteString("The actor is here\n")
	} else {
		fmt.Fprintf(&b, "Hex distance from actor: %d\n", tile.Distance)
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (page %d/%d, %d total):\n", history.Page, history.TotalPages, history.TotalMoves)
	for _, m := range history.Moves {
		status := "OK"
		if !m.Success {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "  #%d %-5s (%d,%d) -> (%d,%d) frame %d %s\n",
			m.MoveNumber, m.Action, m.FromPosition.Col, m.FromPosition.Row, m.ToPosition.Col, m.ToPosition.Row, m.Frame, status)
	}
	if history.HasNext {
		b.WriteString("  ... more on the next page\n")
	}
	return b.String()
}

func formatCurrentSegment(state *engine.GameState) string {
	if state == nil {
		return ""
	}
	if state.CurrentMovesCount == 0 {
		return "Current segment: no moves since the last reset\n"
	}
	actions := make([]string, 0, len(state.CurrentMoves))
	for _, m := range state.CurrentMoves {
		actions = append(actions, m.Action)
	}
	return fmt.Sprintf("Current segment (%d moves since reset): %s\n", state.CurrentMovesCount, strings.Join(actions, " "))
}
