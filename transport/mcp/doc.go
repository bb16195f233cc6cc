// Package mcp exposes the hex grid over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a request to the REST
// API, so an MCP agent and a browser watching over WebSocket see the same
// sessions.
//
// Tools:
//   - create_session, get_session, list_sessions
//   - game_state: actor, world position, surroundings and an ASCII map
//   - move, bulk_move: immediate moves (bulk_move stops at the first failure)
//   - queue_input: moves applied on the next frame of the live loop
//   - reset_game, move_history
//   - list_configs
//   - describe_tile, world_position: any cell, on or off the grid
//   - game_instructions
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
