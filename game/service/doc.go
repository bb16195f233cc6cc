// Package service provides the business logic layer for the hex grid sessions.
//
// The service package implements:
//   - Multi-session management over independent engines
//   - Configuration listing, loading and saving
//   - Immediate moves and bounded bulk moves with step traces
//   - The frame loop: queued input per session, applied once per Tick
//   - Paginated move history and per-tile descriptions
//
// Core Interfaces:
//
// GameService is the main service interface used by every transport.
// SessionManager handles session creation, retrieval, persistence and lifecycle.
// ConfigManager manages game configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP, the
// desktop viewer) and the engine. All engine access is serialized by the
// service, and every returned GameState is a snapshot, so callers may encode
// it while the frame loop keeps running.
//
// Usage:
//
//	configMgr, _ := config.NewManager("configs")
//	store, _ := session.NewCompressedFilePersistence("sessions", configMgr)
//	sessionMgr := session.NewManagerWithPersistence(store)
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "islands")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Queue input for the next frame
//	gameService.Enqueue(ctx, info.ID, []string{"up", "right"})
//	updates, _ := gameService.Tick(ctx)
//
// Errors:
//
// ErrSessionNotFound, ErrConfigNotFound and ErrInvalidConfig are shared with
// the session and config packages so callers can test them with errors.Is.
package service
