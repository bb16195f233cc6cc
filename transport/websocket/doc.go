// Package websocket provides the live WebSocket transport for hex grid sessions.
//
// Architecture:
//
// A central Hub owns every connection. Its Run loop is the only goroutine that
// touches client send buffers; broadcasts, registrations and replies all go
// through channels, and broadcasts never block the caller. Each client has a
// read pump and a write pump.
//
// Message Protocol:
//
// Outgoing messages are JSON Message values, one per WebSocket frame:
//   - state_update: GameState after a REST move, bulk move or reset
//   - frame: moves applied by the frame loop plus the resulting GameState
//   - input_ack: InputResult for queued client input
//   - error: a string describing rejected input
//
// Incoming messages steer the actor. They are only queued; the frame loop
// applies them on its next tick:
//
//	{"direction": "up"}
//	{"action": "move", "directions": ["left", "left", "down"]}
//
// Usage:
//
//	hub := websocket.NewHub()
//	hub.SetInputHandler(func(id string, dirs []string) (*service.InputResult, error) {
//		return gameService.Enqueue(context.Background(), id, dirs)
//	})
//	go hub.Run()
//	defer hub.Stop()
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket
