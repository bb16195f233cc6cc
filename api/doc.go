// Package api provides the HTTP REST API for hex grid sessions.
//
// Endpoints (all under /api unless noted):
//
// Sessions:
//   - POST /sessions {"config_id": "islands"} - create a session
//   - GET /sessions?sort=created|accessed&order=asc|desc&limit=N
//   - GET /sessions/unified?sessionIds=a,b | ?configName=islands
//   - GET /sessions/{id}, DELETE /sessions/{id}
//
// Game:
//   - GET /sessions/{id}/state - state with surroundings and distance from start
//   - GET /sessions/{id}/tiles[?format=ascii] - the generated grid
//   - GET /sessions/{id}/tiles/{col}/{row} - one cell; negative coordinates allowed
//   - POST /sessions/{id}/move {"direction": "up", "reset": false}
//   - POST /sessions/{id}/bulk-move {"moves": ["up", "left"]}
//   - POST /sessions/{id}/input {"directions": ["up"]} - queue for the next frame
//   - POST /sessions/{id}/reset
//   - GET /sessions/{id}/history?page=1&limit=20&order=desc
//
// Configuration:
//   - GET /configs, GET /configs/{name}
//   - POST /configs[?id=name.yaml] - save a config (JSON body)
//
// Other:
//   - GET /health and /api/health
//   - GET /ws?session={id} (root) - WebSocket upgrade
//
// Moves, bulk moves and resets are broadcast to the session's WebSocket
// clients. Queued input is broadcast by the frame loop instead.
//
// Error Handling:
//
// Errors are JSON objects {"error": "message"}. Status codes follow the
// error kind: unknown session or config 404, invalid direction or config 400,
// full input queue 429, anything else 500.
package api
