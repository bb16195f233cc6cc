// Package session provides session management for hex grid games.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Short session ID generation with collision retry
//   - Session persistence on disk (JSON or zstd-compressed JSON) or in SQLite
//   - Expiry of idle sessions
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// SessionPersistence is implemented by FilePersistence and SQLitePersistence.
// Persisted sessions store the full generated grid, so unseeded sessions come
// back with the same tiles after a restart.
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters. Client supplied IDs must match
// [A-Za-z0-9_-]{1,64}; lookups are case-insensitive.
//
// Usage:
//
//	store, err := session.NewSQLitePersistence("sessions/sessions.db", configMgr)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(store)
//	defer manager.Close()
//
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Printf("Warning: %v", err)
//	}
//	sess, err := manager.Create("", config)
package session
