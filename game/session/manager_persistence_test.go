package session

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/hexgrid/game/service"
)

func TestManagerWithPersistence(t *testing.T) {
	configManager := newTestConfigManager(t)

	backends := []struct {
		name string
		open func(t *testing.T) SessionPersistence
	}{
		{"json", func(t *testing.T) SessionPersistence {
			p, err := NewFilePersistence(t.TempDir(), configManager)
			if err != nil {
				t.Fatalf("Failed to create file persistence: %v", err)
			}
			return p
		}},
		{"zstd", func(t *testing.T) SessionPersistence {
			p, err := NewCompressedFilePersistence(t.TempDir(), configManager)
			if err != nil {
				t.Fatalf("Failed to create compressed persistence: %v", err)
			}
			return p
		}},
		{"sqlite", func(t *testing.T) SessionPersistence {
			p, err := NewSQLitePersistence(filepath.Join(t.TempDir(), "sessions.db"), configManager)
			if err != nil {
				t.Fatalf("Failed to open sqlite persistence: %v", err)
			}
			return p
		}},
	}

	for _, backend := range backends {
		t.Run(backend.name, func(t *testing.T) {
			testManagerPersistence(t, backend.open(t), configManager)
		})
	}
}

func testManagerPersistence(t *testing.T, persistence SessionPersistence, configManager service.ConfigManager) {
	manager := NewManagerWithPersistence(persistence)
	gameConfig := configManager.GetDefault()

	t.Run("Create Session Auto-Saves", func(t *testing.T) {
		session, err := manager.Create("auto1", gameConfig)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if !persistence.Exists(session.ID) {
			t.Error("Session should be auto-saved on creation")
		}
	})

	t.Run("Create Rejects Persisted IDs", func(t *testing.T) {
		fresh := NewManagerWithPersistence(persistence)
		if _, err := fresh.Create("auto1", gameConfig); !errors.Is(err, ErrSessionAlreadyExists) {
			t.Errorf("Expected ErrSessionAlreadyExists, got %v", err)
		}
	})

	t.Run("Get Session Loads from Persistence", func(t *testing.T) {
		manager2 := NewManagerWithPersistence(persistence)

		session, err := manager2.Get("auto1")
		if err != nil {
			t.Fatalf("Failed to get session from persistence: %v", err)
		}
		if manager2.Count() != 1 {
			t.Error("Session should be cached in memory after loading from persistence")
		}
		again, _ := manager2.Get("auto1")
		if again != session {
			t.Error("Second Get should hit the memory cache")
		}
	})

	t.Run("Save Method Persists Changes", func(t *testing.T) {
		session, err := manager.Get("auto1")
		if err != nil {
			t.Fatalf("Failed to get session: %v", err)
		}

		originalPos := session.Engine.GetPlayerPosition()
		session.Engine.Move("right")
		if err := manager.Save("auto1"); err != nil {
			t.Fatalf("Failed to save session: %v", err)
		}

		manager3 := NewManagerWithPersistence(persistence)
		loaded, err := manager3.Get("auto1")
		if err != nil {
			t.Fatalf("Failed to load session after manual save: %v", err)
		}
		if loaded.Engine.GetPlayerPosition() == originalPos {
			t.Error("Actor position changes should be persisted")
		}
		if len(loaded.Engine.GetMoveHistory()) == 0 {
			t.Error("Move history should be persisted")
		}
	})

	t.Run("Delete Removes from Persistence", func(t *testing.T) {
		session, err := manager.Create("delete_test", gameConfig)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if err := manager.Delete(session.ID); err != nil {
			t.Fatalf("Failed to delete session: %v", err)
		}
		if persistence.Exists(session.ID) {
			t.Error("Session should be removed from persistence on delete")
		}
		if _, err := manager.Get(session.ID); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Load Persisted Sessions on Startup", func(t *testing.T) {
		ids := []string{"startup1", "startup2", "startup3"}
		for _, id := range ids {
			if _, err := manager.Create(id, gameConfig); err != nil {
				t.Fatalf("Failed to create session %s: %v", id, err)
			}
		}

		manager4 := NewManagerWithPersistence(persistence)
		if err := manager4.LoadPersistedSessions(); err != nil {
			t.Fatalf("Failed to load persisted sessions: %v", err)
		}
		for _, id := range ids {
			if _, err := manager4.Get(id); err != nil {
				t.Errorf("Failed to get session %s after startup load: %v", id, err)
			}
		}
		if manager4.Count() != len(ids)+1 {
			t.Errorf("Expected %d sessions, got %d", len(ids)+1, manager4.Count())
		}
	})

	t.Run("Update Last Accessed Persists", func(t *testing.T) {
		session, _ := manager.Get("startup1")
		originalTime := session.LastAccessedAt
		time.Sleep(10 * time.Millisecond)

		if err := manager.UpdateLastAccessed("startup1"); err != nil {
			t.Fatalf("Failed to update last accessed: %v", err)
		}

		loaded, err := persistence.Load("startup1")
		if err != nil {
			t.Fatalf("Failed to load session: %v", err)
		}
		if !loaded.LastAccessedAt.After(originalTime) {
			t.Error("Last accessed time should be persisted")
		}
	})

	t.Run("Get Rejects Invalid IDs", func(t *testing.T) {
		if _, err := manager.Get("../../etc/passwd"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Close Flushes Sessions", func(t *testing.T) {
		session, _ := manager.Get("startup2")
		session.Engine.Move("down")
		session.Engine.Move("down")

		if err := manager.Close(); err != nil {
			t.Fatalf("Close() error: %v", err)
		}
	})
}
