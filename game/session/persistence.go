package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/hexgrid/game/engine"
	"github.com/wricardo/mcp-training/hexgrid/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData represents the JSON structure for persisted sessions
type PersistedSessionData struct {
	ID             string            `json:"id"`
	ConfigName     string            `json:"config_name"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.GameState `json:"game_state"`
}

// codec turns sessions into persisted documents and back. The config is
// stored by identifier and reloaded through the config manager.
type codec struct {
	configManager service.ConfigManager
}

// encode returns the JSON document for a session
func (c codec) encode(session *service.Session) (*PersistedSessionData, []byte, error) {
	if session == nil {
		return nil, nil, fmt.Errorf("session cannot be nil")
	}

	data := &PersistedSessionData{
		ID:             session.ID,
		ConfigName:     c.configID(session.Config.Name),
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		GameState:      session.Engine.GetState(),
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal session data: %w", err)
	}
	return data, jsonData, nil
}

// decode rebuilds a session from its JSON document
func (c codec) decode(jsonData []byte) (*service.Session, error) {
	var data PersistedSessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	if data.GameState == nil {
		return nil, fmt.Errorf("session %s has no game state", data.ID)
	}

	gameConfig, err := c.loadConfig(data.ConfigName)
	if err != nil {
		return nil, fmt.Errorf("failed to load config '%s': %w", data.ConfigName, err)
	}

	gameEngine, err := engine.NewEngine(gameConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create game engine: %w", err)
	}

	// The persisted grid replaces the freshly generated one
	if err := gameEngine.SetState(data.GameState); err != nil {
		return nil, fmt.Errorf("failed to set game state: %w", err)
	}

	return &service.Session{
		ID:             data.ID,
		Engine:         gameEngine,
		Config:         gameConfig,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}

// loadConfig resolves a config ID, falling back to the manager's default when
// it carries that name (the built-in default has no file)
func (c codec) loadConfig(name string) (*engine.GameConfig, error) {
	gameConfig, err := c.configManager.LoadConfig(name)
	if err == nil {
		return gameConfig, nil
	}
	if def := c.configManager.GetDefault(); def != nil && def.Name == name {
		return def, nil
	}
	return nil, err
}

// configID returns the config ID (filename without extension) from display name
func (c codec) configID(displayName string) string {
	configs, err := c.configManager.ListConfigs()
	if err == nil {
		for _, config := range configs {
			if config.Name == displayName {
				return config.ConfigID
			}
		}
	}

	// If not found, assume the displayName is already the config ID
	return displayName
}
