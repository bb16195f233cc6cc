// Package config provides configuration management for the hex grid game.
//
// The config package handles:
//   - Loading game configurations from JSON and YAML files
//   - Schema validation against an embedded JSON Schema
//   - Default configuration management
//   - Configuration discovery and listing
//
// Configuration Format:
//
// Game configurations live in the configs directory as name.json, name.yaml
// or name.yml. Each configuration defines:
//   - Grid dimensions, hex size and cluster size
//   - Tile type weights (plains, desert, river; summing to 1)
//   - Optional seed for reproducible grids
//   - Actor start tile and whether moves are clamped to the grid
//   - Player-facing messages
//
// YAML documents are converted to JSON before validation, so both formats
// accept exactly the same fields.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("islands")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
// When the directory holds no valid configuration the built-in
// engine.DefaultGameConfig is used as default.
package config
