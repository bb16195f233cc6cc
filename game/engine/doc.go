// Package engine provides the core logic of the hex grid explorer.
//
// The engine package implements:
//   - Clustered weighted generation of hex tile grids
//   - The Actor, which moves one tile up, down, left or right
//   - A buffered input queue drained once per frame by Tick
//   - Game state, move history and configuration validation
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. Generator builds a Grid from a WeightTable;
// a Scene receives the composed tiles and actor for rendering.
//
// Usage:
//
//	gameEngine, err := engine.NewEngine(engine.DefaultGameConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Immediate move
//	gameEngine.Move("right")
//
//	// Frame-driven input
//	_ = gameEngine.Enqueue("down")
//	applied := gameEngine.Tick()
//
// Tile types are drawn every ClusterSize tiles (three by default) in column
// major order, so runs of equal terrain appear down each column.
package engine
