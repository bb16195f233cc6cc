// Package hex maps offset hex-grid coordinates to world space.
//
// The layout is flat-top with odd columns shifted down by half a row:
//
//	worldX = col * (size * 1.5)
//	worldZ = row * (size * sqrt(3)) + parity(col) * (size * sqrt(3) / 2)
//
// parity uses Euclidean modulo, so negative odd columns are shifted the same
// way positive odd columns are.
//
// Usage:
//
//	layout := hex.NewLayout(0.5)
//	p := layout.ToWorld(1, 0) // {X: 0.75, Z: 0.433...}
package hex
