package engine

import "github.com/wricardo/mcp-training/hexgrid/game/hex"

// Handle is an opaque reference returned by a Scene
type Handle any

// Scene is the rendering collaborator. Tiles are attached once; the actor is
// attached once and then repositioned after every change.
type Scene interface {
	AttachTile(pos hex.Point, color Color) Handle
	AttachActor(pos hex.Point) Handle
	UpdateActorPosition(h Handle, pos hex.Point)
}

// Compose attaches every tile of grid (in generation order) and the actor to
// scene, returning the actor handle.
func Compose(scene Scene, grid *Grid, actor *Actor) Handle {
	for _, t := range grid.Tiles {
		scene.AttachTile(t.World, t.Type.Color())
	}
	return scene.AttachActor(actor.World)
}
