// Command viewer opens a desktop window on a locally generated hex grid.
// Arrow keys or WASD queue moves; each ebiten update runs one frame tick.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/joho/godotenv"
	"github.com/wricardo/mcp-training/hexgrid/game/config"
	"github.com/wricardo/mcp-training/hexgrid/game/engine"
	"github.com/wricardo/mcp-training/hexgrid/game/hex"
	"github.com/wricardo/mcp-training/hexgrid/game/render"
)

const (
	screenWidth  = 960
	screenHeight = 720
	headerHeight = 40
	margin       = 24
)

var (
	configDir  = flag.String("config-dir", getConfigDirDefault(), "Directory containing grid configurations")
	configName = flag.String("config", config.DefaultConfigName, "Configuration to load")
	seed       = flag.Int64("seed", 0, "Override the config seed")
)

func getConfigDirDefault() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	return "configs"
}

var (
	whiteImage    = ebiten.NewImage(3, 3)
	whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)

	backgroundColor = color.RGBA{24, 26, 32, 255}
	actorColor      = color.RGBA{255, 90, 90, 255}
	outlineColor    = color.RGBA{20, 20, 20, 255}
)

func init() {
	whiteImage.Fill(color.White)
}

// keyBindings maps keys to movement commands
var keyBindings = []struct {
	keys []ebiten.Key
	dir  engine.Direction
}{
	{[]ebiten.Key{ebiten.KeyArrowUp, ebiten.KeyW}, engine.Up},
	{[]ebiten.Key{ebiten.KeyArrowDown, ebiten.KeyS}, engine.Down},
	{[]ebiten.Key{ebiten.KeyArrowLeft, ebiten.KeyA}, engine.Left},
	{[]ebiten.Key{ebiten.KeyArrowRight, ebiten.KeyD}, engine.Right},
}

// Game drives one engine and draws its scene
type Game struct {
	engine *engine.GameEngine
	scene  *render.Scene
	camera render.Camera
}

// NewGame attaches a fresh scene to eng
func NewGame(eng *engine.GameEngine) *Game {
	g := &Game{
		engine: eng,
		scene:  render.NewScene(eng.GetGrid().Layout()),
	}
	eng.Attach(g.scene)
	g.camera = render.FitCamera(g.scene.Bounds(), screenWidth, screenHeight-headerHeight, margin)
	g.camera.OffsetY += headerHeight
	return g
}

// Update queues key presses and runs one frame
func (g *Game) Update() error {
	for _, binding := range keyBindings {
		for _, key := range binding.keys {
			if inpututil.IsKeyJustPressed(key) {
				if err := g.engine.Enqueue(string(binding.dir)); err != nil {
					log.Printf("Warning: input dropped: %v", err)
				}
				break
			}
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.engine.Reset()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	for _, entry := range g.engine.Tick() {
		log.Printf("[MOVE] %s (%d,%d) -> (%d,%d) frame=%d", entry.Action,
			entry.FromPosition.Col, entry.FromPosition.Row, entry.ToPosition.Col, entry.ToPosition.Row, entry.Frame)
	}
	return nil
}

// Draw renders tiles, the actor and a status line
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	layout := g.scene.Layout()
	for _, tile := range g.scene.Tiles() {
		r, gr, b := tile.Color.RGB()
		g.drawHex(screen, layout, tile, color.RGBA{r, gr, b, 255})
	}

	if pos, ok := g.scene.Actor(); ok {
		x, y := g.camera.Project(pos)
		radius := float32(layout.Size * g.camera.Scale * 0.45)
		vector.DrawFilledCircle(screen, x, y, radius, actorColor, true)
		vector.StrokeCircle(screen, x, y, radius, 2, outlineColor, true)
	}

	state := g.engine.GetState()
	where := "on grid"
	if !state.OnGrid {
		where = "off grid"
	}
	status := fmt.Sprintf("%s | (%d,%d) %s | frame %d | moves %d | %s",
		state.ConfigName, state.Actor.Col, state.Actor.Row, where, state.Frame, state.TotalMoves, state.Message)
	ebitenutil.DebugPrintAt(screen, status, 10, 8)
	ebitenutil.DebugPrintAt(screen, "Arrows/WASD: Move | R: Reset | ESC: Quit", 10, 22)
}

func (g *Game) drawHex(screen *ebiten.Image, layout hex.Layout, tile render.Sprite, fill color.RGBA) {
	poly := g.camera.Polygon(layout, tile.Center)

	var path vector.Path
	path.MoveTo(poly[0][0], poly[0][1])
	for _, p := range poly[1:] {
		path.LineTo(p[0], p[1])
	}
	path.Close()

	vs, is := path.AppendVerticesAndIndicesForFilling(nil, nil)
	for i := range vs {
		vs[i].SrcX = 1
		vs[i].SrcY = 1
		vs[i].ColorR = float32(fill.R) / 255
		vs[i].ColorG = float32(fill.G) / 255
		vs[i].ColorB = float32(fill.B) / 255
		vs[i].ColorA = 1
	}
	op := &ebiten.DrawTrianglesOptions{AntiAlias: true}
	screen.DrawTriangles(vs, is, whiteSubImage, op)

	for i := range poly {
		next := poly[(i+1)%len(poly)]
		vector.StrokeLine(screen, poly[i][0], poly[i][1], next[0], next[1], 1, outlineColor, true)
	}
}

// Layout reports the fixed logical screen size
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env: %v", err)
	}
	flag.Parse()

	manager, err := config.NewManager(*configDir)
	if err != nil {
		log.Fatalf("Failed to create config manager: %v", err)
	}
	cfg, err := manager.LoadConfig(*configName)
	if err != nil {
		log.Fatalf("Failed to load config %q: %v", *configName, err)
	}
	if *seed != 0 {
		c := *cfg
		c.Seed = *seed
		cfg = &c
	}

	eng, err := engine.NewEngine(cfg)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	log.Printf("Loaded %s: %dx%d, seed %d", cfg.Name, cfg.Width, cfg.Height, eng.GetState().Seed)

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Hex Grid Viewer - " + cfg.Name)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)

	if err := ebiten.RunGame(NewGame(eng)); err != nil && err != ebiten.Termination {
		log.Fatal(err)
	}
}
