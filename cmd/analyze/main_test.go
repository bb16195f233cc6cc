package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/hexgrid/game/engine"
)

const testConfigDir = "../../configs"

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(context.Background(), append([]string{"analyze", "--config-dir", testConfigDir}, args...))
	return out.String(), err
}

func TestGenerateCommand(t *testing.T) {
	out, err := runApp(t, "generate", "islands")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if !strings.Contains(out, "islands: 16x12, seed 1337, cluster size 4") {
		t.Errorf("Unexpected header:\n%s", out)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	// header + 12 rows + tile counts
	if len(lines) != 14 {
		t.Fatalf("Expected 14 lines, got %d:\n%s", len(lines), out)
	}
	for _, row := range lines[1:13] {
		if len(row) != 16 {
			t.Errorf("Expected 16 columns, got %q", row)
		}
	}
	if lines[7][8] != '@' {
		t.Errorf("Expected actor at (8,6), row is %q", lines[7])
	}
	if !strings.HasPrefix(lines[13], "Tiles: plains=") {
		t.Errorf("Unexpected counts line %q", lines[13])
	}
}

func TestGenerateCommandDeterministic(t *testing.T) {
	first, err := runApp(t, "generate", "--seed", "99", "default")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	second, err := runApp(t, "generate", "--seed", "99", "default")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if first != second {
		t.Errorf("Same seed produced different grids:\n%s\n%s", first, second)
	}
}

func TestGenerateCommandJSON(t *testing.T) {
	out, err := runApp(t, "generate", "--json", "--width", "4", "--height", "2", "islands")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	var grid engine.Grid
	if err := json.Unmarshal([]byte(out), &grid); err != nil {
		t.Fatalf("Output is not a grid: %v\n%s", err, out)
	}
	if grid.Width != 4 || grid.Height != 2 || len(grid.Tiles) != 8 {
		t.Errorf("Expected 4x2 grid with 8 tiles, got %dx%d with %d", grid.Width, grid.Height, len(grid.Tiles))
	}
	// column outer, row inner
	if grid.Tiles[1].Col != 0 || grid.Tiles[1].Row != 1 {
		t.Errorf("Expected second tile at (0,1), got (%d,%d)", grid.Tiles[1].Col, grid.Tiles[1].Row)
	}
}

func TestGenerateOptionsClampStart(t *testing.T) {
	cfg := &engine.GameConfig{Width: 16, Height: 12, Start: engine.Position{Col: 8, Row: 6}}

	shrunk := generateOptions{Width: 4, Height: 2}.apply(cfg)
	if shrunk.Start != (engine.Position{Col: 3, Row: 1}) {
		t.Errorf("Expected start clamped to (3,1), got (%d,%d)", shrunk.Start.Col, shrunk.Start.Row)
	}
	if cfg.Start != (engine.Position{Col: 8, Row: 6}) {
		t.Error("apply modified the loaded config")
	}

	same := generateOptions{Width: 20}.apply(cfg)
	if same.Start != cfg.Start {
		t.Errorf("Start should be kept when it fits, got (%d,%d)", same.Start.Col, same.Start.Row)
	}
}

func TestGenerateCommandUnknownConfig(t *testing.T) {
	if _, err := runApp(t, "generate", "nope"); err == nil {
		t.Error("Expected error for unknown config")
	}
}

func TestStatsCommand(t *testing.T) {
	out, err := runApp(t, "stats", "--runs", "20", "--seed", "5", "default")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	for _, s := range []string{"=== default ===", "seeds 5..24", "tiles: 2000", "plains", "desert", "river", "Mean run length"} {
		if !strings.Contains(out, s) {
			t.Errorf("Expected %q in output:\n%s", s, out)
		}
	}
}

func TestCollectStats(t *testing.T) {
	cfg, err := loadConfig(testConfigDir, "default")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	stats, err := collectStats(cfg, 200, 1)
	if err != nil {
		t.Fatalf("collectStats failed: %v", err)
	}

	if stats.Tiles != 200*cfg.Width*cfg.Height {
		t.Errorf("Expected %d tiles, got %d", 200*cfg.Width*cfg.Height, stats.Tiles)
	}
	total := 0
	for _, ts := range stats.Types {
		total += ts.Count
	}
	if total != stats.Tiles {
		t.Errorf("Type counts sum to %d, expected %d", total, stats.Tiles)
	}
	if stats.MaxDeviation > 0.05 {
		t.Errorf("Observed frequencies drift too far from weights: %.3f", stats.MaxDeviation)
	}
	if stats.MeanRunLength < 2.5 {
		t.Errorf("Expected clustered runs, mean run length %.2f", stats.MeanRunLength)
	}

	if _, err := collectStats(cfg, 0, 1); err == nil {
		t.Error("Expected error for zero runs")
	}
}

func TestValidateCommand(t *testing.T) {
	out, err := runApp(t, "validate")
	if err != nil {
		t.Fatalf("validate failed: %v\n%s", err, out)
	}
	for _, name := range []string{"default.json", "islands.yaml", "dunes.yml"} {
		if !strings.Contains(out, name) {
			t.Errorf("Expected %s in report", name)
		}
	}
	if !strings.Contains(out, "All configurations are valid") {
		t.Errorf("Expected success summary:\n%s", out)
	}
}

func TestValidateCommandInvalidFile(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"name":"bad","width":0,"height":3}`), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runApp(t, "validate", bad, filepath.Join(testConfigDir, "default.json"))
	if !errors.Is(err, errInvalidConfigs) {
		t.Fatalf("Expected errInvalidConfigs, got %v", err)
	}
	if !strings.Contains(out, "❌ INVALID") || !strings.Contains(out, "✅ VALID") {
		t.Errorf("Expected one invalid and one valid file:\n%s", out)
	}
}

func TestLoadConfigFromPath(t *testing.T) {
	cfg, err := loadConfig("does-not-exist", filepath.Join(testConfigDir, "dunes.yml"))
	if err != nil {
		t.Fatalf("Failed to load config by path: %v", err)
	}
	if cfg.ClusterSize != 1 || cfg.Seed != 42 {
		t.Errorf("Unexpected dunes config: cluster %d seed %d", cfg.ClusterSize, cfg.Seed)
	}
}

func TestConfigFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.json", "notes.txt"} {
		os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644)
	}
	os.Mkdir(filepath.Join(dir, "sub.json"), 0755)

	files, err := configFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "a.json" || filepath.Base(files[1]) != "b.yaml" {
		t.Errorf("Unexpected files: %v", files)
	}
}
