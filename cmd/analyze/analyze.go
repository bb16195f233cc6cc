package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/hexgrid/game/config"
	"github.com/wricardo/mcp-training/hexgrid/game/engine"
)

// loadConfig resolves name as a file path when it has a config extension and
// exists, otherwise as a config ID inside configDir.
func loadConfig(configDir, name string) (*engine.GameConfig, error) {
	if name == "" {
		name = config.DefaultConfigName
	}
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
		if _, err := os.Stat(name); err == nil {
			return config.ParseFile(name)
		}
	}
	manager, err := config.NewManager(configDir)
	if err != nil {
		return nil, err
	}
	return manager.LoadConfig(name)
}

// generateOptions override parts of a loaded config
type generateOptions struct {
	Seed   int64
	Width  int
	Height int
	JSON   bool
}

func (o generateOptions) apply(cfg *engine.GameConfig) *engine.GameConfig {
	c := *cfg
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.Width > 0 {
		c.Width = o.Width
	}
	if o.Height > 0 {
		c.Height = o.Height
	}
	if c.Start.Col > c.Width-1 {
		c.Start.Col = c.Width - 1
	}
	if c.Start.Row > c.Height-1 {
		c.Start.Row = c.Height - 1
	}
	return &c
}

// generate builds one grid and prints it as an ASCII map, or as JSON
func generate(w io.Writer, cfg *engine.GameConfig, opts generateOptions) error {
	eng, err := engine.NewEngine(opts.apply(cfg))
	if err != nil {
		return err
	}
	state := eng.GetState()

	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(state.Grid)
	}

	grid := state.Grid
	fmt.Fprintf(w, "%s: %dx%d, seed %d, cluster size %d, hex size %.2f\n",
		cfg.Name, grid.Width, grid.Height, state.Seed, grid.ClusterSize, grid.HexSize)
	start := state.Actor.Position()
	for _, line := range grid.ASCII(&start) {
		fmt.Fprintln(w, line)
	}
	counts := grid.Counts()
	parts := make([]string, 0, len(engine.TileTypes))
	for _, t := range engine.TileTypes {
		parts = append(parts, fmt.Sprintf("%s=%d", t, counts[t]))
	}
	fmt.Fprintf(w, "Tiles: %s\n", strings.Join(parts, " "))
	return nil
}

// TypeStats compares observed tile frequencies with configured weights
type TypeStats struct {
	Type     engine.TileType
	Count    int
	Observed float64
	Expected float64
}

// Stats summarizes a batch of generated grids
type Stats struct {
	Runs          int
	Tiles         int
	Types         []TypeStats
	MeanRunLength float64 // consecutive same-type tiles in generation order
	MaxDeviation  float64
	ClusterSize   int
	FirstSeed     int64
}

// collectStats generates runs grids with consecutive seeds starting at
// firstSeed and aggregates their tile statistics.
func collectStats(cfg *engine.GameConfig, runs int, firstSeed int64) (*Stats, error) {
	if runs <= 0 {
		return nil, fmt.Errorf("runs must be positive, got %d", runs)
	}
	weights, err := cfg.WeightTable()
	if err != nil {
		return nil, err
	}

	totals := make(map[engine.TileType]int)
	var runCount, tiles int
	for i := 0; i < runs; i++ {
		c := *cfg
		c.Seed = firstSeed + int64(i)
		eng, err := engine.NewEngine(&c)
		if err != nil {
			return nil, err
		}
		grid := eng.GetGrid()
		for t, n := range grid.Counts() {
			totals[t] += n
		}
		for j, tile := range grid.Tiles {
			if j == 0 || grid.Tiles[j-1].Type != tile.Type {
				runCount++
			}
		}
		tiles += len(grid.Tiles)
	}

	stats := &Stats{
		Runs:        runs,
		Tiles:       tiles,
		ClusterSize: cfg.EffectiveClusterSize(),
		FirstSeed:   firstSeed,
	}
	if runCount > 0 {
		stats.MeanRunLength = float64(tiles) / float64(runCount)
	}
	for _, t := range engine.TileTypes {
		ts := TypeStats{
			Type:     t,
			Count:    totals[t],
			Observed: float64(totals[t]) / float64(tiles),
			Expected: weights.Weight(t),
		}
		if d := math.Abs(ts.Observed - ts.Expected); d > stats.MaxDeviation {
			stats.MaxDeviation = d
		}
		stats.Types = append(stats.Types, ts)
	}
	return stats, nil
}

func printStats(w io.Writer, name string, s *Stats) {
	fmt.Fprintf(w, "=== %s ===\n", name)
	fmt.Fprintf(w, "Runs: %d (seeds %d..%d), tiles: %d\n", s.Runs, s.FirstSeed, s.FirstSeed+int64(s.Runs)-1, s.Tiles)
	fmt.Fprintf(w, "%-8s %8s %9s %9s\n", "type", "count", "observed", "expected")
	for _, t := range s.Types {
		fmt.Fprintf(w, "%-8s %8d %8.2f%% %8.2f%%\n", t.Type, t.Count, t.Observed*100, t.Expected*100)
	}
	fmt.Fprintf(w, "Mean run length: %.2f (cluster size %d)\n", s.MeanRunLength, s.ClusterSize)
	fmt.Fprintf(w, "Max deviation: %.2f%%\n", s.MaxDeviation*100)
}

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateFile checks a config file against the schema and the engine rules,
// then generates its grid once.
func validateFile(path string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(path),
		Valid:  true,
		Errors: []string{},
	}

	cfg, err := config.ParseFile(path)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Structure: %dx%d, start (%d,%d)", cfg.Width, cfg.Height, cfg.Start.Col, cfg.Start.Row))

	weights, err := cfg.WeightTable()
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	var unused []string
	for _, t := range engine.TileTypes {
		if weights.Weight(t) == 0 {
			unused = append(unused, t.String())
		}
	}
	if len(unused) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Weights: never generates %s", strings.Join(unused, ", ")))
	} else {
		result.Errors = append(result.Errors, "✓ Weights: every tile type can appear")
	}

	if _, err := engine.NewEngine(cfg); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Generation failed: %v", err))
		return result
	}
	if cfg.Seed != 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Generation: reproducible with seed %d", cfg.Seed))
	} else {
		result.Errors = append(result.Errors, "✓ Generation: random seed per session")
	}
	return result
}

// configFiles lists the config documents in dir, sorted by name
func configFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, known := range config.Extensions {
			if ext == known {
				files = append(files, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// printValidation writes the report and reports whether every file passed
func printValidation(w io.Writer, results []ValidationResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Fprintln(w, "  ❌ "+err)
				}
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All configurations are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some configurations have errors")
	}
	return allValid
}
