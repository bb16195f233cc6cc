// Command analyze inspects grid configurations: it prints generated maps,
// compares tile frequencies over many seeds with the configured weights, and
// validates config files against the schema.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v3"
)

var errInvalidConfigs = errors.New("some configurations have errors")

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "inspect hex grid configurations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing grid configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "generate",
				Usage:     "generate a grid and print it",
				ArgsUsage: "[CONFIG]",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "seed", Usage: "override the config seed"},
					&cli.IntFlag{Name: "width", Usage: "override the grid width"},
					&cli.IntFlag{Name: "height", Usage: "override the grid height"},
					&cli.BoolFlag{Name: "json", Usage: "print the grid as JSON"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd.String("config-dir"), cmd.Args().First())
					if err != nil {
						return err
					}
					return generate(cmd.Root().Writer, cfg, generateOptions{
						Seed:   cmd.Int64("seed"),
						Width:  cmd.Int("width"),
						Height: cmd.Int("height"),
						JSON:   cmd.Bool("json"),
					})
				},
			},
			{
				Name:      "stats",
				Usage:     "compare tile frequencies over many seeds with the configured weights",
				ArgsUsage: "[CONFIG]",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "runs", Value: 100, Usage: "number of grids to generate"},
					&cli.Int64Flag{Name: "seed", Value: 1, Usage: "first seed"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name := cmd.Args().First()
					cfg, err := loadConfig(cmd.String("config-dir"), name)
					if err != nil {
						return err
					}
					stats, err := collectStats(cfg, cmd.Int("runs"), cmd.Int64("seed"))
					if err != nil {
						return err
					}
					printStats(cmd.Root().Writer, cfg.Name, stats)
					return nil
				},
			},
			{
				Name:      "validate",
				Usage:     "validate config files (all files in --config-dir when none are given)",
				ArgsUsage: "[FILE...]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					files := cmd.Args().Slice()
					if len(files) == 0 {
						var err error
						files, err = configFiles(cmd.String("config-dir"))
						if err != nil {
							return fmt.Errorf("error finding config files: %w", err)
						}
					}

					results := make([]ValidationResult, 0, len(files))
					for _, file := range files {
						results = append(results, validateFile(file))
					}
					if !printValidation(cmd.Root().Writer, results) {
						return errInvalidConfigs
					}
					return nil
				},
			},
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
