package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/storysounds/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	err := newApp(runner).Run(context.Background(), os.Args)
	runner.Close()

	if err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}

func newApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:    "storysounds",
		Usage:   "Turn a story or a mood into a playable playlist",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("STORYSOUNDS_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   runner.Before,
		Commands: runner.register(),
	}
}
