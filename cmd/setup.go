package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/storysounds/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes the example config when none exists, then initializes the database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); errors.Is(err, os.ErrNotExist) {
		r.logger.Info("config file not found, creating from template", "path", r.configPath)
		if err := shared.CreateConfigFile(r.configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.writeStatus("✓ Created %s\n", r.configPath)
		}
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	if err := r.openStore(); err != nil {
		return err
	}
	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)

	r.writeStatus("✓ Database ready: %s\n", r.config.Database.Path)
	r.writeStatus("\nCredentials:\n")
	r.writeStatus("  Spotify catalog: %s\n", configured(r.config.HasSpotify()))
	r.writeStatus("  YouTube previews: %s\n", configured(r.config.HasYouTube()))
	r.writeStatus("  OpenAI: %s\n", configured(r.config.Credentials.OpenAI.APIKey != ""))
	r.writeStatus("\nNext: storysounds recommend \"a rainy sunday with old friends\"\n")
	return nil
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "missing"
}
