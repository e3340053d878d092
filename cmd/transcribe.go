package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/storysounds/internal/formatter"
	"github.com/urfave/cli/v3"
)

// Transcribe prints the text of an audio file, or with --recommend the playlist generated from it.
func (r *Runner) Transcribe(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	path := cmd.String("file")
	audio, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open audio file: %w", err)
	}
	defer audio.Close()

	engine, err := r.pipeline()
	if err != nil {
		return err
	}

	progress, stop := r.watchProgress(cmd.Bool("progress"))
	text, err := engine.Transcribe(ctx, filepath.Base(path), audio, progress)
	stop()
	if err != nil {
		return err
	}

	if !cmd.Bool("recommend") {
		return r.writePlain("%s\n", text)
	}

	result, err := r.runPipeline(ctx, engine, text, cmd.Bool("progress"))
	if err != nil {
		return err
	}
	return r.deliver(result, format, cmd.String("output"))
}
