package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/desertthunder/storysounds/internal/formatter"
	"github.com/desertthunder/storysounds/internal/models"
	"github.com/desertthunder/storysounds/internal/shared"
	"github.com/desertthunder/storysounds/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Recommend generates a playlist and writes it in the requested format.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	text, err := r.inputText(cmd)
	if err != nil {
		return err
	}

	if !cmd.Bool("save") {
		r.config.Pipeline.SaveRuns = false
	}

	engine, err := r.pipeline()
	if err != nil {
		return err
	}

	r.logger.Debug("starting playlist run", "chars", len(text))
	result, err := r.runPipeline(ctx, engine, text, cmd.Bool("progress"))
	if err != nil {
		return err
	}

	return r.deliver(result, format, cmd.String("output"))
}

// inputText reads the mood text from --file, "-" (stdin) or the joined arguments.
func (r *Runner) inputText(cmd *cli.Command) (string, error) {
	var text string
	switch args := cmd.Args().Slice(); {
	case cmd.String("file") != "":
		data, err := os.ReadFile(cmd.String("file"))
		if err != nil {
			return "", fmt.Errorf("failed to read text file: %w", err)
		}
		text = string(data)
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(r.input)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	default:
		text = strings.Join(args, " ")
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: describe a story or mood as arguments, with --file, or on stdin with -", shared.ErrMissingArgument)
	}
	return text, nil
}

func (r *Runner) runPipeline(ctx context.Context, engine *tasks.PlaylistEngine, text string, showProgress bool) (*tasks.RunResult, error) {
	progress, stop := r.watchProgress(showProgress)
	result, err := engine.Run(ctx, text, progress)
	stop()
	return result, err
}

// deliver writes the response and reports where it went and whether it was saved.
func (r *Runner) deliver(result *tasks.RunResult, format formatter.Format, output string) error {
	if err := r.writeResponse(result.Response, format, output); err != nil {
		return err
	}

	r.logger.Debug("run finished",
		"duration", result.Duration,
		"resolved", result.Batch.Succeeded,
		"failed", result.Batch.Failed,
		"previews", result.Enrich.Attached,
	)

	if result.Run != nil {
		r.writeStatus("Saved as playlist #%d (storysounds history show %d)\n", result.Run.Sequence, result.Run.Sequence)
	}
	return nil
}

// writeResponse writes to stdout, or to output when set. Markdown output is a directory with a cover image.
func (r *Runner) writeResponse(resp *models.PlaylistResponse, format formatter.Format, output string) error {
	switch {
	case output == "":
		return formatter.Write(r.output, resp, format)
	case format == formatter.Markdown:
		result, err := formatter.WriteMarkdownExport(resp, output)
		if err != nil {
			return err
		}
		r.writeStatus("✓ Wrote %s (%d files)\n", result.Directory, len(result.Files))
	default:
		path, err := formatter.WriteExport(resp, format, output)
		if err != nil {
			return err
		}
		r.writeStatus("✓ Wrote %s\n", path)
	}
	return nil
}

// Resolve looks up one song with the configured strategies. It needs only catalog credentials.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.catalog()
	if err != nil {
		return err
	}

	resolver, err := tasks.NewResolverFromConfig(r.config, catalog, r.logger)
	if err != nil {
		return err
	}

	rec := models.Recommendation{Song: cmd.String("song"), Artist: cmd.String("artist")}
	track, err := tasks.ResolveOne(ctx, catalog, resolver, rec, cmd.String("intent"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(track, true)
	}

	if !track.SearchSuccess {
		r.writePlain("✗ %s\n  %s\n", rec, track.Error)
		return nil
	}

	r.writePlain("✓ %s - %s\n", track.ArtistNames(), track.Name)
	if track.Album.Name != "" {
		r.writePlain("  Album: %s\n", track.Album.Name)
	}
	r.writePlain("  Method: %s\n", track.SearchMethod)
	if track.ExternalURL != "" {
		r.writePlain("  Spotify: %s\n", track.ExternalURL)
	}
	if track.PreviewURL != "" {
		r.writePlain("  Preview: %s\n", track.PreviewURL)
	}
	return nil
}
