package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/storysounds/internal/formatter"
	"github.com/desertthunder/storysounds/internal/models"
	"github.com/desertthunder/storysounds/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryList prints saved playlists, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	runs, err := r.runs.List(ctx, int(cmd.Int("limit")), int(cmd.Int("offset")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if runs == nil {
			runs = []*models.PlaylistRun{}
		}
		return r.writeJSON(runs, true)
	}

	total, err := r.runs.Count(ctx)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		return r.writePlain("No saved playlists. Run 'storysounds recommend' to create one.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Saved playlists (%d of %d)", len(runs), total))
	for _, run := range runs {
		r.writePlain("#%-4d %-48s %2d/%-2d tracks  %2d previews  %s\n",
			run.Sequence,
			shared.Truncate(run.Title, 48),
			run.TrackCount,
			run.RecommendedCount,
			run.PreviewCount,
			run.CreatedAt.Local().Format("2006-01-02 15:04"),
		)
	}
	return nil
}

// HistoryShow prints one saved playlist in the requested format.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	run, err := r.findRun(ctx, cmd)
	if err != nil {
		return err
	}
	if run.Response == nil {
		return fmt.Errorf("%w: playlist #%d has no stored tracks", shared.ErrRunNotFound, run.Sequence)
	}

	return r.writeResponse(run.Response, format, cmd.String("output"))
}

// HistoryDelete removes a saved playlist.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	run, err := r.findRun(ctx, cmd)
	if err != nil {
		return err
	}
	if err := r.runs.Delete(ctx, run.ID); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted playlist #%d: %s\n", run.Sequence, run.Title)
}

func (r *Runner) findRun(ctx context.Context, cmd *cli.Command) (*models.PlaylistRun, error) {
	ref := cmd.StringArg("ref")
	if ref == "" {
		return nil, fmt.Errorf("%w: playlist number or id", shared.ErrMissingArgument)
	}
	if err := r.openStore(); err != nil {
		return nil, err
	}
	return r.runs.Find(ctx, ref)
}
