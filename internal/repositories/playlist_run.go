package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/storysounds/internal/models"
	"github.com/desertthunder/storysounds/internal/shared"
)

const runColumns = `id, sequence, title, transcription, recommended_count, track_count, preview_count, created_at`

// PlaylistRunRepository stores finished pipeline runs as playlist history.
type PlaylistRunRepository struct {
	db *sql.DB
}

// NewPlaylistRunRepository creates a new PlaylistRunRepository with the given database connection
func NewPlaylistRunRepository(db *sql.DB) *PlaylistRunRepository {
	return &PlaylistRunRepository{db: db}
}

// Create inserts a run with a generated ID and sequence. The response is stored as JSON.
func (r *PlaylistRunRepository) Create(ctx context.Context, run *models.PlaylistRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	response, err := json.Marshal(run.Response)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}

	sequence, err := NextSequence(ctx, r.db, "playlist_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO playlist_runs (id, sequence, title, transcription, recommended_count, track_count, preview_count, response, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		id,
		sequence,
		run.Title,
		run.Transcription,
		run.RecommendedCount,
		run.TrackCount,
		run.PreviewCount,
		string(response),
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert playlist run: %w", err)
	}

	run.ID = id
	run.Sequence = sequence
	return nil
}

// Get retrieves a run and its response by ID
func (r *PlaylistRunRepository) Get(ctx context.Context, id string) (*models.PlaylistRun, error) {
	query := `SELECT ` + runColumns + `, response FROM playlist_runs WHERE id = ? AND deleted_at IS NULL`
	return r.scanFull(r.db.QueryRowContext(ctx, query, id))
}

// GetBySequence retrieves a run and its response by its sequence number
func (r *PlaylistRunRepository) GetBySequence(ctx context.Context, sequence int) (*models.PlaylistRun, error) {
	query := `SELECT ` + runColumns + `, response FROM playlist_runs WHERE sequence = ? AND deleted_at IS NULL`
	return r.scanFull(r.db.QueryRowContext(ctx, query, sequence))
}

// Find looks a run up by sequence number when ref is numeric, otherwise by ID.
func (r *PlaylistRunRepository) Find(ctx context.Context, ref string) (*models.PlaylistRun, error) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "#")
	if seq, err := strconv.Atoi(ref); err == nil {
		return r.GetBySequence(ctx, seq)
	}
	return r.Get(ctx, ref)
}

// List returns run summaries, newest first. The response is not loaded.
//
// A limit of zero or less returns every run.
func (r *PlaylistRunRepository) List(ctx context.Context, limit, offset int) ([]*models.PlaylistRun, error) {
	query := `SELECT ` + runColumns + ` FROM playlist_runs WHERE deleted_at IS NULL ORDER BY sequence DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, max(0, offset))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist runs: %w", err)
	}
	defer rows.Close()

	runs := []*models.PlaylistRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// Count returns the number of stored runs.
func (r *PlaylistRunRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM playlist_runs WHERE deleted_at IS NULL`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count playlist runs: %w", err)
	}
	return n, nil
}

// Delete soft-deletes a run by ID
func (r *PlaylistRunRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE playlist_runs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}

	return nil
}

func (r *PlaylistRunRepository) scanFull(row *sql.Row) (*models.PlaylistRun, error) {
	var (
		run      models.PlaylistRun
		response string
	)

	err := row.Scan(&run.ID, &run.Sequence, &run.Title, &run.Transcription,
		&run.RecommendedCount, &run.TrackCount, &run.PreviewCount, &run.CreatedAt, &response)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist run: %w", err)
	}

	var resp models.PlaylistResponse
	if err := json.Unmarshal([]byte(response), &resp); err != nil {
		return nil, fmt.Errorf("failed to decode stored response: %w", err)
	}
	resp.RunID = run.ID
	run.Response = &resp

	return &run, nil
}

func scanRun(s scanner) (*models.PlaylistRun, error) {
	var run models.PlaylistRun
	err := s.Scan(&run.ID, &run.Sequence, &run.Title, &run.Transcription,
		&run.RecommendedCount, &run.TrackCount, &run.PreviewCount, &run.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist run: %w", err)
	}
	return &run, nil
}
