package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/storysounds/internal/models"
	"github.com/desertthunder/storysounds/internal/shared"
)

// FeedbackRepository stores client feedback.
type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create validates and inserts feedback, assigning its ID and sequence.
func (r *FeedbackRepository) Create(ctx context.Context, fb *models.Feedback) error {
	fb.Message = strings.TrimSpace(fb.Message)
	fb.Email = strings.TrimSpace(fb.Email)
	if fb.Message == "" {
		return shared.ErrEmptyFeedback
	}
	if err := fb.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if fb.Source == "" {
		fb.Source = "web"
	}

	sequence, err := NextSequence(ctx, r.db, "feedback")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	fb.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO feedback (id, sequence, message, email, submitted_at, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query, id, sequence, fb.Message, nullable(fb.Email), nullable(fb.SubmittedAt), fb.Source, fb.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}

	fb.ID = id
	fb.Sequence = sequence
	return nil
}

// List returns feedback newest first. A limit of zero or less returns everything.
func (r *FeedbackRepository) List(ctx context.Context, limit int) ([]*models.Feedback, error) {
	query := `SELECT id, sequence, message, email, submitted_at, source, created_at FROM feedback ORDER BY sequence DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	out := []*models.Feedback{}
	for rows.Next() {
		var (
			fb               models.Feedback
			email, submitted sql.NullString
		)
		if err := rows.Scan(&fb.ID, &fb.Sequence, &fb.Message, &email, &submitted, &fb.Source, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		fb.Email = email.String
		fb.SubmittedAt = submitted.String
		out = append(out, &fb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
