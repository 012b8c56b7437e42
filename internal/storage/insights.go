package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Insight is a stored narrative produced by the insight worker.
type Insight struct {
	ID          int64     `json:"id"`
	Body        string    `json:"body"`
	GeneratedAt time.Time `json:"generatedAt"`
}

func (r *Repository) SaveInsight(ctx context.Context, body string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO insights (body, generated_at) VALUES (?, ?)`, body, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert insight: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert insight: %w", err)
	}
	return id, nil
}

// LatestInsight returns the most recent narrative, or ErrNotFound when
// none has been generated yet.
func (r *Repository) LatestInsight(ctx context.Context) (Insight, error) {
	var ins Insight
	err := r.db.QueryRowContext(ctx,
		`SELECT id, body, generated_at FROM insights ORDER BY id DESC LIMIT 1`).
		Scan(&ins.ID, &ins.Body, &ins.GeneratedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Insight{}, ErrNotFound
	}
	if err != nil {
		return Insight{}, fmt.Errorf("latest insight: %w", err)
	}
	return ins, nil
}
