package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/curator/internal/ports/primary"
	"github.com/example/curator/internal/ports/secondary"
)

// RunRepository implements secondary.RunRepository with SQLite.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new SQLite run ledger.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// StartRun inserts a running RunRecord and returns its ID.
func (r *RunRepository) StartRun(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO pipeline_runs (status) VALUES (?)`, primary.RunStatusRunning)
	if err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}
	return id, nil
}

// CompleteRun finalizes a run as completed with its counts.
func (r *RunRepository) CompleteRun(ctx context.Context, id int64, processed, failed int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE pipeline_runs SET completed_at = ?, items_processed = ?, items_failed = ?, status = ? WHERE id = ?`,
		time.Now(), processed, failed, primary.RunStatusCompleted, id)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// FailRun finalizes a run as failed.
func (r *RunRepository) FailRun(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE pipeline_runs SET completed_at = ?, status = ? WHERE id = ?`,
		time.Now(), primary.RunStatusFailed, id)
	if err != nil {
		return fmt.Errorf("failed to mark run failed: %w", err)
	}
	return nil
}

// LastSuccessful returns the completion time of the most recent completed run.
func (r *RunRepository) LastSuccessful(ctx context.Context) (time.Time, bool, error) {
	var completedAt time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT completed_at FROM pipeline_runs WHERE status = ? AND completed_at IS NOT NULL ORDER BY completed_at DESC LIMIT 1`,
		primary.RunStatusCompleted,
	).Scan(&completedAt)

	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get last successful run: %w", err)
	}
	return completedAt, true, nil
}

// ListRecent returns the most recent runs, newest first.
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]*secondary.RunRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, started_at, completed_at, items_processed, items_failed, status FROM pipeline_runs ORDER BY started_at DESC, id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var recs []*secondary.RunRecord
	for rows.Next() {
		var completedAt sql.NullTime
		rec := &secondary.RunRecord{}
		if err := rows.Scan(&rec.ID, &rec.StartedAt, &completedAt, &rec.ItemsProcessed, &rec.ItemsFailed, &rec.Status); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.CompletedAt = completedAt.Time
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return recs, nil
}
