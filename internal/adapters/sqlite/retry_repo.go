package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/curator/internal/ports/secondary"
)

// RetryRepository implements secondary.RetryRepository with SQLite.
type RetryRepository struct {
	db *sql.DB
}

// NewRetryRepository creates a new SQLite retry queue store.
func NewRetryRepository(db *sql.DB) *RetryRepository {
	return &RetryRepository{db: db}
}

const retryColumns = `entry_guid, feed_id, entry_url, entry_title, category, first_failed_at, last_attempt_at, next_retry_at, retry_count, last_error`

// Get retrieves the retry row for an entry GUID, or nil when absent.
func (r *RetryRepository) Get(ctx context.Context, guid string) (*secondary.RetryRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+retryColumns+` FROM retry_queue WHERE entry_guid = ?`, guid)

	rec, err := scanRetry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get retry entry: %w", err)
	}
	return rec, nil
}

// Create inserts a new retry row.
func (r *RetryRepository) Create(ctx context.Context, rec *secondary.RetryRecord) error {
	var title sql.NullString
	if rec.EntryTitle != "" {
		title = sql.NullString{String: rec.EntryTitle, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO retry_queue (entry_guid, feed_id, entry_url, entry_title, category, last_attempt_at, next_retry_at, retry_count, last_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.EntryGUID,
		nullableID(rec.FeedID),
		rec.EntryURL,
		title,
		rec.Category,
		rec.LastAttemptAt,
		rec.NextRetryAt,
		rec.RetryCount,
		rec.LastError,
	)
	if err != nil {
		return fmt.Errorf("failed to create retry entry: %w", err)
	}

	return nil
}

// Update rewrites the attempt count, schedule, and error of an existing row.
func (r *RetryRepository) Update(ctx context.Context, rec *secondary.RetryRecord) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE retry_queue SET retry_count = ?, last_attempt_at = ?, next_retry_at = ?, last_error = ? WHERE entry_guid = ?`,
		rec.RetryCount,
		rec.LastAttemptAt,
		rec.NextRetryAt,
		rec.LastError,
		rec.EntryGUID,
	)
	if err != nil {
		return fmt.Errorf("failed to update retry entry: %w", err)
	}

	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("retry entry %s not found", rec.EntryGUID)
	}
	return nil
}

// Delete removes the row for an entry GUID. Missing rows are not an error.
func (r *RetryRepository) Delete(ctx context.Context, guid string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM retry_queue WHERE entry_guid = ?`, guid); err != nil {
		return fmt.Errorf("failed to delete retry entry: %w", err)
	}
	return nil
}

// ListDue returns rows with next_retry_at <= now, oldest due first so no
// entry starves behind newer ones.
func (r *RetryRepository) ListDue(ctx context.Context, now time.Time) ([]*secondary.RetryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+retryColumns+` FROM retry_queue WHERE next_retry_at <= ? ORDER BY next_retry_at ASC`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list due retries: %w", err)
	}
	defer rows.Close()

	return collectRetries(rows)
}

// ListAll returns every queued row, oldest due first.
func (r *RetryRepository) ListAll(ctx context.Context) ([]*secondary.RetryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+retryColumns+` FROM retry_queue ORDER BY next_retry_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list retry queue: %w", err)
	}
	defer rows.Close()

	return collectRetries(rows)
}

// Count returns the number of queued rows.
func (r *RetryRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM retry_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count retry queue: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRetry(row rowScanner) (*secondary.RetryRecord, error) {
	var (
		feedID        sql.NullInt64
		title         sql.NullString
		lastError     sql.NullString
		lastAttemptAt sql.NullTime
		nextRetryAt   sql.NullTime
	)

	rec := &secondary.RetryRecord{}
	err := row.Scan(
		&rec.EntryGUID,
		&feedID,
		&rec.EntryURL,
		&title,
		&rec.Category,
		&rec.FirstFailedAt,
		&lastAttemptAt,
		&nextRetryAt,
		&rec.RetryCount,
		&lastError,
	)
	if err != nil {
		return nil, err
	}

	rec.FeedID = feedID.Int64
	rec.EntryTitle = title.String
	rec.LastError = lastError.String
	rec.LastAttemptAt = lastAttemptAt.Time
	rec.NextRetryAt = nextRetryAt.Time
	return rec, nil
}

func collectRetries(rows *sql.Rows) ([]*secondary.RetryRecord, error) {
	var recs []*secondary.RetryRecord
	for rows.Next() {
		rec, err := scanRetry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan retry entry: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate retry entries: %w", err)
	}
	return recs, nil
}
