// Package sqlite contains SQLite implementations of the repository ports.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/curator/internal/ports/secondary"
)

// nullableID maps the zero ID to NULL. Backfilled or orphaned rows carry no
// feed reference.
func nullableID(id int64) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}

// ProcessedRepository implements secondary.ProcessedRepository with SQLite.
type ProcessedRepository struct {
	db *sql.DB
}

// NewProcessedRepository creates a new SQLite completion ledger.
func NewProcessedRepository(db *sql.DB) *ProcessedRepository {
	return &ProcessedRepository{db: db}
}

// MarkProcessed records a completed entry. The ledger is append-only;
// a duplicate GUID is an error.
func (r *ProcessedRepository) MarkProcessed(ctx context.Context, rec *secondary.CompletionRecord) error {
	var title, notePath sql.NullString
	if rec.EntryTitle != "" {
		title = sql.NullString{String: rec.EntryTitle, Valid: true}
	}
	if rec.NotePath != "" {
		notePath = sql.NullString{String: rec.NotePath, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO processed_entries (entry_guid, feed_id, entry_url, entry_title, note_path) VALUES (?, ?, ?, ?, ?)`,
		rec.EntryGUID,
		nullableID(rec.FeedID),
		rec.EntryURL,
		title,
		notePath,
	)
	if err != nil {
		return fmt.Errorf("failed to mark entry processed: %w", err)
	}

	return nil
}

// IsProcessed reports whether an entry GUID has a completion record.
func (r *ProcessedRepository) IsProcessed(ctx context.Context, guid string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM processed_entries WHERE entry_guid = ?`, guid,
	).Scan(&one)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check processed entry: %w", err)
	}
	return true, nil
}

// Count returns the number of completion records.
func (r *ProcessedRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM processed_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count processed entries: %w", err)
	}
	return n, nil
}
