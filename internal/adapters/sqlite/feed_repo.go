package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/curator/internal/ports/secondary"
)

// FeedRepository implements secondary.FeedRepository with SQLite.
type FeedRepository struct {
	db *sql.DB
}

// NewFeedRepository creates a new SQLite feed subscription store.
func NewFeedRepository(db *sql.DB) *FeedRepository {
	return &FeedRepository{db: db}
}

// Create inserts a subscription and returns its ID.
func (r *FeedRepository) Create(ctx context.Context, rec *secondary.FeedRecord) (int64, error) {
	var title sql.NullString
	if rec.Title != "" {
		title = sql.NullString{String: rec.Title, Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO feeds (url, title, category) VALUES (?, ?, ?)`,
		rec.URL, title, rec.Category)
	if err != nil {
		return 0, fmt.Errorf("failed to create feed: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read feed id: %w", err)
	}
	return id, nil
}

// DeleteByURL removes a subscription.
func (r *FeedRepository) DeleteByURL(ctx context.Context, url string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM feeds WHERE url = ?`, url); err != nil {
		return fmt.Errorf("failed to delete feed: %w", err)
	}
	return nil
}

// List returns active subscriptions, optionally filtered by category.
func (r *FeedRepository) List(ctx context.Context, category string) ([]*secondary.FeedRecord, error) {
	query := `SELECT id, url, title, category, is_active, last_fetched_at FROM feeds WHERE is_active = 1`
	args := []any{}

	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}

	query += " ORDER BY id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}
	defer rows.Close()

	var recs []*secondary.FeedRecord
	for rows.Next() {
		var (
			title     sql.NullString
			fetchedAt sql.NullTime
		)
		rec := &secondary.FeedRecord{}
		if err := rows.Scan(&rec.ID, &rec.URL, &title, &rec.Category, &rec.IsActive, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feed: %w", err)
		}
		rec.Title = title.String
		rec.LastFetchedAt = fetchedAt.Time
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feeds: %w", err)
	}
	return recs, nil
}

// TouchFetched records that a feed was just fetched.
func (r *FeedRepository) TouchFetched(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE feeds SET last_fetched_at = ? WHERE id = ?`, time.Now(), id); err != nil {
		return fmt.Errorf("failed to touch feed: %w", err)
	}
	return nil
}
