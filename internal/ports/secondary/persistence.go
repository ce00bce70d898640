// Package secondary defines the secondary ports (driven adapters) for the
// application: persistence, the external skill runner, the vault store, the
// pipeline lock, and notifications.
package secondary

import (
	"context"
	"time"
)

// ProcessedRepository defines the secondary port for the completion ledger.
// The ledger is append-only: rows are never updated or deleted.
type ProcessedRepository interface {
	// MarkProcessed records a completed entry. The entry GUID must be unique.
	MarkProcessed(ctx context.Context, rec *CompletionRecord) error

	// IsProcessed reports whether an entry GUID has a completion record.
	IsProcessed(ctx context.Context, guid string) (bool, error)

	// Count returns the number of completion records.
	Count(ctx context.Context) (int, error)
}

// CompletionRecord is one row of the completion ledger.
type CompletionRecord struct {
	EntryGUID   string
	FeedID      int64
	EntryURL    string
	EntryTitle  string
	NotePath    string
	ProcessedAt time.Time
}

// RetryRepository defines the secondary port for retry queue persistence.
// Backoff policy lives in the retry service; this port only stores rows.
type RetryRepository interface {
	// Get retrieves the retry row for an entry GUID, or nil when absent.
	Get(ctx context.Context, guid string) (*RetryRecord, error)

	// Create inserts a new retry row.
	Create(ctx context.Context, rec *RetryRecord) error

	// Update rewrites the attempt count, schedule, and error of an existing row.
	Update(ctx context.Context, rec *RetryRecord) error

	// Delete removes the row for an entry GUID. Missing rows are not an error.
	Delete(ctx context.Context, guid string) error

	// ListDue returns rows with next_retry_at <= now, oldest due first.
	ListDue(ctx context.Context, now time.Time) ([]*RetryRecord, error)

	// ListAll returns every queued row, oldest due first.
	ListAll(ctx context.Context) ([]*RetryRecord, error)

	// Count returns the number of queued rows.
	Count(ctx context.Context) (int, error)
}

// RetryRecord is one row of the retry queue.
type RetryRecord struct {
	EntryGUID     string
	FeedID        int64
	EntryURL      string
	EntryTitle    string
	Category      string
	RetryCount    int
	FirstFailedAt time.Time
	LastAttemptAt time.Time
	NextRetryAt   time.Time
	LastError     string
}

// RunRepository defines the secondary port for the run ledger.
type RunRepository interface {
	// StartRun inserts a running RunRecord and returns its ID.
	StartRun(ctx context.Context) (int64, error)

	// CompleteRun finalizes a run as completed with its counts.
	CompleteRun(ctx context.Context, id int64, processed, failed int) error

	// FailRun finalizes a run as failed.
	FailRun(ctx context.Context, id int64) error

	// LastSuccessful returns the completion time of the most recent
	// completed run. ok is false when no run has completed.
	LastSuccessful(ctx context.Context) (t time.Time, ok bool, err error)

	// ListRecent returns the most recent runs, newest first.
	ListRecent(ctx context.Context, limit int) ([]*RunRecord, error)
}

// RunRecord is one row of the run ledger.
type RunRecord struct {
	ID             int64
	StartedAt      time.Time
	CompletedAt    time.Time // zero while running
	ItemsProcessed int
	ItemsFailed    int
	Status         string
}

// FeedRepository defines the secondary port for feed subscription persistence.
type FeedRepository interface {
	// Create inserts a subscription and returns its ID.
	Create(ctx context.Context, rec *FeedRecord) (int64, error)

	// DeleteByURL removes a subscription.
	DeleteByURL(ctx context.Context, url string) error

	// List returns active subscriptions, optionally filtered by category.
	List(ctx context.Context, category string) ([]*FeedRecord, error)

	// TouchFetched records that a feed was just fetched.
	TouchFetched(ctx context.Context, id int64) error
}

// FeedRecord is one row of the feeds table.
type FeedRecord struct {
	ID            int64
	URL           string
	Title         string
	Category      string
	IsActive      bool
	LastFetchedAt time.Time
}
