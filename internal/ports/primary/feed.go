package primary

import (
	"context"
	"time"
)

// FeedService defines the primary port for feed subscription management.
type FeedService interface {
	// AddFeed subscribes to a feed. When category is empty it is detected
	// from the URL.
	AddFeed(ctx context.Context, url, category string) (*Feed, error)

	// RemoveFeed unsubscribes from a feed by URL.
	RemoveFeed(ctx context.Context, url string) error

	// ListFeeds lists active feeds, optionally filtered by category.
	ListFeeds(ctx context.Context, category string) ([]*Feed, error)

	// FetchNewEntries returns all unprocessed entries across active feeds.
	// A failing feed is logged and skipped; the others are still fetched.
	FetchNewEntries(ctx context.Context) ([]*Entry, error)

	// ExportOPML writes all active subscriptions to an OPML file.
	ExportOPML(ctx context.Context, path string) error

	// ImportOPML adds subscriptions from an OPML file, returning the count added.
	ImportOPML(ctx context.Context, path string) (int, error)
}

// Feed represents a subscription at the port boundary.
type Feed struct {
	ID       int64
	URL      string
	Title    string
	Category string
	IsActive bool
}

// Entry is a candidate unit of work produced by a feed. Immutable once
// constructed; GUID is stable per source item.
type Entry struct {
	GUID        string
	Title       string
	URL         string
	Category    string
	FeedID      int64
	FeedTitle   string
	PublishedAt time.Time
}
