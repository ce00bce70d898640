package app

import (
	"context"
	"crypto/sha256"
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"

	"github.com/example/curator/internal/config"
	"github.com/example/curator/internal/ports/primary"
	"github.com/example/curator/internal/ports/secondary"
)

// FeedServiceImpl implements primary.FeedService on gofeed.
type FeedServiceImpl struct {
	feedRepo      secondary.FeedRepository
	processedRepo secondary.ProcessedRepository
	parser        *gofeed.Parser
	log           *logrus.Logger
}

// NewFeedService creates a feed service.
func NewFeedService(feedRepo secondary.FeedRepository, processedRepo secondary.ProcessedRepository, log *logrus.Logger) *FeedServiceImpl {
	return &FeedServiceImpl{
		feedRepo:      feedRepo,
		processedRepo: processedRepo,
		parser:        gofeed.NewParser(),
		log:           log,
	}
}

// AddFeed subscribes to a feed. When category is empty it is detected from
// the URL. The feed title is fetched best-effort.
func (s *FeedServiceImpl) AddFeed(ctx context.Context, url, category string) (*primary.Feed, error) {
	if category == "" {
		category = DetectCategory(url)
	}
	if !validCategory(category) {
		return nil, fmt.Errorf("invalid category %q (expected one of %s)", category, strings.Join(config.Categories(), ", "))
	}

	title := ""
	if feed, err := s.parser.ParseURLWithContext(url, ctx); err == nil {
		title = feed.Title
	}

	id, err := s.feedRepo.Create(ctx, &secondary.FeedRecord{
		URL:      url,
		Title:    title,
		Category: category,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add feed: %w", err)
	}

	return &primary.Feed{ID: id, URL: url, Title: title, Category: category, IsActive: true}, nil
}

// RemoveFeed unsubscribes from a feed by URL.
func (s *FeedServiceImpl) RemoveFeed(ctx context.Context, url string) error {
	return s.feedRepo.DeleteByURL(ctx, url)
}

// ListFeeds lists active feeds, optionally filtered by category.
func (s *FeedServiceImpl) ListFeeds(ctx context.Context, category string) ([]*primary.Feed, error) {
	recs, err := s.feedRepo.List(ctx, category)
	if err != nil {
		return nil, err
	}

	feeds := make([]*primary.Feed, len(recs))
	for i, rec := range recs {
		feeds[i] = &primary.Feed{
			ID:       rec.ID,
			URL:      rec.URL,
			Title:    rec.Title,
			Category: rec.Category,
			IsActive: rec.IsActive,
		}
	}
	return feeds, nil
}

// FetchNewEntries returns all unprocessed entries across active feeds,
// in feed order. A failing feed is logged and skipped so one broken source
// never blocks the rest.
func (s *FeedServiceImpl) FetchNewEntries(ctx context.Context) ([]*primary.Entry, error) {
	feeds, err := s.feedRepo.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}

	var entries []*primary.Entry
	for _, feed := range feeds {
		parsed, err := s.parser.ParseURLWithContext(feed.URL, ctx)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"feed":  feed.URL,
				"error": err.Error(),
			}).Error("Failed to fetch feed, skipping")
			continue
		}

		for _, item := range parsed.Items {
			entry := itemToEntry(item, feed)
			processed, err := s.processedRepo.IsProcessed(ctx, entry.GUID)
			if err != nil {
				return nil, fmt.Errorf("failed to check processed entry: %w", err)
			}
			if !processed {
				entries = append(entries, entry)
			}
		}

		if err := s.feedRepo.TouchFetched(ctx, feed.ID); err != nil {
			s.log.WithField("feed", feed.URL).Warn("Failed to record fetch time")
		}
	}

	return entries, nil
}

// DetectCategory guesses a feed's category from its URL.
func DetectCategory(url string) string {
	if strings.Contains(url, "youtube.com/feeds") {
		return config.CategoryYouTube
	}
	return config.CategoryArticles
}

func validCategory(category string) bool {
	for _, c := range config.Categories() {
		if c == category {
			return true
		}
	}
	return false
}

// itemToEntry builds an Entry with a stable GUID: the item's own GUID, then
// its link, then a content hash as last resort.
func itemToEntry(item *gofeed.Item, feed *secondary.FeedRecord) *primary.Entry {
	guid := item.GUID
	if guid == "" {
		guid = item.Link
	}
	if guid == "" {
		h := sha256.Sum256([]byte(item.Title + item.Link))
		guid = fmt.Sprintf("%x", h[:8])
	}

	entry := &primary.Entry{
		GUID:      guid,
		Title:     item.Title,
		URL:       item.Link,
		Category:  feed.Category,
		FeedID:    feed.ID,
		FeedTitle: feed.Title,
	}
	if entry.Title == "" {
		entry.Title = "Untitled"
	}
	if item.PublishedParsed != nil {
		entry.PublishedAt = *item.PublishedParsed
	}
	return entry
}

// OPML document structure for import/export.
type opml struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    opmlHead `xml:"head"`
	Body    opmlBody `xml:"body"`
}

type opmlHead struct {
	Title string `xml:"title"`
}

type opmlBody struct {
	Outlines []opmlEntry `xml:"outline"`
}

type opmlEntry struct {
	Text     string      `xml:"text,attr"`
	Title    string      `xml:"title,attr,omitempty"`
	Type     string      `xml:"type,attr,omitempty"`
	XMLURL   string      `xml:"xmlUrl,attr,omitempty"`
	Outlines []opmlEntry `xml:"outline"`
}

// ExportOPML writes all active subscriptions to an OPML file, grouped by
// category.
func (s *FeedServiceImpl) ExportOPML(ctx context.Context, path string) error {
	feeds, err := s.ListFeeds(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to list feeds: %w", err)
	}

	byCategory := map[string][]*primary.Feed{}
	for _, feed := range feeds {
		byCategory[feed.Category] = append(byCategory[feed.Category], feed)
	}

	doc := opml{
		Version: "2.0",
		Head:    opmlHead{Title: "Curator Feeds"},
	}
	for _, category := range config.Categories() {
		catFeeds := byCategory[category]
		if len(catFeeds) == 0 {
			continue
		}
		group := opmlEntry{Text: category, Title: category}
		for _, feed := range catFeeds {
			label := feed.Title
			if label == "" {
				label = feed.URL
			}
			group.Outlines = append(group.Outlines, opmlEntry{
				Text:   label,
				Title:  label,
				Type:   "rss",
				XMLURL: feed.URL,
			})
		}
		doc.Body.Outlines = append(doc.Body.Outlines, group)
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal OPML: %w", err)
	}
	data = append([]byte(xml.Header), data...)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write OPML: %w", err)
	}
	return nil
}

// ImportOPML adds subscriptions from an OPML file, returning the count
// added. Duplicates and individually broken outlines are skipped.
func (s *FeedServiceImpl) ImportOPML(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read OPML: %w", err)
	}

	var doc opml
	if err := xml.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("failed to parse OPML: %w", err)
	}

	count := 0
	var walk func(entries []opmlEntry, category string)
	walk = func(entries []opmlEntry, category string) {
		for _, e := range entries {
			if e.XMLURL != "" {
				cat := category
				if !validCategory(cat) {
					cat = DetectCategory(e.XMLURL)
				}
				if _, err := s.AddFeed(ctx, e.XMLURL, cat); err != nil {
					s.log.WithFields(logrus.Fields{
						"url":   e.XMLURL,
						"error": err.Error(),
					}).Warn("Skipping OPML outline")
					continue
				}
				count++
			}
			walk(e.Outlines, e.Text)
		}
	}
	walk(doc.Body.Outlines, "")

	return count, nil
}
