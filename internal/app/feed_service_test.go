package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmcdole/gofeed"

	"github.com/example/curator/internal/ports/secondary"
)

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Blog</title>
    <link>https://blog.example.com</link>
    <item>
      <title>First Post</title>
      <link>https://blog.example.com/first</link>
      <guid>post-1</guid>
    </item>
    <item>
      <title>Second Post</title>
      <link>https://blog.example.com/second</link>
      <guid>post-2</guid>
    </item>
    <item>
      <title>No GUID Post</title>
      <link>https://blog.example.com/third</link>
    </item>
  </channel>
</rss>`

func rssServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testRSS))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAddFeedDetectsCategoryAndTitle(t *testing.T) {
	srv := rssServer(t)
	repo := newMockFeedRepo()
	svc := NewFeedService(repo, newMockProcessedRepo(), testLogger())

	feed, err := svc.AddFeed(context.Background(), srv.URL, "")
	if err != nil {
		t.Fatalf("AddFeed failed: %v", err)
	}

	if feed.Category != "articles" {
		t.Errorf("expected detected category articles, got %s", feed.Category)
	}
	if feed.Title != "Example Blog" {
		t.Errorf("expected fetched title, got %q", feed.Title)
	}
	if feed.ID == 0 {
		t.Error("expected assigned feed ID")
	}
}

func TestAddFeedRejectsInvalidCategory(t *testing.T) {
	svc := NewFeedService(newMockFeedRepo(), newMockProcessedRepo(), testLogger())

	_, err := svc.AddFeed(context.Background(), "https://example.com/feed", "newsletters")
	if err == nil {
		t.Fatal("expected error for invalid category")
	}
}

func TestAddFeedRejectsDuplicate(t *testing.T) {
	srv := rssServer(t)
	svc := NewFeedService(newMockFeedRepo(), newMockProcessedRepo(), testLogger())
	ctx := context.Background()

	if _, err := svc.AddFeed(ctx, srv.URL, "articles"); err != nil {
		t.Fatalf("first AddFeed failed: %v", err)
	}
	if _, err := svc.AddFeed(ctx, srv.URL, "articles"); err == nil {
		t.Fatal("expected error for duplicate feed URL")
	}
}

func TestDetectCategory(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/feeds/videos.xml?channel_id=UC123", "youtube"},
		{"https://blog.example.com/rss.xml", "articles"},
		{"https://feeds.example.com/podcast.rss", "articles"},
	}

	for _, tt := range tests {
		if got := DetectCategory(tt.url); got != tt.want {
			t.Errorf("DetectCategory(%s): expected %s, got %s", tt.url, tt.want, got)
		}
	}
}

func TestFetchNewEntriesSkipsProcessed(t *testing.T) {
	srv := rssServer(t)
	repo := newMockFeedRepo()
	processed := newMockProcessedRepo()
	svc := NewFeedService(repo, processed, testLogger())
	ctx := context.Background()

	if _, err := svc.AddFeed(ctx, srv.URL, "articles"); err != nil {
		t.Fatalf("AddFeed failed: %v", err)
	}
	processed.MarkProcessed(ctx, &secondary.CompletionRecord{EntryGUID: "post-1"})

	entries, err := svc.FetchNewEntries(ctx)
	if err != nil {
		t.Fatalf("FetchNewEntries failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 unprocessed entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.GUID == "post-1" {
			t.Error("processed entry leaked into work set")
		}
		if e.Category != "articles" {
			t.Errorf("expected feed category on entry, got %s", e.Category)
		}
	}
	if len(repo.touched) != 1 {
		t.Errorf("expected fetch time recorded once, got %d", len(repo.touched))
	}
}

func TestFetchNewEntriesSkipsBrokenFeed(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)
	healthy := rssServer(t)

	repo := newMockFeedRepo()
	svc := NewFeedService(repo, newMockProcessedRepo(), testLogger())
	ctx := context.Background()

	if _, err := svc.AddFeed(ctx, broken.URL, "articles"); err != nil {
		t.Fatalf("AddFeed failed: %v", err)
	}
	if _, err := svc.AddFeed(ctx, healthy.URL, "articles"); err != nil {
		t.Fatalf("AddFeed failed: %v", err)
	}

	entries, err := svc.FetchNewEntries(ctx)
	if err != nil {
		t.Fatalf("expected broken feed skipped, got error: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 entries from the healthy feed, got %d", len(entries))
	}
}

func TestItemToEntryGUIDFallbacks(t *testing.T) {
	feed := &secondary.FeedRecord{ID: 7, Title: "Example Blog", Category: "articles"}

	tests := []struct {
		name string
		item *gofeed.Item
		want string
	}{
		{
			name: "guid preferred",
			item: &gofeed.Item{GUID: "g-1", Link: "https://x/1", Title: "A"},
			want: "g-1",
		},
		{
			name: "link fallback",
			item: &gofeed.Item{Link: "https://x/2", Title: "B"},
			want: "https://x/2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := itemToEntry(tt.item, feed)
			if entry.GUID != tt.want {
				t.Errorf("expected GUID %q, got %q", tt.want, entry.GUID)
			}
			if entry.FeedID != 7 {
				t.Errorf("expected feed ID 7, got %d", entry.FeedID)
			}
		})
	}

	// Neither GUID nor link: hash of title+link, stable across calls.
	item := &gofeed.Item{Title: "Only Title"}
	first := itemToEntry(item, feed)
	second := itemToEntry(item, feed)
	if first.GUID == "" {
		t.Error("expected hash GUID for item without guid or link")
	}
	if first.GUID != second.GUID {
		t.Errorf("hash GUID not stable: %q vs %q", first.GUID, second.GUID)
	}

	// Untitled items still get a display title.
	untitled := itemToEntry(&gofeed.Item{GUID: "g", Link: "https://x"}, feed)
	if untitled.Title != "Untitled" {
		t.Errorf("expected Untitled, got %q", untitled.Title)
	}
}

func TestOPMLRoundTrip(t *testing.T) {
	srv := rssServer(t)
	repo := newMockFeedRepo()
	svc := NewFeedService(repo, newMockProcessedRepo(), testLogger())
	ctx := context.Background()

	blogURL := srv.URL + "/blog.rss"
	channelURL := srv.URL + "/channel.xml"
	repo.Create(ctx, &secondary.FeedRecord{URL: blogURL, Title: "Example Blog", Category: "articles"})
	repo.Create(ctx, &secondary.FeedRecord{URL: channelURL, Title: "Example Channel", Category: "youtube"})

	path := filepath.Join(t.TempDir(), "feeds.opml")
	if err := svc.ExportOPML(ctx, path); err != nil {
		t.Fatalf("ExportOPML failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read exported OPML: %v", err)
	}
	for _, want := range []string{`xmlUrl="` + blogURL + `"`, `text="articles"`, `text="youtube"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("exported OPML missing %s:\n%s", want, data)
		}
	}

	// Importing into an empty repo restores both subscriptions with their
	// categories taken from the group outlines.
	fresh := newMockFeedRepo()
	importSvc := NewFeedService(fresh, newMockProcessedRepo(), testLogger())
	count, err := importSvc.ImportOPML(ctx, path)
	if err != nil {
		t.Fatalf("ImportOPML failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 feeds imported, got %d", count)
	}

	feeds, _ := fresh.List(ctx, "youtube")
	if len(feeds) != 1 || feeds[0].URL != channelURL {
		t.Errorf("expected youtube feed restored with its category, got %+v", feeds)
	}
}

func TestImportOPMLSkipsDuplicates(t *testing.T) {
	srv := rssServer(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "feeds.opml")
	doc := `<?xml version="1.0"?>
<opml version="2.0">
  <head><title>Feeds</title></head>
  <body>
    <outline text="articles" title="articles">
      <outline text="A" type="rss" xmlUrl="` + srv.URL + `/rss"/>
      <outline text="A again" type="rss" xmlUrl="` + srv.URL + `/rss"/>
    </outline>
  </body>
</opml>`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := NewFeedService(newMockFeedRepo(), newMockProcessedRepo(), testLogger())
	count, err := svc.ImportOPML(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportOPML failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 feed imported (duplicate skipped), got %d", count)
	}
}
