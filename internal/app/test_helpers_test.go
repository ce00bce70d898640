package app

import (
	"context"
	"errors"
	"io"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/curator/internal/config"
	"github.com/example/curator/internal/ports/primary"
	"github.com/example/curator/internal/ports/secondary"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// mockRetryRepo implements secondary.RetryRepository in memory.
type mockRetryRepo struct {
	rows map[string]*secondary.RetryRecord
}

func newMockRetryRepo() *mockRetryRepo {
	return &mockRetryRepo{rows: make(map[string]*secondary.RetryRecord)}
}

func (m *mockRetryRepo) Get(ctx context.Context, guid string) (*secondary.RetryRecord, error) {
	if rec, ok := m.rows[guid]; ok {
		copied := *rec
		return &copied, nil
	}
	return nil, nil
}

func (m *mockRetryRepo) Create(ctx context.Context, rec *secondary.RetryRecord) error {
	if _, ok := m.rows[rec.EntryGUID]; ok {
		return errors.New("duplicate guid")
	}
	copied := *rec
	m.rows[rec.EntryGUID] = &copied
	return nil
}

func (m *mockRetryRepo) Update(ctx context.Context, rec *secondary.RetryRecord) error {
	if _, ok := m.rows[rec.EntryGUID]; !ok {
		return errors.New("not found")
	}
	copied := *rec
	m.rows[rec.EntryGUID] = &copied
	return nil
}

func (m *mockRetryRepo) Delete(ctx context.Context, guid string) error {
	delete(m.rows, guid)
	return nil
}

func (m *mockRetryRepo) ListDue(ctx context.Context, now time.Time) ([]*secondary.RetryRecord, error) {
	var due []*secondary.RetryRecord
	for _, rec := range m.rows {
		if !rec.NextRetryAt.After(now) {
			copied := *rec
			due = append(due, &copied)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextRetryAt.Before(due[j].NextRetryAt) })
	return due, nil
}

func (m *mockRetryRepo) ListAll(ctx context.Context) ([]*secondary.RetryRecord, error) {
	all := make([]*secondary.RetryRecord, 0, len(m.rows))
	for _, rec := range m.rows {
		copied := *rec
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].NextRetryAt.Before(all[j].NextRetryAt) })
	return all, nil
}

func (m *mockRetryRepo) Count(ctx context.Context) (int, error) {
	return len(m.rows), nil
}

// mockProcessedRepo implements secondary.ProcessedRepository in memory.
type mockProcessedRepo struct {
	rows map[string]*secondary.CompletionRecord
}

func newMockProcessedRepo() *mockProcessedRepo {
	return &mockProcessedRepo{rows: make(map[string]*secondary.CompletionRecord)}
}

func (m *mockProcessedRepo) MarkProcessed(ctx context.Context, rec *secondary.CompletionRecord) error {
	if _, ok := m.rows[rec.EntryGUID]; ok {
		return errors.New("duplicate guid")
	}
	copied := *rec
	m.rows[rec.EntryGUID] = &copied
	return nil
}

func (m *mockProcessedRepo) IsProcessed(ctx context.Context, guid string) (bool, error) {
	_, ok := m.rows[guid]
	return ok, nil
}

func (m *mockProcessedRepo) Count(ctx context.Context) (int, error) {
	return len(m.rows), nil
}

// mockRunRepo implements secondary.RunRepository in memory.
type mockRunRepo struct {
	runs   []*secondary.RunRecord
	nextID int64
}

func newMockRunRepo() *mockRunRepo {
	return &mockRunRepo{nextID: 1}
}

func (m *mockRunRepo) StartRun(ctx context.Context) (int64, error) {
	id := m.nextID
	m.nextID++
	m.runs = append(m.runs, &secondary.RunRecord{
		ID:        id,
		StartedAt: time.Now(),
		Status:    primary.RunStatusRunning,
	})
	return id, nil
}

func (m *mockRunRepo) find(id int64) *secondary.RunRecord {
	for _, run := range m.runs {
		if run.ID == id {
			return run
		}
	}
	return nil
}

func (m *mockRunRepo) CompleteRun(ctx context.Context, id int64, processed, failed int) error {
	run := m.find(id)
	if run == nil {
		return errors.New("run not found")
	}
	run.Status = primary.RunStatusCompleted
	run.CompletedAt = time.Now()
	run.ItemsProcessed = processed
	run.ItemsFailed = failed
	return nil
}

func (m *mockRunRepo) FailRun(ctx context.Context, id int64) error {
	run := m.find(id)
	if run == nil {
		return errors.New("run not found")
	}
	run.Status = primary.RunStatusFailed
	run.CompletedAt = time.Now()
	return nil
}

func (m *mockRunRepo) LastSuccessful(ctx context.Context) (time.Time, bool, error) {
	var last time.Time
	found := false
	for _, run := range m.runs {
		if run.Status == primary.RunStatusCompleted && run.CompletedAt.After(last) {
			last = run.CompletedAt
			found = true
		}
	}
	return last, found, nil
}

func (m *mockRunRepo) ListRecent(ctx context.Context, limit int) ([]*secondary.RunRecord, error) {
	recs := make([]*secondary.RunRecord, len(m.runs))
	copy(recs, m.runs)
	sort.Slice(recs, func(i, j int) bool { return recs[i].StartedAt.After(recs[j].StartedAt) })
	if limit < len(recs) {
		recs = recs[:limit]
	}
	return recs, nil
}

// mockFeedRepo implements secondary.FeedRepository in memory.
type mockFeedRepo struct {
	feeds   []*secondary.FeedRecord
	nextID  int64
	touched []int64
}

func newMockFeedRepo() *mockFeedRepo {
	return &mockFeedRepo{nextID: 1}
}

func (m *mockFeedRepo) Create(ctx context.Context, rec *secondary.FeedRecord) (int64, error) {
	for _, f := range m.feeds {
		if f.URL == rec.URL {
			return 0, errors.New("duplicate url")
		}
	}
	copied := *rec
	copied.ID = m.nextID
	copied.IsActive = true
	m.nextID++
	m.feeds = append(m.feeds, &copied)
	return copied.ID, nil
}

func (m *mockFeedRepo) DeleteByURL(ctx context.Context, url string) error {
	for i, f := range m.feeds {
		if f.URL == url {
			m.feeds = append(m.feeds[:i], m.feeds[i+1:]...)
			return nil
		}
	}
	return errors.New("feed not found")
}

func (m *mockFeedRepo) List(ctx context.Context, category string) ([]*secondary.FeedRecord, error) {
	var out []*secondary.FeedRecord
	for _, f := range m.feeds {
		if category != "" && f.Category != category {
			continue
		}
		copied := *f
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockFeedRepo) TouchFetched(ctx context.Context, id int64) error {
	m.touched = append(m.touched, id)
	return nil
}

// mockFeedSource implements primary.FeedService, returning canned entries.
type mockFeedSource struct {
	entries []*primary.Entry
	err     error
}

func (m *mockFeedSource) AddFeed(ctx context.Context, url, category string) (*primary.Feed, error) {
	return nil, errors.New("not implemented")
}

func (m *mockFeedSource) RemoveFeed(ctx context.Context, url string) error {
	return errors.New("not implemented")
}

func (m *mockFeedSource) ListFeeds(ctx context.Context, category string) ([]*primary.Feed, error) {
	return nil, nil
}

func (m *mockFeedSource) FetchNewEntries(ctx context.Context) ([]*primary.Entry, error) {
	return m.entries, m.err
}

func (m *mockFeedSource) ExportOPML(ctx context.Context, path string) error {
	return errors.New("not implemented")
}

func (m *mockFeedSource) ImportOPML(ctx context.Context, path string) (int, error) {
	return 0, errors.New("not implemented")
}

// mockRunner implements secondary.SkillRunner with per-URL scripted outcomes.
type mockRunner struct {
	missing     []string
	invocations map[string]*secondary.Invocation // keyed by entry URL
	runCalls    []string                         // URLs in invocation order
	postCalls   [][]string
}

func newMockRunner() *mockRunner {
	return &mockRunner{invocations: make(map[string]*secondary.Invocation)}
}

func (m *mockRunner) ValidateSkills() []string {
	return m.missing
}

func (m *mockRunner) Run(ctx context.Context, entry *primary.Entry, profile config.SkillProfile) *secondary.Invocation {
	m.runCalls = append(m.runCalls, entry.URL)
	if inv, ok := m.invocations[entry.URL]; ok {
		return inv
	}
	return &secondary.Invocation{ExitCode: 0, Output: "ok"}
}

func (m *mockRunner) PostProcess(ctx context.Context, relPaths []string) {
	m.postCalls = append(m.postCalls, relPaths)
}

// mockVault implements secondary.VaultStore with per-call scripted artifacts.
type mockVault struct {
	// artifacts returned for each successive RecentlyModified call; when
	// exhausted, returns defaultArtifacts.
	queue            [][]string
	defaultArtifacts []string
}

func (m *mockVault) Exists(rel string) bool { return false }

func (m *mockVault) Abs(rel string) string { return "/vault/" + rel }

func (m *mockVault) RecentlyModified(dir string, since time.Time) []string {
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next
	}
	return m.defaultArtifacts
}

// mockLock implements secondary.PipelineLock.
type mockLock struct {
	available    bool
	holderPID    int
	acquireCalls int
	releaseCalls int
}

func (m *mockLock) TryAcquire() (bool, error) {
	m.acquireCalls++
	return m.available, nil
}

func (m *mockLock) HolderPID() (int, bool) {
	return m.holderPID, m.holderPID > 0
}

func (m *mockLock) Release() error {
	m.releaseCalls++
	return nil
}

// mockNotifier records notifications.
type mockNotifier struct {
	messages []string
}

func (m *mockNotifier) Notify(title, message string) {
	m.messages = append(m.messages, message)
}
