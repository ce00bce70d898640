package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/curator/internal/ports/primary"
	"github.com/example/curator/internal/ports/secondary"
)

// backoffTable is the fixed retry schedule, counted from each failure. Four
// tiers bound the total wait at roughly 41 hours: long enough to ride out a
// service blip, short enough that permanently broken sources cannot grow the
// queue without bound.
var backoffTable = []time.Duration{
	1 * time.Hour,
	4 * time.Hour,
	12 * time.Hour,
	24 * time.Hour,
}

// MaxAttempts is the number of retry attempts before an entry is abandoned.
const MaxAttempts = 4

// RetryService owns the retry queue policy: when an entry gets another
// attempt, and when it is abandoned.
type RetryService struct {
	repo secondary.RetryRepository
	log  *logrus.Logger
	now  func() time.Time
}

// NewRetryService creates a retry service.
func NewRetryService(repo secondary.RetryRepository, log *logrus.Logger) *RetryService {
	return &RetryService{repo: repo, log: log, now: time.Now}
}

// Schedule records a transient failure for an entry. A first failure queues
// the entry one backoff tier out; each subsequent failure advances the tier.
// When the table is exhausted the entry is deleted and abandoned=true is
// returned. Safe to call repeatedly for the same entry.
func (s *RetryService) Schedule(ctx context.Context, entry *primary.Entry, errMsg string) (abandoned bool, err error) {
	now := s.now()

	existing, err := s.repo.Get(ctx, entry.GUID)
	if err != nil {
		return false, fmt.Errorf("failed to look up retry entry: %w", err)
	}

	if existing == nil {
		rec := &secondary.RetryRecord{
			EntryGUID:     entry.GUID,
			FeedID:        entry.FeedID,
			EntryURL:      entry.URL,
			EntryTitle:    entry.Title,
			Category:      entry.Category,
			RetryCount:    0,
			LastAttemptAt: now,
			NextRetryAt:   now.Add(backoffTable[0]),
			LastError:     errMsg,
		}
		if err := s.repo.Create(ctx, rec); err != nil {
			return false, fmt.Errorf("failed to queue retry: %w", err)
		}
		return false, nil
	}

	next := existing.RetryCount + 1
	if next >= len(backoffTable) {
		if err := s.repo.Delete(ctx, entry.GUID); err != nil {
			return false, fmt.Errorf("failed to abandon retry entry: %w", err)
		}
		s.log.WithFields(logrus.Fields{
			"guid":     entry.GUID,
			"title":    entry.Title,
			"attempts": MaxAttempts,
		}).Warn("Abandoned after exhausting retries")
		return true, nil
	}

	existing.RetryCount = next
	existing.LastAttemptAt = now
	existing.NextRetryAt = now.Add(backoffTable[next])
	existing.LastError = errMsg
	if err := s.repo.Update(ctx, existing); err != nil {
		return false, fmt.Errorf("failed to reschedule retry: %w", err)
	}
	return false, nil
}

// Due returns queued entries whose next attempt time has arrived, oldest
// due first.
func (s *RetryService) Due(ctx context.Context) ([]*secondary.RetryRecord, error) {
	recs, err := s.repo.ListDue(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list due retries: %w", err)
	}
	return recs, nil
}

// List returns every queued entry, oldest due first.
func (s *RetryService) List(ctx context.Context) ([]*secondary.RetryRecord, error) {
	recs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list retry queue: %w", err)
	}
	return recs, nil
}

// Clear removes an entry from the queue. Called on success; a missing entry
// is not an error.
func (s *RetryService) Clear(ctx context.Context, guid string) error {
	return s.repo.Delete(ctx, guid)
}
