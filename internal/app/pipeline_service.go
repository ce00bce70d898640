package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/curator/internal/config"
	"github.com/example/curator/internal/core/classify"
	"github.com/example/curator/internal/lock"
	"github.com/example/curator/internal/ports/primary"
	"github.com/example/curator/internal/ports/secondary"
)

// catchUpThreshold is how long since the last successful pass before a
// catch-up warning is logged. Purely a signal: the normal "fetch everything
// due" collection already subsumes any backlog.
const catchUpThreshold = 36 * time.Hour

// PipelineServiceImpl implements primary.PipelineService: one orchestration
// pass over new entries and due retries, under the pipeline lock.
type PipelineServiceImpl struct {
	cfg           *config.Config
	feeds         primary.FeedService
	retries       *RetryService
	processedRepo secondary.ProcessedRepository
	runRepo       secondary.RunRepository
	runner        secondary.SkillRunner
	vault         secondary.VaultStore
	lock          secondary.PipelineLock
	notifier      secondary.Notifier
	log           *logrus.Logger
	now           func() time.Time
}

// NewPipelineService creates a pipeline service with injected collaborators.
func NewPipelineService(
	cfg *config.Config,
	feeds primary.FeedService,
	retries *RetryService,
	processedRepo secondary.ProcessedRepository,
	runRepo secondary.RunRepository,
	runner secondary.SkillRunner,
	vault secondary.VaultStore,
	pipelineLock secondary.PipelineLock,
	notifier secondary.Notifier,
	log *logrus.Logger,
) *PipelineServiceImpl {
	return &PipelineServiceImpl{
		cfg:           cfg,
		feeds:         feeds,
		retries:       retries,
		processedRepo: processedRepo,
		runRepo:       runRepo,
		runner:        runner,
		vault:         vault,
		lock:          pipelineLock,
		notifier:      notifier,
		log:           log,
		now:           time.Now,
	}
}

// Run executes one orchestration pass. Per-item failures are classified and
// recorded, never propagated; only lock contention and startup errors return
// an error. A dry run touches neither the lock nor any ledger.
func (s *PipelineServiceImpl) Run(ctx context.Context, opts primary.RunOptions) (*primary.RunSummary, error) {
	if !opts.DryRun {
		acquired, err := s.lock.TryAcquire()
		if err != nil {
			return nil, err
		}
		if !acquired {
			pid, _ := s.lock.HolderPID()
			if !opts.Force {
				return nil, &lock.ContentionError{PID: pid}
			}
			s.log.WithField("holder_pid", pid).Warn("Force override: running without the pipeline lock")
		} else {
			defer s.lock.Release()
		}
	}

	if missing := s.runner.ValidateSkills(); len(missing) > 0 {
		return nil, fmt.Errorf("missing required skills: %v (install them before running)", missing)
	}

	s.checkCatchUp(ctx)

	entries, retrySet, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}

	if opts.Limit > 0 && opts.Limit < len(entries) {
		entries = entries[:opts.Limit]
	}
	s.log.WithFields(logrus.Fields{
		"total":   len(entries),
		"retries": countRetries(entries, retrySet),
	}).Info("Collected work set")

	if opts.DryRun {
		for _, entry := range entries {
			s.log.WithField("category", entry.Category).Infof("[DRY RUN] Would process: %s", entry.Title)
		}
		return &primary.RunSummary{Skipped: len(entries)}, nil
	}

	runID, err := s.runRepo.StartRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to record run start: %w", err)
	}

	summary := &primary.RunSummary{}
	for i, entry := range entries {
		s.processEntry(ctx, entry, retrySet[entry.GUID], opts.Verbose, i+1, len(entries), summary)
	}

	s.runner.PostProcess(ctx, summary.CreatedNotes)

	if err := s.runRepo.CompleteRun(ctx, runID, summary.Processed, summary.Failed); err != nil {
		return nil, fmt.Errorf("failed to record run completion: %w", err)
	}

	s.notifier.Notify("Curator", notificationMessage(summary))

	return summary, nil
}

// checkCatchUp logs a warning when the last successful pass is stale.
func (s *PipelineServiceImpl) checkCatchUp(ctx context.Context) {
	last, ok, err := s.runRepo.LastSuccessful(ctx)
	if err != nil {
		s.log.WithField("error", err.Error()).Warn("Failed to read run ledger for catch-up check")
		return
	}
	if !ok {
		return
	}
	if since := s.now().Sub(last); since > catchUpThreshold {
		s.log.WithField("hours_since", fmt.Sprintf("%.1f", since.Hours())).Warn("Catch-up: long gap since last successful run")
	}
}

// collect gathers new entries first, then due retries, deduplicated by GUID.
// New content takes priority over retries.
func (s *PipelineServiceImpl) collect(ctx context.Context) ([]*primary.Entry, map[string]bool, error) {
	newEntries, err := s.feeds.FetchNewEntries(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to collect entries: %w", err)
	}

	dueRecs, err := s.retries.Due(ctx)
	if err != nil {
		return nil, nil, err
	}

	seen := map[string]bool{}
	entries := make([]*primary.Entry, 0, len(newEntries)+len(dueRecs))
	for _, entry := range newEntries {
		if seen[entry.GUID] {
			continue
		}
		seen[entry.GUID] = true
		entries = append(entries, entry)
	}

	retrySet := map[string]bool{}
	for _, rec := range dueRecs {
		if seen[rec.EntryGUID] {
			// Already in this pass as a fresh item; its outcome will
			// clear or reschedule the queue row.
			retrySet[rec.EntryGUID] = true
			continue
		}
		seen[rec.EntryGUID] = true
		retrySet[rec.EntryGUID] = true
		entries = append(entries, retryToEntry(rec))
	}

	return entries, retrySet, nil
}

// processEntry runs the skill for one entry and records the classified
// outcome. Never returns: every failure mode ends in a ledger update or a
// log line.
func (s *PipelineServiceImpl) processEntry(ctx context.Context, entry *primary.Entry, isRetry, verbose bool, pos, total int, summary *primary.RunSummary) {
	logEntry := s.log.WithFields(logrus.Fields{
		"title":    entry.Title,
		"category": entry.Category,
		"retry":    isRetry,
	})
	if verbose {
		logEntry.Infof("[%d/%d] Processing", pos, total)
	}

	// Zombie retries: a queue row whose entry was completed by an earlier
	// (e.g. forced) pass gets cleared instead of reprocessed.
	processed, err := s.processedRepo.IsProcessed(ctx, entry.GUID)
	if err != nil {
		logEntry.WithField("error", err.Error()).Error("Failed to check completion ledger, skipping entry")
		return
	}
	if processed {
		if isRetry {
			if err := s.retries.Clear(ctx, entry.GUID); err != nil {
				logEntry.WithField("error", err.Error()).Error("Failed to clear stale retry entry")
			} else if verbose {
				logEntry.Info("Already processed, removed from retry queue")
			}
		}
		return
	}

	profile, err := s.cfg.ProfileFor(entry.Category)
	if err != nil {
		logEntry.WithField("error", err.Error()).Error("No skill profile for entry, skipping")
		return
	}

	started := s.now()
	inv := s.runner.Run(ctx, entry, profile)

	artifacts := s.vault.RecentlyModified(profile.Folder, started)
	artifactFound := len(artifacts) > 0

	var outcome classify.Outcome
	if inv.Err != "" && !artifactFound {
		// The agent never ran; infrastructure problems are always transient.
		outcome = classify.Outcome{Result: classify.TransientFailure, Message: inv.Err}
	} else {
		outcome = classify.Classify(inv.ExitCode, inv.Output, inv.TimedOut, artifactFound)
	}

	switch outcome.Result {
	case classify.Success:
		notePath := artifacts[0]
		err := s.processedRepo.MarkProcessed(ctx, &secondary.CompletionRecord{
			EntryGUID:  entry.GUID,
			FeedID:     entry.FeedID,
			EntryURL:   entry.URL,
			EntryTitle: entry.Title,
			NotePath:   notePath,
		})
		if err != nil {
			logEntry.WithField("error", err.Error()).Error("Failed to record completion")
			return
		}
		if isRetry {
			if err := s.retries.Clear(ctx, entry.GUID); err != nil {
				logEntry.WithField("error", err.Error()).Error("Failed to clear retry entry after success")
			}
			summary.Retried++
		}
		summary.Processed++
		summary.CreatedNotes = append(summary.CreatedNotes, notePath)
		if verbose {
			logEntry.WithField("note", notePath).Info("Created note")
		}

	case classify.TransientFailure:
		abandoned, err := s.retries.Schedule(ctx, entry, outcome.Message)
		if err != nil {
			logEntry.WithField("error", err.Error()).Error("Failed to schedule retry")
			return
		}
		summary.Failed++
		if abandoned {
			summary.Abandoned++
		}
		logEntry.WithField("reason", outcome.Message).Warn("Transient failure")

	case classify.PermanentFailure:
		// Dropped: never retried, never recorded as a completion.
		summary.Permanent++
		logEntry.WithField("reason", outcome.Message).Warn("[PERMANENT] Dropped entry")
	}
}

func retryToEntry(rec *secondary.RetryRecord) *primary.Entry {
	title := rec.EntryTitle
	if title == "" {
		title = "Untitled"
	}
	return &primary.Entry{
		GUID:     rec.EntryGUID,
		Title:    title,
		URL:      rec.EntryURL,
		Category: rec.Category,
		FeedID:   rec.FeedID,
	}
}

func countRetries(entries []*primary.Entry, retrySet map[string]bool) int {
	n := 0
	for _, e := range entries {
		if retrySet[e.GUID] {
			n++
		}
	}
	return n
}

// notificationMessage summarizes a pass for the desktop notification.
func notificationMessage(summary *primary.RunSummary) string {
	switch {
	case summary.Skipped > 0:
		return fmt.Sprintf("Dry run: %d items previewed", summary.Skipped)
	case summary.Processed == 0 && summary.Failed == 0 && summary.Permanent == 0:
		return "No items to process"
	case summary.Failed > 0:
		msg := fmt.Sprintf("Processed %d, Failed %d", summary.Processed, summary.Failed)
		if summary.Permanent > 0 {
			msg += fmt.Sprintf(", %d dropped (permanent)", summary.Permanent)
		}
		return msg
	default:
		msg := fmt.Sprintf("Processed %d items", summary.Processed)
		if summary.Retried > 0 {
			msg += fmt.Sprintf(" (%d retried)", summary.Retried)
		}
		if summary.Permanent > 0 {
			msg += fmt.Sprintf(", %d dropped (permanent)", summary.Permanent)
		}
		return msg
	}
}
