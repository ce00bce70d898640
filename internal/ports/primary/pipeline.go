package primary

import "context"

// PipelineService defines the primary port for orchestration passes.
type PipelineService interface {
	// Run executes one orchestration pass: collect new entries and due
	// retries, invoke the skill per entry, and record outcomes.
	Run(ctx context.Context, opts RunOptions) (*RunSummary, error)
}

// RunOptions control a single pipeline invocation.
type RunOptions struct {
	// DryRun previews the work set without acquiring the lock or writing
	// to any ledger.
	DryRun bool

	// Force bypasses the pipeline lock with a warning.
	Force bool

	// Limit caps the number of items processed (0 = no limit).
	Limit int

	// Verbose enables per-item progress logging.
	Verbose bool
}

// RunSummary reports what a pass did.
type RunSummary struct {
	Processed    int      // entries completed successfully
	Failed       int      // transient failures queued for retry
	Retried      int      // successes that came off the retry queue
	Permanent    int      // permanent failures dropped without retry
	Abandoned    int      // retry entries removed after backoff exhaustion
	Skipped      int      // entries previewed in dry-run mode
	CreatedNotes []string // absolute paths of notes created this pass
}

// Run status constants.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)
