package secondary

import (
	"context"
	"time"

	"github.com/example/curator/internal/config"
	"github.com/example/curator/internal/ports/primary"
)

// SkillRunner defines the secondary port for the external content-processing
// agent. The agent is a black box: curator only sees its exit status and
// captured output, and confirms artifacts through the VaultStore.
type SkillRunner interface {
	// ValidateSkills returns the names of required skills that are not
	// installed. An empty slice means all skills are present.
	ValidateSkills() []string

	// Run invokes the skill for an entry with the profile's timeout.
	Run(ctx context.Context, entry *primary.Entry, profile config.SkillProfile) *Invocation

	// PostProcess runs the evaluation pass over notes created this run.
	// Best-effort: failures are logged by the implementation, never returned.
	PostProcess(ctx context.Context, relPaths []string)
}

// Invocation is the raw outcome of one skill run.
type Invocation struct {
	ExitCode int
	Output   string // stdout and stderr combined
	TimedOut bool
	Err      string // infrastructure error (e.g. binary not found), empty otherwise
}

// VaultStore defines the secondary port for the destination store. It is
// consulted only for artifact presence, never written.
type VaultStore interface {
	// Exists reports whether a vault-relative path exists.
	Exists(rel string) bool

	// RecentlyModified returns vault-relative paths of Markdown files under
	// dir modified at or after since, newest first.
	RecentlyModified(dir string, since time.Time) []string

	// Abs resolves a vault-relative path to an absolute one.
	Abs(rel string) string
}

// PipelineLock defines the secondary port for single-instance exclusion.
// The lock is advisory and released by the OS on process death.
type PipelineLock interface {
	// TryAcquire attempts to take the lock without blocking. On success the
	// holder's PID is recorded in the lock file.
	TryAcquire() (bool, error)

	// HolderPID returns the PID recorded in the lock file, if any.
	// Diagnostic only.
	HolderPID() (int, bool)

	// Release drops the lock. Safe to call when not held.
	Release() error
}

// Notifier defines the secondary port for end-of-pass notifications.
// Best-effort; implementations swallow their own failures.
type Notifier interface {
	Notify(title, message string)
}
