// Package lock provides the single-instance pipeline lock. It is an advisory
// flock tied to the holding process: the OS drops it on exit, crash, or kill,
// so there is no stale-lock problem to clean up after.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

// FileName is the name of the lock file inside the data directory.
const FileName = "curator.lock"

// ContentionError reports that another pipeline invocation holds the lock.
type ContentionError struct {
	// PID of the recorded holder; 0 when unknown.
	PID int
}

func (e *ContentionError) Error() string {
	if e.PID > 0 {
		return fmt.Sprintf("pipeline is already running (PID %d)", e.PID)
	}
	return "pipeline is already running"
}

// PipelineLock is a non-blocking advisory file lock.
type PipelineLock struct {
	path string
	fl   *flock.Flock
}

// New creates a lock on the well-known file under dataDir.
func New(dataDir string) *PipelineLock {
	path := filepath.Join(dataDir, FileName)
	return &PipelineLock{path: path, fl: flock.New(path)}
}

// Path returns the lock file path.
func (l *PipelineLock) Path() string {
	return l.path
}

// TryAcquire attempts to take the lock without blocking. On success the
// caller's PID is written into the lock file for diagnostics. Losing callers
// get (false, nil) and must exit rather than wait.
func (l *PipelineLock) TryAcquire() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	locked, err := l.fl.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return false, nil
	}

	// Truncating in place keeps the inode, so the flock stays valid.
	if err := os.WriteFile(l.path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		l.fl.Unlock()
		return false, fmt.Errorf("failed to record PID in lock file: %w", err)
	}

	return true, nil
}

// HolderPID returns the PID recorded in the lock file, if any. Diagnostic
// only: the value is advisory and may be stale.
func (l *PipelineLock) HolderPID() (int, bool) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// Release drops the lock. Safe to call when not held; the OS releases the
// lock on process death regardless.
func (l *PipelineLock) Release() error {
	return l.fl.Unlock()
}
