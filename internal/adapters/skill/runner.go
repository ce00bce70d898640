// Package skill invokes Claude Code skills as subprocesses. The skill is a
// black box: curator captures its exit status and output, and leaves artifact
// confirmation to the vault store.
package skill

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/curator/internal/config"
	"github.com/example/curator/internal/ports/primary"
	"github.com/example/curator/internal/ports/secondary"
)

// requiredSkills must be installed under the skills directory before any
// pipeline run. One per feed category.
var requiredSkills = []string{"article", "youtube", "podcast"}

// postProcessBatchSize caps how many notes one /evaluate-knowledge
// invocation is given.
const postProcessBatchSize = 6

// postProcessTimeout bounds one post-processing batch.
const postProcessTimeout = 600 * time.Second

// Runner implements secondary.SkillRunner by shelling out to the claude CLI.
type Runner struct {
	bin       string
	mcpConfig string
	skillsDir string
	log       *logrus.Logger
}

// NewRunner creates a skill runner.
func NewRunner(cfg config.ClaudeConfig, skillsDir string, log *logrus.Logger) *Runner {
	bin := cfg.Bin
	if bin == "" {
		bin = "claude"
	}
	return &Runner{
		bin:       bin,
		mcpConfig: cfg.MCPConfig,
		skillsDir: skillsDir,
		log:       log,
	}
}

// ValidateSkills returns the names of required skills missing from the
// skills directory.
func (r *Runner) ValidateSkills() []string {
	var missing []string
	for _, name := range requiredSkills {
		if _, err := os.Stat(filepath.Join(r.skillsDir, name)); err != nil {
			missing = append(missing, name)
		}
	}
	return missing
}

// Run invokes the skill for an entry with the profile's timeout. A timeout
// is reported on the invocation, never returned as an error: the classifier
// decides what it means.
func (r *Runner) Run(ctx context.Context, entry *primary.Entry, profile config.SkillProfile) *secondary.Invocation {
	runCtx, cancel := context.WithTimeout(ctx, profile.Timeout)
	defer cancel()

	args := r.baseArgs()
	args = append(args, fmt.Sprintf("/%s %s", profile.Skill, entry.URL))

	cmd := exec.CommandContext(runCtx, r.bin, args...)
	output, err := cmd.CombinedOutput()

	inv := &secondary.Invocation{Output: string(output)}

	if runCtx.Err() == context.DeadlineExceeded {
		inv.TimedOut = true
		return inv
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			inv.ExitCode = exitErr.ExitCode()
			return inv
		}
		// Binary missing or failed to start; not an agent verdict.
		inv.Err = err.Error()
		inv.ExitCode = -1
		return inv
	}

	return inv
}

// PostProcess runs /evaluate-knowledge over the notes created this pass, in
// batches. Failures are logged and swallowed: the per-item outcomes are
// already committed.
func (r *Runner) PostProcess(ctx context.Context, relPaths []string) {
	if len(relPaths) == 0 {
		return
	}

	batches := batchPaths(relPaths, postProcessBatchSize)
	r.log.WithFields(logrus.Fields{
		"notes":   len(relPaths),
		"batches": len(batches),
	}).Info("Running knowledge evaluation on new notes")

	for i, batch := range batches {
		quoted := make([]string, len(batch))
		for j, p := range batch {
			quoted[j] = fmt.Sprintf("%q", p)
		}

		batchCtx, cancel := context.WithTimeout(ctx, postProcessTimeout)
		args := r.baseArgs()
		args = append(args, "/evaluate-knowledge "+strings.Join(quoted, " "))
		cmd := exec.CommandContext(batchCtx, r.bin, args...)
		_, err := cmd.CombinedOutput()
		cancel()

		entry := r.log.WithFields(logrus.Fields{"batch": i + 1, "of": len(batches), "notes": len(batch)})
		switch {
		case batchCtx.Err() == context.DeadlineExceeded:
			entry.Warn("Post-processing batch timed out, continuing")
		case err != nil:
			entry.WithField("error", err.Error()).Warn("Post-processing batch failed, continuing")
		default:
			entry.Info("Post-processing batch done")
		}
	}
}

func (r *Runner) baseArgs() []string {
	args := []string{}
	if r.mcpConfig != "" {
		args = append(args, "--mcp-config", r.mcpConfig)
	}
	args = append(args, "--print", "--dangerously-skip-permissions")
	return args
}

// batchPaths splits paths into chunks of at most size.
func batchPaths(paths []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(paths); start += size {
		end := start + size
		if end > len(paths) {
			end = len(paths)
		}
		batches = append(batches, paths[start:end])
	}
	return batches
}
