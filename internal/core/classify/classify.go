// Package classify labels the outcome of a skill invocation. It is a pure
// function over the invocation's exit status, captured output, and whether a
// vault artifact was found.
package classify

import (
	"fmt"
	"strings"
)

// Result is the classification of one skill invocation.
type Result int

const (
	// Success - an artifact landed in the vault.
	Success Result = iota
	// TransientFailure - worth retrying (timeout, crash, no artifact without
	// a permanent signature).
	TransientFailure
	// PermanentFailure - retrying cannot fix it; never queued.
	PermanentFailure
)

// String returns the result name for logs.
func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case TransientFailure:
		return "transient"
	case PermanentFailure:
		return "permanent"
	default:
		return "unknown"
	}
}

// Outcome carries the classification and a human-readable reason.
type Outcome struct {
	Result  Result
	Message string
}

// permanentPhrases are signatures of content the agent can never extract.
// They are only consulted when the agent exited cleanly yet produced no
// artifact; legitimate content merely discussing these phrases will have
// produced a note and never reaches the scan.
var permanentPhrases = []string{
	// access-restricted content
	"behind a paywall",
	"paywalled",
	"subscribers only",
	"subscription required",
	"requires a login",
	"login required",
	// removed or missing content
	"content has been removed",
	"video has been removed",
	"no longer available",
	"video unavailable",
	"page not found",
	"404 not found",
	// missing agent capability
	"no transcript available",
	"transcript is not available",
	"captions are disabled",
}

// Classify labels a skill invocation.
//
// Artifact presence wins outright. A non-zero exit or timeout is always
// transient: the agent cannot reliably distinguish "I crashed" from
// "I refuse", so infrastructure-class failures get retried. Only the narrow
// exit-zero-no-artifact window is scanned for permanent signatures.
func Classify(exitCode int, output string, timedOut bool, artifactFound bool) Outcome {
	if artifactFound {
		return Outcome{Result: Success}
	}

	if timedOut {
		return Outcome{Result: TransientFailure, Message: "skill timed out"}
	}

	if exitCode != 0 {
		return Outcome{
			Result:  TransientFailure,
			Message: fmt.Sprintf("skill exited with code %d", exitCode),
		}
	}

	lower := strings.ToLower(output)
	for _, phrase := range permanentPhrases {
		if strings.Contains(lower, phrase) {
			return Outcome{
				Result:  PermanentFailure,
				Message: fmt.Sprintf("content unextractable (%q)", phrase),
			}
		}
	}

	return Outcome{
		Result:  TransientFailure,
		Message: "skill completed but produced no note",
	}
}
