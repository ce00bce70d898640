// Package notify sends best-effort desktop notifications at the end of a
// pipeline pass. Failures are swallowed; a missed notification never affects
// ledger state.
package notify

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Desktop notifies via osascript on macOS and is a no-op elsewhere.
type Desktop struct{}

// NewDesktop creates a desktop notifier.
func NewDesktop() *Desktop {
	return &Desktop{}
}

// Notify displays a notification. Best-effort.
func (d *Desktop) Notify(title, message string) {
	if runtime.GOOS != "darwin" {
		return
	}
	script := fmt.Sprintf("display notification %q with title %q", message, title)
	// Errors ignored: notifications are cosmetic.
	exec.Command("osascript", "-e", script).Run()
}

// Silent discards notifications. Used for dry runs and tests.
type Silent struct{}

// NewSilent creates a no-op notifier.
func NewSilent() *Silent {
	return &Silent{}
}

// Notify does nothing.
func (s *Silent) Notify(title, message string) {}
