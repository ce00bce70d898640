package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/example/curator/internal/lock"
	"github.com/example/curator/internal/ports/primary"
	"github.com/example/curator/internal/wire"
)

// RunCmd returns the run command
func RunCmd() *cobra.Command {
	var opts primary.RunOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one pipeline pass over new entries and due retries",
		Long: `Run one orchestration pass:
- Fetch new entries from all subscribed feeds
- Pick up queued retries whose backoff has elapsed
- Invoke the matching skill per entry and record the outcome

Only one pass can run at a time; a second invocation exits immediately.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Verbose {
				wire.Logger().SetLevel(logrus.DebugLevel)
			}

			summary, err := wire.PipelineService().Run(context.Background(), opts)
			if err != nil {
				var contention *lock.ContentionError
				if errors.As(err, &contention) {
					// Non-zero exit: the losing invocation must not look like a pass.
					fmt.Fprintln(os.Stderr, "Use --force to override (only if the holder is known dead).")
				}
				return err
			}

			printSummary(summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Preview the work set without processing or locking")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Run even when another invocation holds the lock")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Process at most N items (0 = no limit)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Per-item progress output")

	return cmd
}

func printSummary(summary *primary.RunSummary) {
	if summary.Skipped > 0 {
		fmt.Printf("Dry run: %d items would be processed\n", summary.Skipped)
		return
	}

	fmt.Println()
	fmt.Println(color.GreenString("✓ Processed: %d", summary.Processed))
	if summary.Retried > 0 {
		fmt.Printf("  of which retried: %d\n", summary.Retried)
	}
	if summary.Failed > 0 {
		fmt.Println(color.YellowString("⟳ Queued for retry: %d", summary.Failed))
	}
	if summary.Abandoned > 0 {
		fmt.Println(color.RedString("✗ Abandoned (retries exhausted): %d", summary.Abandoned))
	}
	if summary.Permanent > 0 {
		fmt.Println(color.RedString("✗ Dropped (permanent): %d", summary.Permanent))
	}
	for _, note := range summary.CreatedNotes {
		fmt.Printf("  + %s\n", note)
	}
}
