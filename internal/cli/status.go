package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/curator/internal/ports/primary"
	"github.com/example/curator/internal/wire"
)

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	var runCount int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show pipeline state: recent runs, queue depth, totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			fmt.Println("Curator Status")
			fmt.Println()

			feeds, err := wire.FeedService().ListFeeds(ctx, "")
			if err != nil {
				return fmt.Errorf("failed to list feeds: %w", err)
			}
			processed, err := wire.ProcessedRepository().Count(ctx)
			if err != nil {
				return fmt.Errorf("failed to count processed entries: %w", err)
			}
			queued, err := wire.RetryService().List(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Feeds:     %d subscribed\n", len(feeds))
			fmt.Printf("Processed: %d entries\n", processed)
			fmt.Printf("Retrying:  %d queued\n", len(queued))
			fmt.Println()

			last, ok, err := wire.RunRepository().LastSuccessful(ctx)
			if err != nil {
				return fmt.Errorf("failed to read run ledger: %w", err)
			}
			if !ok {
				fmt.Println("Last successful run: never")
			} else {
				since := time.Since(last)
				line := fmt.Sprintf("Last successful run: %s (%s ago)", last.Format("2006-01-02 15:04"), since.Round(time.Minute))
				if since > 36*time.Hour {
					line = color.YellowString("%s — catch-up pending", line)
				}
				fmt.Println(line)
			}

			runs, err := wire.RunRepository().ListRecent(ctx, runCount)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}
			if len(runs) == 0 {
				return nil
			}

			fmt.Println()
			fmt.Printf("%-20s %-10s %10s %8s\n", "STARTED", "STATUS", "PROCESSED", "FAILED")
			fmt.Println("──────────────────────────────────────────────────────")
			for _, run := range runs {
				fmt.Printf("%-20s %-10s %10d %8d\n",
					run.StartedAt.Format("2006-01-02 15:04"),
					statusLabel(run.Status),
					run.ItemsProcessed,
					run.ItemsFailed,
				)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&runCount, "runs", 5, "Number of recent runs to show")

	return cmd
}

func statusLabel(status string) string {
	switch status {
	case primary.RunStatusCompleted:
		return color.GreenString(status)
	case primary.RunStatusFailed:
		return color.RedString(status)
	case primary.RunStatusRunning:
		return color.YellowString(status)
	default:
		return status
	}
}
