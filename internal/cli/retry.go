package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/curator/internal/wire"
)

// RetryCmd returns the retry command
func RetryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Inspect and edit the retry queue",
	}

	cmd.AddCommand(retryListCmd())
	cmd.AddCommand(retryDropCmd())

	return cmd
}

func retryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued retries, oldest due first",
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := wire.RetryService().List(context.Background())
			if err != nil {
				return err
			}

			if len(recs) == 0 {
				fmt.Println("Retry queue is empty")
				return nil
			}

			now := time.Now()
			fmt.Printf("\n%-40s %-10s %8s %-12s %s\n", "TITLE", "CATEGORY", "ATTEMPT", "NEXT TRY", "LAST ERROR")
			fmt.Println("────────────────────────────────────────────────────────────────────────────────────────")
			for _, rec := range recs {
				title := rec.EntryTitle
				if title == "" {
					title = rec.EntryURL
				}
				if len(title) > 40 {
					title = title[:37] + "..."
				}

				nextTry := "due now"
				if rec.NextRetryAt.After(now) {
					nextTry = "in " + rec.NextRetryAt.Sub(now).Round(time.Minute).String()
				} else {
					nextTry = color.YellowString(nextTry)
				}

				fmt.Printf("%-40s %-10s %8d %-12s %s\n", title, rec.Category, rec.RetryCount, nextTry, rec.LastError)
			}
			fmt.Println()

			return nil
		},
	}
}

func retryDropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop [entry-guid]",
		Short: "Remove an entry from the retry queue",
		Long: `Remove an entry from the retry queue without processing it. The entry
gets no completion record, so it re-enters the queue if its feed still
carries it and the next attempt fails again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.RetryService().Clear(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Printf("✓ Dropped %s\n", args[0])
			return nil
		},
	}
}
