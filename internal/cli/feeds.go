package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/curator/internal/config"
	"github.com/example/curator/internal/wire"
)

// FeedsCmd returns the feeds command
func FeedsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "Manage feed subscriptions",
		Long:  "Add, remove, list, import, and export feed subscriptions",
	}

	cmd.AddCommand(feedsAddCmd())
	cmd.AddCommand(feedsRemoveCmd())
	cmd.AddCommand(feedsListCmd())
	cmd.AddCommand(feedsImportCmd())
	cmd.AddCommand(feedsExportCmd())

	return cmd
}

func feedsAddCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "add [url]",
		Short: "Subscribe to a feed",
		Long: `Subscribe to a feed. The category controls which skill processes its
entries. When omitted it is detected from the URL (YouTube channel feeds
become youtube, everything else articles).

Examples:
  curator feeds add https://blog.example.com/rss.xml
  curator feeds add https://feeds.example.com/pod.rss --category podcasts`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			feed, err := wire.FeedService().AddFeed(context.Background(), args[0], category)
			if err != nil {
				return err
			}

			label := feed.Title
			if label == "" {
				label = feed.URL
			}
			fmt.Printf("✓ Subscribed to %s [%s]\n", label, feed.Category)
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Feed category (articles, youtube, podcasts)")

	return cmd
}

func feedsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [url]",
		Short: "Unsubscribe from a feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.FeedService().RemoveFeed(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Printf("✓ Removed %s\n", args[0])
			return nil
		},
	}
}

func feedsListCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List subscribed feeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			feeds, err := wire.FeedService().ListFeeds(context.Background(), category)
			if err != nil {
				return err
			}

			if len(feeds) == 0 {
				fmt.Println("No feeds subscribed")
				return nil
			}

			fmt.Printf("\n%-10s %-30s %s\n", "CATEGORY", "TITLE", "URL")
			fmt.Println("────────────────────────────────────────────────────────────────")
			for _, f := range feeds {
				title := f.Title
				if title == "" {
					title = "(untitled)"
				}
				if len(title) > 30 {
					title = title[:27] + "..."
				}
				fmt.Printf("%-10s %-30s %s\n", f.Category, title, f.URL)
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Filter by category (articles, youtube, podcasts)")

	return cmd
}

func feedsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file.opml]",
		Short: "Import subscriptions from an OPML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := wire.FeedService().ImportOPML(context.Background(), config.ExpandHome(args[0]))
			if err != nil {
				return err
			}
			fmt.Printf("✓ Imported %d feeds\n", count)
			return nil
		},
	}
}

func feedsExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file.opml]",
		Short: "Export subscriptions to an OPML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ExpandHome(args[0])
			if err := wire.FeedService().ExportOPML(context.Background(), path); err != nil {
				return err
			}
			fmt.Printf("✓ Exported to %s\n", path)
			return nil
		},
	}
}
