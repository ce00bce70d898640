package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/curator/internal/cli"
	"github.com/example/curator/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "curator",
		Short:   "Curator - feed-to-vault content pipeline",
		Version: version.String(),
		Long: `Curator watches RSS/Atom feeds and turns new entries into vault notes by
invoking Claude Code skills. It keeps a completion ledger so nothing is
processed twice, and a retry queue with exponential backoff for entries
that fail transiently.`,
	}

	// Add subcommands
	rootCmd.AddCommand(cli.RunCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.FeedsCmd())
	rootCmd.AddCommand(cli.RetryCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
