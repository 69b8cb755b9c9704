package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for searchex
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "searchex",
		Short: "Concurrent multi-pattern file search",
		Long: `Searchex scans a file or directory tree for several patterns at once,
streaming matches from a bounded worker pool as they are found.

Patterns are literal by default, with optional case sensitivity,
whole-word boundaries and regular expression mode. Runs can be
recorded to a local history database, re-run on file changes, and
rendered as standalone HTML reports.`,
		Version: Version,
		// Errors are printed by main so the no-match exit code stays quiet
		SilenceErrors: true,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	// Add subcommands
	cmd.AddCommand(NewSearchCommand())
	cmd.AddCommand(NewTUICommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewReportCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the searchex version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "searchex %s\n", Version)
		},
	}
}
