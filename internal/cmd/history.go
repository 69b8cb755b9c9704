package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/searchex/internal/display"
	"github.com/harrison/searchex/internal/history"
)

// NewHistoryCommand creates the history command group
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded search runs",
		Long: `List, inspect, export and prune the runs recorded in the history
database. Runs are recorded by "search --save", or by every search
and tui run when history.enabled is set in the config file.

Run ids may be abbreviated to any unique prefix.`,
	}

	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryExportCommand())
	cmd.AddCommand(newHistoryPruneCommand())

	return cmd
}

func newHistoryListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent recorded runs",
		Args:  cobra.NoArgs,
		RunE:  historyListCommand,
	}
	cmd.Flags().String("config", "", "Path to config file (default: <home>/config.yaml)")
	cmd.Flags().Int("limit", 20, "Maximum number of runs to list (0 = all)")
	return cmd
}

func historyListCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No recorded runs.")
		return nil
	}

	fmt.Fprintf(out, "%-10s %-17s %-12s %-8s %-10s %s\n",
		"RUN", "STARTED", "MATCHED", "HITS", "DURATION", "SEARCH")
	for _, rec := range runs {
		matched := fmt.Sprintf("%d/%d", rec.FilesMatched, rec.FilesDone)
		search := fmt.Sprintf("%s in %s", strings.Join(rec.Patterns, ", "), rec.Root)
		if rec.Cancelled {
			search += " (cancelled)"
		}
		fmt.Fprintf(out, "%-10s %-17s %-12s %-8d %-10s %s\n",
			shortRunID(rec.RunID),
			rec.StartedAt.Format("2006-01-02 15:04"),
			matched,
			rec.TotalMatches,
			rec.Duration.Round(time.Millisecond),
			search,
		)
	}
	return nil
}

func newHistoryShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show the per-file details of one run",
		Args:  cobra.ExactArgs(1),
		RunE:  historyShowCommand,
	}
	cmd.Flags().String("config", "", "Path to config file (default: <home>/config.yaml)")
	cmd.Flags().Int("limit", 0, "Maximum number of files to list (0 = all)")
	return cmd
}

func historyShowCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.FindRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	files, err := store.FileDetails(cmd.Context(), rec.RunID, limit)
	if err != nil {
		return fmt.Errorf("load run files: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n", rec.RunID)
	fmt.Fprintf(out, "  Root:      %s\n", rec.Root)
	fmt.Fprintf(out, "  Patterns:  %s\n", strings.Join(rec.Patterns, ", "))
	fmt.Fprintf(out, "  Options:   %s\n", describeOptions(rec))
	fmt.Fprintf(out, "  Engine:    %s\n", rec.Impl)
	fmt.Fprintf(out, "  Started:   %s\n", rec.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  Duration:  %s\n", rec.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "  Files:     %d scanned of %d, %d matched, %d problem(s)\n",
		rec.FilesDone, rec.FilesTotal, rec.FilesMatched, rec.Problems)
	fmt.Fprintf(out, "  Matches:   %d\n", rec.TotalMatches)
	if rec.Cancelled {
		fmt.Fprintf(out, "  Cancelled: yes\n")
	}

	if len(files) == 0 {
		return nil
	}
	fmt.Fprintf(out, "\nFiles:\n")
	for _, f := range files {
		if f.Error != "" {
			fmt.Fprintf(out, "  %s (error: %s)\n", f.Path, f.Error)
			continue
		}
		line := fmt.Sprintf("  %s (%d match(es), %s)", f.Path, f.Matches, display.HumanBytes(f.Size))
		if f.IsBinary {
			line += " [binary]"
		}
		fmt.Fprintln(out, line)
		if len(f.MatchLines) > 0 {
			fmt.Fprintf(out, "    lines %s\n", joinInts(f.MatchLines))
		}
	}
	return nil
}

// describeOptions renders the run's matching options as one line.
func describeOptions(rec *history.RunRecord) string {
	var opts []string
	if rec.UseRegex {
		opts = append(opts, "regex")
	} else {
		opts = append(opts, "literal")
	}
	if rec.CaseSensitive {
		opts = append(opts, "case-sensitive")
	} else {
		opts = append(opts, "case-insensitive")
	}
	if rec.WholeWord {
		opts = append(opts, "whole-word")
	}
	if rec.MatchNames {
		opts = append(opts, "match-names")
	}
	if rec.IncludeHidden {
		opts = append(opts, "hidden")
	}
	return strings.Join(opts, ", ")
}

func joinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, ", ")
}

func newHistoryExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export RUN_ID",
		Short: "Export the file rows of one run as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  historyExportCommand,
	}
	cmd.Flags().String("config", "", "Path to config file (default: <home>/config.yaml)")
	cmd.Flags().String("out", "", "Output path (default: <run-id>.csv)")
	return cmd
}

func historyExportCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.FindRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	outPath, _ := cmd.Flags().GetString("out")
	if outPath == "" {
		outPath = shortRunID(rec.RunID) + ".csv"
	}
	if err := store.ExportCSV(cmd.Context(), rec.RunID, outPath); err != nil {
		return fmt.Errorf("export run: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", shortRunID(rec.RunID), outPath)
	return nil
}

func newHistoryPruneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest runs",
		Args:  cobra.NoArgs,
		RunE:  historyPruneCommand,
	}
	cmd.Flags().String("config", "", "Path to config file (default: <home>/config.yaml)")
	cmd.Flags().Int("keep", 50, "Number of runs to keep")
	return cmd
}

func historyPruneCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	keep, _ := cmd.Flags().GetInt("keep")
	pruned, err := store.PruneRuns(cmd.Context(), keep)
	if err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s), kept the newest %d.\n", pruned, keep)
	return nil
}
