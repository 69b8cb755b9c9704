package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/searchex/internal/config"
	"github.com/harrison/searchex/internal/report"
)

// NewReportCommand creates the report command
func NewReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report RUN_ID",
		Short: "Render a recorded run as an HTML report",
		Long: `Render a run from the history database as a standalone HTML page
with the run summary, per-file match details and problems.

The run id may be abbreviated to any unique prefix. Without --out the
report lands in the reports directory under the searchex home.`,
		Args: cobra.ExactArgs(1),
		RunE: reportCommand,
	}
	cmd.Flags().String("config", "", "Path to config file (default: <home>/config.yaml)")
	cmd.Flags().String("out", "", "Output path (default: <home>/reports/run-<id>.html)")
	cmd.Flags().Bool("markdown", false, "Write the Markdown source instead of HTML")
	return cmd
}

// reportCommand implements the report command logic
func reportCommand(cmd *cobra.Command, args []string) error {
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
	files, err := store.FileDetails(cmd.Context(), rec.RunID, 0)
	if err != nil {
		return fmt.Errorf("load run files: %w", err)
	}

	markdown, _ := cmd.Flags().GetBool("markdown")
	outPath, _ := cmd.Flags().GetString("out")
	if outPath == "" {
		dir, err := config.GetReportsDir()
		if err != nil {
			return fmt.Errorf("resolve reports directory: %w", err)
		}
		outPath = report.DefaultPath(dir, shortRunID(rec.RunID))
		if markdown {
			outPath = strings.TrimSuffix(outPath, ".html") + ".md"
		}
	}

	if markdown {
		err = report.WriteMarkdown(rec, files, outPath)
	} else {
		err = report.WriteHTML(rec, files, outPath)
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Report written: %s\n", outPath)
	return nil
}
