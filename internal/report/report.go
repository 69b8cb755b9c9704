// Package report renders completed runs into shareable Markdown and
// standalone HTML reports.
package report

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/harrison/searchex/internal/display"
	"github.com/harrison/searchex/internal/filelock"
	"github.com/harrison/searchex/internal/history"
)

// maxLineNumbers bounds how many matched line numbers a table cell
// lists before trailing off.
const maxLineNumbers = 12

// DefaultPath returns the conventional report location for a run.
func DefaultPath(reportsDir, runID string) string {
	return filepath.Join(reportsDir, "run-"+runID+".html")
}

// WriteHTML renders the run as a standalone HTML page and writes it
// atomically to outPath.
func WriteHTML(rec *history.RunRecord, files []*history.FileRecord, outPath string) error {
	page, err := HTML(rec, files)
	if err != nil {
		return err
	}
	return filelock.AtomicWrite(outPath, page)
}

// WriteMarkdown writes the run's Markdown source atomically to outPath.
func WriteMarkdown(rec *history.RunRecord, files []*history.FileRecord, outPath string) error {
	return filelock.AtomicWrite(outPath, Markdown(rec, files))
}

// Markdown builds the GFM source for a run report.
func Markdown(rec *history.RunRecord, files []*history.FileRecord) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# Search Report\n\n")
	fmt.Fprintf(&b, "Generated %s.\n\n", time.Now().Format("2006-01-02 15:04:05"))

	b.WriteString("## Run\n\n")
	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Run ID | `%s` |\n", cell(rec.RunID))
	fmt.Fprintf(&b, "| Root | `%s` |\n", cell(rec.Root))
	fmt.Fprintf(&b, "| Patterns | %s |\n", patternCell(rec.Patterns))
	fmt.Fprintf(&b, "| Options | %s |\n", optionsLine(rec))
	if rec.Impl != "" {
		fmt.Fprintf(&b, "| Strategy | %s |\n", cell(rec.Impl))
	}
	fmt.Fprintf(&b, "| Started | %s |\n", rec.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "| Duration | %s |\n", rec.Duration.Round(time.Millisecond))
	b.WriteString("\n")

	b.WriteString("## Totals\n\n")
	b.WriteString("| Files scanned | Matched files | Total matches | Problems |\n|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d/%d | %d | %d | %d |\n\n",
		rec.FilesDone, rec.FilesTotal, rec.FilesMatched, rec.TotalMatches, rec.Problems)

	if rec.Cancelled {
		b.WriteString("> **Note:** this run was cancelled before completion.\n\n")
	}

	var matched, problems []*history.FileRecord
	for _, f := range files {
		if f.Error != "" {
			problems = append(problems, f)
			continue
		}
		matched = append(matched, f)
	}

	b.WriteString("## Matched files\n\n")
	if len(matched) == 0 {
		b.WriteString("No files matched.\n\n")
	} else {
		b.WriteString("| Path | Matches | Lines | Size | Binary |\n|---|---|---|---|---|\n")
		for _, f := range matched {
			binary := ""
			if f.IsBinary {
				binary = "yes"
			}
			fmt.Fprintf(&b, "| `%s` | %d | %s | %s | %s |\n",
				cell(f.Path), f.Matches, lineCell(f.MatchLines), display.HumanBytes(f.Size), binary)
		}
		b.WriteString("\n")
	}

	if len(problems) > 0 {
		b.WriteString("## Problems\n\n")
		b.WriteString("| Path | Error |\n|---|---|\n")
		for _, f := range problems {
			fmt.Fprintf(&b, "| `%s` | %s |\n", cell(f.Path), cell(f.Error))
		}
		b.WriteString("\n")
	}

	return []byte(b.String())
}

// cell escapes table-breaking pipes in a cell value.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

func patternCell(patterns []string) string {
	quoted := make([]string, len(patterns))
	for i, p := range patterns {
		quoted[i] = "`" + cell(p) + "`"
	}
	return strings.Join(quoted, ", ")
}

func optionsLine(rec *history.RunRecord) string {
	var opts []string
	if rec.CaseSensitive {
		opts = append(opts, "case-sensitive")
	}
	if rec.UseRegex {
		opts = append(opts, "regex")
	}
	if rec.WholeWord {
		opts = append(opts, "whole-word")
	}
	if rec.MatchNames {
		opts = append(opts, "match-names")
	}
	if rec.IncludeHidden {
		opts = append(opts, "include-hidden")
	}
	if len(opts) == 0 {
		return "defaults"
	}
	return strings.Join(opts, ", ")
}

func lineCell(lines []int) string {
	if len(lines) == 0 {
		return ""
	}
	shown := lines
	trailing := ""
	if len(shown) > maxLineNumbers {
		shown = shown[:maxLineNumbers]
		trailing = ", …"
	}
	parts := make([]string, len(shown))
	for i, ln := range shown {
		parts[i] = strconv.Itoa(ln)
	}
	return strings.Join(parts, ", ") + trailing
}
