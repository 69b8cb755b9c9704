package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/harrison/searchex/internal/models"
)

// maxWarningFiles bounds how many paths a problem warning enumerates
// before collapsing the rest into a count.
const maxWarningFiles = 10

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Files      []string // Related files (optional)
	Suggestion string   // Action to take (optional)
}

// Display shows a formatted warning in yellow
func (w Warning) Display(out io.Writer) {
	var b strings.Builder

	b.WriteString("\x1b[33m")
	b.WriteString("⚠️  Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	if len(w.Files) > 0 {
		b.WriteString("    ")
		if len(w.Files) == 1 {
			b.WriteString("Affected file:\n")
		} else {
			b.WriteString("Affected files:\n")
		}
		for i, file := range w.Files {
			b.WriteString(fmt.Sprintf("      %d. %s\n", i+1, file))
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	b.WriteString("\x1b[0m")

	fmt.Fprint(out, b.String())
}

// WarnProblems builds a warning summarizing files that could not be
// scanned during a run.
func WarnProblems(problems []models.Problem) Warning {
	title := fmt.Sprintf("%d files could not be scanned", len(problems))
	if len(problems) == 1 {
		title = "1 file could not be scanned"
	}

	files := make([]string, 0, min(len(problems), maxWarningFiles+1))
	for i, p := range problems {
		if i == maxWarningFiles {
			files = append(files, fmt.Sprintf("and %d more", len(problems)-maxWarningFiles))
			break
		}
		entry := p.Message
		if p.Path != "" {
			entry = p.Path + ": " + p.Message
		}
		files = append(files, entry)
	}

	return Warning{
		Title:      title,
		Files:      files,
		Suggestion: "Re-run with --log-level debug to see each failure as it happens.",
	}
}
