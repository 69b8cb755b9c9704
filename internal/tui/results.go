package tui

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/harrison/searchex/internal/display"
	"github.com/harrison/searchex/internal/models"
)

func (a App) resultsScreen() string {
	note := fmt.Sprintf("%s in %s", strings.Join(a.req.Patterns, ", "), a.req.Root)

	list := stylePaneFocused.Width(a.listWidth).Height(a.listHeight).Render(a.renderList())
	preview := stylePane.Width(a.previewWidth).Height(a.listHeight).Render(a.preview.View())

	var b strings.Builder
	b.WriteString(a.header(note))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, preview))
	b.WriteString("\n")
	if a.showProblems {
		b.WriteString(a.renderProblems())
		b.WriteString("\n")
	}
	b.WriteString(statusBar(a.statusLine(), a.hints(), a.width))
	return b.String()
}

// renderList draws the visible window of matched files with the
// cursor row highlighted.
func (a App) renderList() string {
	results := a.collector.Results()
	if len(results) == 0 {
		if a.st == stateRunning {
			return styleMuted.Render("searching...")
		}
		return styleMuted.Render("no matches")
	}

	end := min(a.listTop+a.listHeight, len(results))
	var b strings.Builder
	for i := a.listTop; i < end; i++ {
		line := a.listLine(results[i])
		if i == a.cursor {
			b.WriteString(styleSelected.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (a App) listLine(res *models.FileResult) string {
	meta := fmt.Sprintf("%d hits, %s", res.MatchCount(), display.HumanBytes(res.Size))
	if res.IsBinary {
		meta += ", binary"
	}
	// Reserve room for the cursor marker, a space, and the meta text.
	avail := a.listWidth - lipgloss.Width(meta) - 3
	return truncatePath(res.Path, avail) + " " + styleMuted.Render(meta)
}

// truncatePath keeps the tail of long paths, which carries the file
// name, and marks the cut with an ellipsis.
func truncatePath(path string, width int) string {
	if width < 2 {
		width = 2
	}
	runes := []rune(path)
	if len(runes) <= width {
		return path
	}
	return "…" + string(runes[len(runes)-width+1:])
}

func (a App) renderProblems() string {
	problems := a.collector.Problems()
	title := styleError.Render(fmt.Sprintf("problems (%d)", len(problems)))

	start := max(len(problems)-problemsPanelLines, 0)
	var b strings.Builder
	b.WriteString(title)
	for _, p := range problems[start:] {
		b.WriteString("\n")
		line := fmt.Sprintf("%s: %s", p.Path, p.Message)
		b.WriteString(styleMuted.Render(truncatePath(line, a.width-4)))
	}
	return stylePane.Width(a.width - 2).Render(b.String())
}

func (a App) statusLine() string {
	progress := a.collector.Progress()
	verb := "done"
	if a.st == stateRunning {
		verb = "scanning"
	}
	s := fmt.Sprintf("%s %d/%d files, %d matched, %d problems, %s",
		verb, progress.FilesDone, progress.FilesTotal,
		a.collector.MatchedFiles(), len(a.collector.Problems()),
		a.elapsed.Round(10*time.Millisecond))
	if progress.Cancelled {
		s += ", cancelled"
	}
	if a.collector.Dropped() > 0 {
		s += fmt.Sprintf(", %d dropped", a.collector.Dropped())
	}
	if a.historyNote != "" {
		s += ", " + a.historyNote
	}
	return s
}

func (a App) hints() string {
	if a.st == stateRunning {
		return "j/k:move e:problems esc:cancel q:quit"
	}
	return "j/k:move e:problems esc:new search q:quit"
}

// renderPreview rebuilds the preview pane when the selection changes.
// The renderer output is cached per result so streaming batches do
// not re-read the file under the cursor.
func (a *App) renderPreview() {
	results := a.collector.Results()
	if len(results) == 0 {
		a.previewFor = nil
		if a.ready {
			msg := "no matches yet"
			if a.st == stateDone {
				msg = "no matches"
			}
			a.preview.SetContent(styleMuted.Render(msg))
		}
		return
	}
	if a.cursor >= len(results) {
		a.cursor = len(results) - 1
	}
	res := results[a.cursor]
	if res == a.previewFor {
		return
	}
	a.previewFor = res

	var buf bytes.Buffer
	display.NewRenderer(&buf, true, a.run.Patterns()).Result(res)
	if a.ready {
		a.preview.SetContent(buf.String())
		a.preview.GotoTop()
	}
}
