package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harrison/searchex/internal/config"
	"github.com/harrison/searchex/internal/models"
)

// formField indexes the focusable rows of the search form, text
// inputs first, option toggles after.
type formField int

const (
	fieldRoot formField = iota
	fieldPatterns
	fieldCase
	fieldRegex
	fieldWord
	fieldNames
	fieldHidden
	fieldEnd // one past the last field
)

// form is the search setup screen: root and pattern inputs plus the
// matching option toggles, seeded from configuration defaults.
type form struct {
	root     textinput.Model
	patterns textinput.Model
	focus    formField

	caseSensitive bool
	regex         bool
	wholeWord     bool
	matchNames    bool
	includeHidden bool

	errText string
}

func newForm(cfg *config.Config) form {
	root := textinput.New()
	root.Placeholder = "directory or file to search"
	root.CharLimit = 512
	root.SetValue(".")
	root.Focus()

	patterns := textinput.New()
	patterns.Placeholder = "patterns, comma separated"
	patterns.CharLimit = 512

	return form{
		root:          root,
		patterns:      patterns,
		focus:         fieldRoot,
		caseSensitive: cfg.Search.CaseSensitive,
		regex:         cfg.Search.Regex,
		wholeWord:     cfg.Search.WholeWord,
		matchNames:    cfg.Search.MatchNames,
		includeHidden: cfg.Search.IncludeHidden,
	}
}

func (f *form) setSize(width int) {
	w := width - 8
	if w < 10 {
		w = 10
	}
	f.root.Width = w
	f.patterns.Width = w
}

func (f form) Update(msg tea.Msg) (form, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return f.updateInputs(msg)
	}

	switch keyMsg.String() {
	case "tab", "down":
		f.setFocus((f.focus + 1) % fieldEnd)
		return f, nil
	case "shift+tab", "up":
		f.setFocus((f.focus + fieldEnd - 1) % fieldEnd)
		return f, nil
	case " ":
		// Space toggles options; inside a text input it is just a
		// character.
		if f.focus >= fieldCase {
			f.toggle(f.focus)
			return f, nil
		}
	}
	return f.updateInputs(msg)
}

func (f *form) setFocus(target formField) {
	f.focus = target
	f.root.Blur()
	f.patterns.Blur()
	switch target {
	case fieldRoot:
		f.root.Focus()
	case fieldPatterns:
		f.patterns.Focus()
	}
}

func (f *form) toggle(field formField) {
	switch field {
	case fieldCase:
		f.caseSensitive = !f.caseSensitive
	case fieldRegex:
		f.regex = !f.regex
	case fieldWord:
		f.wholeWord = !f.wholeWord
	case fieldNames:
		f.matchNames = !f.matchNames
	case fieldHidden:
		f.includeHidden = !f.includeHidden
	}
}

func (f form) updateInputs(msg tea.Msg) (form, tea.Cmd) {
	var cmd tea.Cmd
	switch f.focus {
	case fieldRoot:
		f.root, cmd = f.root.Update(msg)
	case fieldPatterns:
		f.patterns, cmd = f.patterns.Update(msg)
	}
	return f, cmd
}

// request assembles a SearchRequest from the form state. Limits the
// form does not expose come from configuration.
func (f form) request(cfg *config.Config) models.SearchRequest {
	return models.SearchRequest{
		Root:          strings.TrimSpace(f.root.Value()),
		Patterns:      splitPatterns(f.patterns.Value()),
		CaseSensitive: f.caseSensitive,
		UseRegex:      f.regex,
		WholeWord:     f.wholeWord,
		MatchNames:    f.matchNames,
		IncludeHidden: f.includeHidden,
		MaxSizeBytes:  cfg.Search.MaxSizeBytes,
		Concurrency:   cfg.ResolveThreads(),
	}
}

// splitPatterns turns the comma-separated pattern input into the
// ordered pattern list, preserving duplicates.
func splitPatterns(s string) []string {
	parts := strings.Split(s, ",")
	patterns := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

func (f form) View() string {
	var b strings.Builder

	b.WriteString(styleLabel.Render("Root") + "\n")
	b.WriteString("  " + f.root.View() + "\n\n")
	b.WriteString(styleLabel.Render("Patterns") + "\n")
	b.WriteString("  " + f.patterns.View() + "\n\n")
	b.WriteString(styleLabel.Render("Options") + "\n")

	toggles := []struct {
		field formField
		on    bool
		label string
	}{
		{fieldCase, f.caseSensitive, "case sensitive"},
		{fieldRegex, f.regex, "regular expressions"},
		{fieldWord, f.wholeWord, "whole word"},
		{fieldNames, f.matchNames, "match file names"},
		{fieldHidden, f.includeHidden, "include hidden"},
	}
	for _, tg := range toggles {
		marker := "[ ]"
		if tg.on {
			marker = "[x]"
		}
		line := fmt.Sprintf("%s %s", marker, tg.label)
		if f.focus == tg.field {
			line = styleSelected.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	if f.errText != "" {
		b.WriteString("\n" + styleError.Render("  "+f.errText) + "\n")
	}
	return b.String()
}
