package tui

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harrison/searchex/internal/config"
	"github.com/harrison/searchex/internal/history"
)

// fixtureApp builds an app over a temp tree, sized and pointed at the
// fixture root. The pattern input starts empty.
func fixtureApp(t *testing.T, files map[string]string) (App, string) {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.DefaultConfig()
	cfg.Engine.FlushInterval = 5 * time.Millisecond

	app := NewApp(cfg, nil, nil)
	m, _ := app.Update(tea.WindowSizeMsg{Width: 100, Height: 32})
	app = *m.(*App)
	app.form.root.SetValue(root)
	return app, root
}

// driveRun presses enter and pumps aggregator batches through Update
// until the run finishes. Returns the command produced by the final
// batch, which records history when a store is attached.
func driveRun(t *testing.T, app App) (App, tea.Cmd) {
	t.Helper()

	m, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = *m.(*App)
	if cmd == nil {
		t.Fatal("enter produced no command")
	}
	msg := cmd()
	if failed, ok := msg.(runFailedMsg); ok {
		t.Fatalf("run failed to start: %v", failed.err)
	}
	m, _ = app.Update(msg)
	app = *m.(*App)
	if app.st != stateRunning {
		t.Fatalf("state = %d, want stateRunning", app.st)
	}

	deadline := time.After(5 * time.Second)
	var last tea.Cmd
	for app.st != stateDone {
		select {
		case b, ok := <-app.agg.Batches():
			if !ok {
				t.Fatal("batch channel closed before the final batch")
			}
			m, last = app.Update(batchMsg{batch: b})
			app = *m.(*App)
		case <-deadline:
			t.Fatal("run did not finish in time")
		}
	}
	return app, last
}

func TestSplitPatterns(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"cat", []string{"cat"}},
		{"cat,dog", []string{"cat", "dog"}},
		{" cat , dog ", []string{"cat", "dog"}},
		{"cat,,dog", []string{"cat", "dog"}},
		{"cat,cat", []string{"cat", "cat"}},
		{"", []string{}},
		{" , ", []string{}},
	}
	for _, tt := range tests {
		if got := splitPatterns(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitPatterns(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		path  string
		width int
		want  string
	}{
		{"short.txt", 20, "short.txt"},
		{"abcdef", 4, "…def"},
		{"/very/long/dir/name.txt", 10, "…/name.txt"},
		{"ab", 1, "ab"},
	}
	for _, tt := range tests {
		if got := truncatePath(tt.path, tt.width); got != tt.want {
			t.Errorf("truncatePath(%q, %d) = %q, want %q", tt.path, tt.width, got, tt.want)
		}
	}
}

func TestFormTogglesOptions(t *testing.T) {
	app, _ := fixtureApp(t, nil)

	// Tab past the two inputs onto the first toggle.
	for i := 0; i < 2; i++ {
		m, _ := app.Update(tea.KeyMsg{Type: tea.KeyTab})
		app = *m.(*App)
	}
	if app.form.focus != fieldCase {
		t.Fatalf("focus = %d, want fieldCase", app.form.focus)
	}

	m, _ := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}})
	app = *m.(*App)
	req := app.form.request(app.cfg)
	if !req.CaseSensitive {
		t.Error("space on the case toggle did not enable case sensitivity")
	}

	// Space again flips it back.
	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}})
	app = *m.(*App)
	if app.form.request(app.cfg).CaseSensitive {
		t.Error("second space did not clear case sensitivity")
	}
}

func TestFormTypesIntoPatternInput(t *testing.T) {
	app, _ := fixtureApp(t, nil)

	m, _ := app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app = *m.(*App)
	if app.form.focus != fieldPatterns {
		t.Fatalf("focus = %d, want fieldPatterns", app.form.focus)
	}

	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("cat, dog")})
	app = *m.(*App)
	if got := app.form.patterns.Value(); got != "cat, dog" {
		t.Fatalf("pattern input = %q, want %q", got, "cat, dog")
	}
	req := app.form.request(app.cfg)
	if !reflect.DeepEqual(req.Patterns, []string{"cat", "dog"}) {
		t.Fatalf("request patterns = %v", req.Patterns)
	}
}

func TestFormRejectsEmptyPatterns(t *testing.T) {
	app, _ := fixtureApp(t, map[string]string{"a.txt": "x"})

	m, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = *m.(*App)
	msg := cmd()
	if _, ok := msg.(runFailedMsg); !ok {
		t.Fatalf("message = %T, want runFailedMsg", msg)
	}

	m, _ = app.Update(msg)
	app = *m.(*App)
	if app.st != stateForm {
		t.Fatalf("state = %d, want stateForm", app.st)
	}
	if app.form.errText == "" {
		t.Error("form error text not set after a failed start")
	}
}

func TestAppRunsSearch(t *testing.T) {
	app, root := fixtureApp(t, map[string]string{
		"alpha.txt": "cat and dog\ncat again\n",
		"beta.log":  "nothing here\n",
	})
	app.form.patterns.SetValue("cat")

	app, _ = driveRun(t, app)

	if got := app.collector.MatchedFiles(); got != 1 {
		t.Fatalf("matched files = %d, want 1", got)
	}
	res := app.collector.Results()[0]
	if want := filepath.Join(root, "alpha.txt"); res.Path != want {
		t.Errorf("matched path = %q, want %q", res.Path, want)
	}
	if got := app.collector.TotalMatches(); got != 2 {
		t.Errorf("total matches = %d, want 2", got)
	}

	view := app.View()
	if !strings.Contains(view, "alpha.txt") {
		t.Error("view does not list the matched file")
	}
	if !strings.Contains(view, "done") {
		t.Error("status line does not report completion")
	}
	if app.previewFor != res {
		t.Error("preview is not rendered for the selected result")
	}
}

func TestAppNavigatesResults(t *testing.T) {
	app, _ := fixtureApp(t, map[string]string{
		"alpha.txt": "cat\n",
		"zeta.txt":  "cat\n",
	})
	app.form.patterns.SetValue("cat")

	app, _ = driveRun(t, app)
	if got := app.collector.MatchedFiles(); got != 2 {
		t.Fatalf("matched files = %d, want 2", got)
	}

	m, _ := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	app = *m.(*App)
	if app.cursor != 1 {
		t.Fatalf("cursor = %d after j, want 1", app.cursor)
	}
	if app.previewFor != app.collector.Results()[1] {
		t.Error("preview did not follow the cursor")
	}

	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	app = *m.(*App)
	if app.cursor != 0 {
		t.Fatalf("cursor = %d after k, want 0", app.cursor)
	}

	// The cursor stops at the ends of the list.
	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	app = *m.(*App)
	if app.cursor != 0 {
		t.Fatalf("cursor = %d after k at the top, want 0", app.cursor)
	}
}

func TestAppBackToFormAfterRun(t *testing.T) {
	app, _ := fixtureApp(t, map[string]string{"a.txt": "cat\n"})
	app.form.patterns.SetValue("cat")

	app, _ = driveRun(t, app)

	m, _ := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	app = *m.(*App)
	if app.st != stateForm {
		t.Fatalf("state = %d after esc, want stateForm", app.st)
	}
}

func TestAppTogglesProblemsPanel(t *testing.T) {
	app, _ := fixtureApp(t, map[string]string{"a.txt": "cat\n"})
	app.form.patterns.SetValue("cat")

	app, _ = driveRun(t, app)

	m, _ := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'e'}})
	app = *m.(*App)
	if !app.showProblems {
		t.Fatal("e did not open the problems panel")
	}
	if !strings.Contains(app.View(), "problems (0)") {
		t.Error("problems panel missing from the view")
	}

	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'e'}})
	app = *m.(*App)
	if app.showProblems {
		t.Fatal("second e did not close the problems panel")
	}
}

func TestAppRecordsHistory(t *testing.T) {
	store, err := history.NewStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	app, root := fixtureApp(t, map[string]string{"a.txt": "cat cat\n"})
	app.store = store
	app.form.patterns.SetValue("cat")

	app, last := driveRun(t, app)
	if last == nil {
		t.Fatal("final batch produced no history command")
	}

	msg := last()
	saved, ok := msg.(historySavedMsg)
	if !ok {
		t.Fatalf("message = %T, want historySavedMsg", msg)
	}
	if saved.err != nil {
		t.Fatalf("history save: %v", saved.err)
	}

	m, _ := app.Update(msg)
	app = *m.(*App)
	if !strings.Contains(app.historyNote, "saved as") {
		t.Errorf("history note = %q", app.historyNote)
	}

	runs, err := store.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("recorded runs = %d, want 1", len(runs))
	}
	rec := runs[0]
	if rec.RunID != app.run.ID {
		t.Errorf("run id = %q, want %q", rec.RunID, app.run.ID)
	}
	if rec.Root != root {
		t.Errorf("root = %q, want %q", rec.Root, root)
	}
	if rec.FilesMatched != 1 || rec.TotalMatches != 2 {
		t.Errorf("matched = %d, total = %d, want 1 and 2", rec.FilesMatched, rec.TotalMatches)
	}

	files, err := store.FileDetails(context.Background(), rec.RunID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("file records = %d, want 1", len(files))
	}
}
