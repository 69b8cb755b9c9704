// Package tui is the interactive front end: a search form, a
// streaming result list with a preview pane, and optional history
// recording, driven by the same engine the command line uses.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harrison/searchex/internal/config"
	"github.com/harrison/searchex/internal/engine"
	"github.com/harrison/searchex/internal/history"
	"github.com/harrison/searchex/internal/models"
	"github.com/harrison/searchex/internal/pattern"
)

type state int

const (
	stateForm state = iota
	stateRunning
	stateDone
)

// Messages produced by the engine bridge.
type (
	runStartedMsg struct {
		run *engine.Run
		agg *engine.Aggregator
	}
	runFailedMsg    struct{ err error }
	batchMsg        struct{ batch engine.Batch }
	tickMsg         time.Time
	historySavedMsg struct{ err error }
)

// App is the bubbletea model for the interactive search screen.
type App struct {
	cfg   *config.Config
	store *history.Store // nil disables history recording
	log   engine.Logger  // nil is silent

	st   state
	form form
	req  models.SearchRequest

	run       *engine.Run
	agg       *engine.Aggregator
	collector *engine.Collector
	started   time.Time
	elapsed   time.Duration

	cursor       int
	listTop      int
	preview      viewport.Model
	previewFor   *models.FileResult
	showProblems bool
	historyNote  string

	width        int
	height       int
	listWidth    int
	listHeight   int
	previewWidth int
	ready        bool
}

// NewApp builds the interactive model. store may be nil to disable
// history recording; log may be nil.
func NewApp(cfg *config.Config, store *history.Store, log engine.Logger) App {
	return App{
		cfg:   cfg,
		store: store,
		log:   log,
		form:  newForm(cfg),
	}
}

func (a App) Init() tea.Cmd {
	return textinput.Blink
}

// startRun launches the engine for req. The run streams through an
// aggregator whose batches arrive back as messages.
func (a App) startRun(req models.SearchRequest) tea.Cmd {
	opts := engine.Options{QueueSize: a.cfg.Engine.QueueSize, Logger: a.log}
	aggOpts := engine.AggregatorOptions{
		FlushInterval: a.cfg.Engine.FlushInterval,
		ResultBatch:   a.cfg.Engine.ResultBatch,
		ProblemBatch:  a.cfg.Engine.ProblemBatch,
		BufferLimit:   a.cfg.Engine.BufferLimit,
		Policy:        engine.OverflowPolicy(a.cfg.Engine.Overflow),
	}
	return func() tea.Msg {
		run, err := engine.New(opts).Start(context.Background(), req)
		if err != nil {
			return runFailedMsg{err: err}
		}
		return runStartedMsg{
			run: run,
			agg: engine.NewAggregator(run.Events(), run.Progress, aggOpts),
		}
	}
}

// waitBatch blocks for the next aggregator batch. Update re-arms it
// until the final batch lands.
func waitBatch(agg *engine.Aggregator) tea.Cmd {
	return func() tea.Msg {
		b, ok := <-agg.Batches()
		if !ok {
			return nil
		}
		return batchMsg{batch: b}
	}
}

// tick keeps the elapsed time in the footer moving while the engine
// is between batches.
func tick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// recordRun persists the finished run to history.
func (a App) recordRun() tea.Cmd {
	store, runID, col := a.store, a.run.ID, a.collector
	req, started, elapsed := a.req, a.started, a.elapsed
	return func() tea.Msg {
		rec := history.BuildRunRecord(runID, req, col.Progress(),
			col.MatchedFiles(), col.TotalMatches(), string(pattern.ImplOptimized), started, elapsed)
		files := make([]*history.FileRecord, 0, col.MatchedFiles()+len(col.Problems()))
		for _, res := range col.Results() {
			files = append(files, history.BuildFileRecord(runID, res))
		}
		for _, p := range col.Problems() {
			files = append(files, history.BuildProblemRecord(runID, p))
		}
		err := store.RecordRun(context.Background(), rec, files)
		return historySavedMsg{err: err}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.propagateSize()
		return &a, nil

	case runStartedMsg:
		a.run = msg.run
		a.agg = msg.agg
		a.collector = engine.NewCollector()
		a.st = stateRunning
		a.started = time.Now()
		a.elapsed = 0
		a.cursor = 0
		a.listTop = 0
		a.showProblems = false
		a.historyNote = ""
		a.previewFor = nil
		a.propagateSize()
		a.renderPreview()
		return &a, tea.Batch(waitBatch(a.agg), tick())

	case runFailedMsg:
		a.st = stateForm
		a.form.errText = msg.err.Error()
		return &a, nil

	case batchMsg:
		a.collector.Add(msg.batch)
		a.scrollList()
		a.renderPreview()
		if msg.batch.Final {
			a.st = stateDone
			a.elapsed = time.Since(a.started)
			if a.store != nil {
				return &a, a.recordRun()
			}
			return &a, nil
		}
		return &a, waitBatch(a.agg)

	case tickMsg:
		if a.st != stateRunning {
			return &a, nil
		}
		a.elapsed = time.Since(a.started)
		return &a, tick()

	case historySavedMsg:
		if msg.err != nil {
			a.historyNote = fmt.Sprintf("history: %v", msg.err)
		} else {
			a.historyNote = "saved as " + shortID(a.run.ID)
		}
		return &a, nil
	}

	if a.st == stateForm {
		return a.updateForm(msg)
	}
	return a.updateResults(msg)
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "ctrl+c", "esc":
			return &a, tea.Quit
		case "enter":
			a.form.errText = ""
			a.req = a.form.request(a.cfg)
			return &a, a.startRun(a.req)
		}
	}
	var cmd tea.Cmd
	a.form, cmd = a.form.Update(msg)
	return &a, cmd
}

func (a App) updateResults(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		a.preview, cmd = a.preview.Update(msg)
		return &a, cmd
	}

	switch {
	case key.Matches(keyMsg, keys.Quit):
		if a.st == stateRunning {
			a.run.Cancel()
		}
		return &a, tea.Quit

	case key.Matches(keyMsg, keys.Back):
		if a.st == stateRunning {
			// The run winds down on its own; batches keep arriving
			// until the final one.
			a.run.Cancel()
			return &a, nil
		}
		a.st = stateForm
		a.form.errText = ""
		return &a, nil

	case key.Matches(keyMsg, keys.Down):
		if a.collector.MatchedFiles() > 0 && a.cursor < a.collector.MatchedFiles()-1 {
			a.cursor++
			a.scrollList()
			a.renderPreview()
		}
		return &a, nil

	case key.Matches(keyMsg, keys.Up):
		if a.cursor > 0 {
			a.cursor--
			a.scrollList()
			a.renderPreview()
		}
		return &a, nil

	case key.Matches(keyMsg, keys.Problems):
		a.showProblems = !a.showProblems
		a.propagateSize()
		return &a, nil
	}

	// Everything else scrolls the preview.
	var cmd tea.Cmd
	a.preview, cmd = a.preview.Update(msg)
	return &a, cmd
}

// problemsPanelLines is how many problems the toggled panel shows.
const problemsPanelLines = 5

func (a *App) propagateSize() {
	if a.width <= 0 || a.height <= 0 {
		return
	}
	a.form.setSize(a.width)

	mainHeight := a.height - 2 // header and status bar
	if a.showProblems {
		mainHeight -= problemsPanelLines + 3 // panel title and borders
	}
	inner := mainHeight - 2 // pane borders
	if inner < 3 {
		inner = 3
	}
	a.listHeight = inner
	a.listWidth = a.width/2 - 2
	if a.listWidth < 20 {
		a.listWidth = 20
	}
	a.previewWidth = a.width - a.width/2 - 2
	if a.previewWidth < 20 {
		a.previewWidth = 20
	}

	if !a.ready {
		a.preview = viewport.New(a.previewWidth, inner)
		a.ready = true
	} else {
		a.preview.Width = a.previewWidth
		a.preview.Height = inner
	}
	a.scrollList()
}

// scrollList keeps the cursor inside the visible window of the list.
func (a *App) scrollList() {
	if a.cursor < a.listTop {
		a.listTop = a.cursor
	}
	if a.listHeight > 0 && a.cursor >= a.listTop+a.listHeight {
		a.listTop = a.cursor - a.listHeight + 1
	}
	if a.listTop < 0 {
		a.listTop = 0
	}
}

func (a App) View() string {
	if !a.ready {
		return "loading..."
	}
	if a.st == stateForm {
		return a.formScreen()
	}
	return a.resultsScreen()
}

func (a App) formScreen() string {
	var b strings.Builder
	b.WriteString(a.header("new search"))
	b.WriteString("\n\n")
	b.WriteString(a.form.View())
	b.WriteString("\n")
	b.WriteString(statusBar("enter: run search", "tab:fields space:toggle esc:quit", a.width))
	return b.String()
}

func (a App) header(note string) string {
	return styleTitle.Render("searchex") + " " + styleMuted.Render(note)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
