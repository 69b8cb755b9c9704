package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/searchex/internal/config"
	"github.com/harrison/searchex/internal/display"
	"github.com/harrison/searchex/internal/engine"
	"github.com/harrison/searchex/internal/history"
	"github.com/harrison/searchex/internal/logger"
	"github.com/harrison/searchex/internal/models"
	"github.com/harrison/searchex/internal/pattern"
	"github.com/harrison/searchex/internal/report"
)

// ErrNoMatches reports a run that finished cleanly without a single
// matching file. main maps it to exit code 1.
var ErrNoMatches = errors.New("no matches found")

// progressInterval throttles the inline progress line on long runs.
const progressInterval = 500 * time.Millisecond

// NewSearchCommand creates the search command
func NewSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [flags] PATTERN...",
		Short: "Run one search and print the matches",
		Long: `Search a file or directory tree for one or more patterns and print
every match with a context snippet.

Patterns are literal by default. Defaults for the matching options come
from the config file and are overridden by flags.

Examples:
  # Two literal patterns under the current directory
  searchex search cat dog

  # Case-sensitive whole words in a specific tree
  searchex search --root ./src --case-sensitive --whole-word Handler

  # Regular expressions, matching file names too
  searchex search --regex --match-names 'err(or)?s?'

  # Record the run and write an HTML report
  searchex search --save --html report.html TODO

  # Keep running, re-searching whenever the tree changes
  searchex search --watch TODO`,
		Args: cobra.MinimumNArgs(1),
		RunE: searchCommand,
	}

	cmd.Flags().String("config", "", "Path to config file (default: <home>/config.yaml)")
	cmd.Flags().String("root", ".", "Root file or directory to search")
	cmd.Flags().Bool("case-sensitive", false, "Match case exactly")
	cmd.Flags().Bool("regex", false, "Treat patterns as regular expressions")
	cmd.Flags().Bool("whole-word", false, "Reject literal matches adjacent to word characters")
	cmd.Flags().Bool("match-names", false, "Also match against file names")
	cmd.Flags().Bool("hidden", false, "Include hidden files and directories")
	cmd.Flags().Int64("max-size", 0, "Per-file size cap in bytes (0 = unlimited)")
	cmd.Flags().Int("threads", 0, "Worker count (0 = min(8, NumCPU))")
	cmd.Flags().String("engine", "", `Matcher implementation: "optimized" or "reference"`)
	cmd.Flags().Bool("errors", false, "List per-file problems after the results")
	cmd.Flags().Bool("no-snippets", false, "Print header lines only, no context snippets")
	cmd.Flags().Bool("save", false, "Record the run in history")
	cmd.Flags().String("html", "", "Write an HTML report of this run to the given path")
	cmd.Flags().Bool("watch", false, "Stay alive and re-run when files change")
	cmd.Flags().String("log-level", "", "Log verbosity: trace, debug, info, warn or error")

	return cmd
}

// searchOptions carries the per-invocation switches that are not part
// of the search request itself.
type searchOptions struct {
	impl       pattern.Impl
	showErrors bool
	noSnippets bool
	save       bool
	htmlPath   string
}

// searchRun holds what one finished run produced.
type searchRun struct {
	runID     string
	collector *engine.Collector
	started   time.Time
	elapsed   time.Duration
}

// searchCommand implements the search command logic
func searchCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Build flag pointers for merge (only flags the user set)
	var caseSensitivePtr, regexPtr, wholeWordPtr, matchNamesPtr, hiddenPtr *bool
	if cmd.Flags().Changed("case-sensitive") {
		v, _ := cmd.Flags().GetBool("case-sensitive")
		caseSensitivePtr = &v
	}
	if cmd.Flags().Changed("regex") {
		v, _ := cmd.Flags().GetBool("regex")
		regexPtr = &v
	}
	if cmd.Flags().Changed("whole-word") {
		v, _ := cmd.Flags().GetBool("whole-word")
		wholeWordPtr = &v
	}
	if cmd.Flags().Changed("match-names") {
		v, _ := cmd.Flags().GetBool("match-names")
		matchNamesPtr = &v
	}
	if cmd.Flags().Changed("hidden") {
		v, _ := cmd.Flags().GetBool("hidden")
		hiddenPtr = &v
	}
	var maxSizePtr *int64
	if cmd.Flags().Changed("max-size") {
		v, _ := cmd.Flags().GetInt64("max-size")
		maxSizePtr = &v
	}
	var threadsPtr *int
	if cmd.Flags().Changed("threads") {
		v, _ := cmd.Flags().GetInt("threads")
		threadsPtr = &v
	}
	var logLevelPtr *string
	if cmd.Flags().Changed("log-level") {
		v, _ := cmd.Flags().GetString("log-level")
		logLevelPtr = &v
	}

	// Merge CLI flags with config (flags take precedence)
	cfg.MergeWithFlags(caseSensitivePtr, regexPtr, wholeWordPtr, matchNamesPtr, hiddenPtr, maxSizePtr, threadsPtr, logLevelPtr)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	root, _ := cmd.Flags().GetString("root")
	req := models.SearchRequest{
		Root:          root,
		Patterns:      args,
		CaseSensitive: cfg.Search.CaseSensitive,
		UseRegex:      cfg.Search.Regex,
		WholeWord:     cfg.Search.WholeWord,
		MatchNames:    cfg.Search.MatchNames,
		IncludeHidden: cfg.Search.IncludeHidden,
		MaxSizeBytes:  cfg.Search.MaxSizeBytes,
		Concurrency:   cfg.ResolveThreads(),
	}

	opts, err := buildSearchOptions(cmd)
	if err != nil {
		return err
	}

	logs, err := newRunLoggers(cfg)
	if err != nil {
		return err
	}
	defer logs.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watchFlag, _ := cmd.Flags().GetBool("watch"); watchFlag {
		return watchSearch(ctx, cmd, cfg, req, opts, logs)
	}

	res, err := executeSearch(ctx, cmd.OutOrStdout(), cfg, req, opts, logs)
	if err != nil {
		return err
	}
	if err := persistRun(ctx, cmd.OutOrStdout(), cfg, req, res, opts); err != nil {
		return err
	}

	if res.collector.MatchedFiles() == 0 {
		return ErrNoMatches
	}
	return nil
}

// buildSearchOptions reads the switches that stay outside the request.
func buildSearchOptions(cmd *cobra.Command) (searchOptions, error) {
	var opts searchOptions

	implFlag, _ := cmd.Flags().GetString("engine")
	switch implFlag {
	case "", string(pattern.ImplOptimized):
		opts.impl = pattern.ImplOptimized
	case string(pattern.ImplReference):
		opts.impl = pattern.ImplReference
	default:
		return opts, fmt.Errorf("unknown engine %q (want %q or %q)", implFlag, pattern.ImplOptimized, pattern.ImplReference)
	}

	opts.showErrors, _ = cmd.Flags().GetBool("errors")
	opts.noSnippets, _ = cmd.Flags().GetBool("no-snippets")
	opts.save, _ = cmd.Flags().GetBool("save")
	opts.htmlPath, _ = cmd.Flags().GetString("html")
	return opts, nil
}

// executeSearch runs the engine once and streams matches to out as
// aggregator batches arrive.
func executeSearch(ctx context.Context, out io.Writer, cfg *config.Config, req models.SearchRequest, opts searchOptions, logs *runLoggers) (*searchRun, error) {
	eng := engine.New(engine.Options{
		Impl:      opts.impl,
		QueueSize: cfg.Engine.QueueSize,
		Logger:    logs.all,
	})

	started := time.Now()
	run, err := eng.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	logs.all.LogRunStart(req.Root, len(req.Patterns))

	agg := engine.NewAggregator(run.Events(), run.Progress, engine.AggregatorOptions{
		FlushInterval: cfg.Engine.FlushInterval,
		ResultBatch:   cfg.Engine.ResultBatch,
		ProblemBatch:  cfg.Engine.ProblemBatch,
		BufferLimit:   cfg.Engine.BufferLimit,
		Policy:        engine.OverflowPolicy(cfg.Engine.Overflow),
	})

	color := false
	if f, ok := out.(*os.File); ok {
		color = display.IsTerminal(f)
	}
	renderer := display.NewRenderer(out, color, run.Patterns())
	renderer.Snippets = !opts.noSnippets

	col := engine.NewCollector()
	progressTTY := display.IsTerminal(os.Stderr)
	lastProgress := time.Now()
	for batch := range agg.Batches() {
		for _, res := range batch.Results {
			if len(res.Hits) > 0 {
				renderer.Result(res)
			}
		}
		col.Add(batch)

		if !batch.Final && progressTTY && time.Since(lastProgress) >= progressInterval {
			logs.console.LogProgress(batch.Progress)
			lastProgress = time.Now()
		}
	}
	elapsed := time.Since(started)

	if dropped := col.Dropped(); dropped > 0 {
		logs.all.LogWarn(fmt.Sprintf("aggregator dropped %d buffered event(s)", dropped))
	}
	logs.all.LogRunSummary(col.Progress(), col.MatchedFiles(), elapsed)

	if opts.showErrors && len(col.Problems()) > 0 {
		display.WarnProblems(col.Problems()).Display(out)
	}

	return &searchRun{runID: run.ID, collector: col, started: started, elapsed: elapsed}, nil
}

// persistRun records the run in history and writes the HTML report,
// as requested by flags or config.
func persistRun(ctx context.Context, out io.Writer, cfg *config.Config, req models.SearchRequest, res *searchRun, opts searchOptions) error {
	recording := opts.save || cfg.History.Enabled
	if !recording && opts.htmlPath == "" {
		return nil
	}

	col := res.collector
	rec := history.BuildRunRecord(res.runID, req, col.Progress(),
		col.MatchedFiles(), col.TotalMatches(), string(opts.impl), res.started, res.elapsed)
	files := make([]*history.FileRecord, 0, len(col.Results())+len(col.Problems()))
	for _, r := range col.Results() {
		files = append(files, history.BuildFileRecord(res.runID, r))
	}
	for _, p := range col.Problems() {
		files = append(files, history.BuildProblemRecord(res.runID, p))
	}

	if recording {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.RecordRun(ctx, rec, files); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		if cfg.History.MaxRuns > 0 {
			if _, err := store.PruneRuns(ctx, cfg.History.MaxRuns); err != nil {
				return fmt.Errorf("prune history: %w", err)
			}
		}
		fmt.Fprintf(out, "\nRun recorded: %s\n", shortRunID(res.runID))
	}

	if opts.htmlPath != "" {
		if err := report.WriteHTML(rec, files, opts.htmlPath); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(out, "Report written: %s\n", opts.htmlPath)
	}
	return nil
}

// loadConfig loads the config file named by --config, falling back to
// the one in the searchex home directory.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		cfg, err := config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		return cfg, nil
	}
	cfg, err := config.LoadConfigFromHome()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openStore opens the history database named by the config, creating
// it on first use.
func openStore(cfg *config.Config) (*history.Store, error) {
	path := cfg.History.DBPath
	if path == "" {
		var err error
		if path, err = config.GetHistoryDBPath(); err != nil {
			return nil, fmt.Errorf("resolve history path: %w", err)
		}
	}
	store, err := history.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// runLogger is the logging surface shared by the console and file
// loggers: the engine's leveled interface plus run lifecycle lines.
type runLogger interface {
	engine.Logger
	LogRunStart(root string, patternCount int)
	LogRunSummary(progress models.RunProgress, matched int, duration time.Duration)
}

// multiLogger implements runLogger by delegating to multiple loggers
type multiLogger struct {
	loggers []runLogger
}

func (ml *multiLogger) LogDebug(message string) {
	for _, l := range ml.loggers {
		l.LogDebug(message)
	}
}

func (ml *multiLogger) LogInfo(message string) {
	for _, l := range ml.loggers {
		l.LogInfo(message)
	}
}

func (ml *multiLogger) LogWarn(message string) {
	for _, l := range ml.loggers {
		l.LogWarn(message)
	}
}

func (ml *multiLogger) LogError(message string) {
	for _, l := range ml.loggers {
		l.LogError(message)
	}
}

// LogRunStart forwards to all loggers
func (ml *multiLogger) LogRunStart(root string, patternCount int) {
	for _, l := range ml.loggers {
		l.LogRunStart(root, patternCount)
	}
}

// LogRunSummary forwards to all loggers
func (ml *multiLogger) LogRunSummary(progress models.RunProgress, matched int, duration time.Duration) {
	for _, l := range ml.loggers {
		l.LogRunSummary(progress, matched, duration)
	}
}

// runLoggers bundles the console and optional file logger for one
// command invocation.
type runLoggers struct {
	console *logger.ConsoleLogger
	file    *logger.FileLogger
	all     *multiLogger
}

func newRunLoggers(cfg *config.Config) (*runLoggers, error) {
	console := logger.NewConsoleLogger(os.Stderr, cfg.Log.Level)
	rl := &runLoggers{
		console: console,
		all:     &multiLogger{loggers: []runLogger{console}},
	}

	if cfg.Log.FileEnabled {
		dir := cfg.Log.Dir
		if dir == "" {
			var err error
			if dir, err = config.GetLogsDir(); err != nil {
				return nil, fmt.Errorf("resolve log directory: %w", err)
			}
		}
		file, err := logger.NewFileLoggerWithLevel(dir, cfg.Log.Level)
		if err != nil {
			return nil, fmt.Errorf("create file logger: %w", err)
		}
		rl.file = file
		rl.all.loggers = append(rl.all.loggers, file)
	}
	return rl, nil
}

func (rl *runLoggers) Close() {
	if rl.file != nil {
		rl.file.Close()
	}
}
