// Package engine runs searches: it enumerates files under a root,
// fans them out to a bounded worker pool, and publishes per-file
// results on an event stream that an aggregator paces for consumers.
package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/harrison/searchex/internal/models"
	"github.com/harrison/searchex/internal/pattern"
	"github.com/harrison/searchex/internal/scanner"
)

// defaultEventBuffer sizes the run event channel when Options does
// not say otherwise.
const defaultEventBuffer = 256

// Logger defines the interface for logging run progress and
// diagnostics. The logger parameter is optional and can be nil.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
}

// Options tunes engine internals that individual requests do not
// control.
type Options struct {
	// Impl selects the matching strategy for compiled pattern sets.
	// Empty defaults to pattern.ImplOptimized.
	Impl pattern.Impl

	// QueueSize bounds the dispatch queue feeding the workers. Zero
	// defaults to the request's concurrency.
	QueueSize int

	// EventBuffer sizes the channel returned by Run.Events. Zero
	// defaults to 256.
	EventBuffer int

	// Logger receives progress and diagnostic messages.
	Logger Logger
}

// Engine builds runs out of search requests.
type Engine struct {
	opts Options
}

// New constructs an Engine with the given options.
func New(opts Options) *Engine {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = defaultEventBuffer
	}
	return &Engine{opts: opts}
}

// Start validates req, compiles its patterns, and launches a run.
// Validation and compilation failures surface here, before any event
// is emitted; pattern failures come back as a *models.ScanError with
// kind INVALID_PATTERN, an unusable root as kind IO_ERROR.
//
// Cancelling ctx cancels the run the same way Run.Cancel does: queued
// files stop being dispatched, in-flight scans finish and report.
func (e *Engine) Start(ctx context.Context, req models.SearchRequest) (*Run, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	set, err := pattern.Compile(req.Patterns, pattern.Options{
		CaseSensitive: req.CaseSensitive,
		Regex:         req.UseRegex,
		WholeWord:     req.WholeWord,
		Impl:          e.opts.Impl,
	})
	if err != nil {
		return nil, &models.ScanError{Kind: models.KindInvalidPattern, Message: err.Error()}
	}

	if _, err := os.Stat(req.Root); err != nil {
		return nil, &models.ScanError{Kind: models.KindIOError, Message: fmt.Sprintf("access root: %v", err)}
	}

	r := &Run{
		ID:       uuid.NewString(),
		req:      req,
		set:      set,
		scan:     scanner.New(set, req.MaxSizeBytes),
		queue:    e.opts.QueueSize,
		log:      e.opts.Logger,
		events:   make(chan models.Event, e.opts.EventBuffer),
		cancelCh: make(chan struct{}),
	}

	if r.log != nil {
		r.log.LogDebug(fmt.Sprintf("run %s: %d pattern(s) under %s", r.ID, set.Len(), req.Root))
	}

	finished := make(chan struct{})
	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				r.Cancel()
			case <-finished:
			}
		}()
	}

	go func() {
		defer close(finished)
		r.run()
	}()

	return r, nil
}
