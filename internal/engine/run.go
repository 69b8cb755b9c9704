package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/harrison/searchex/internal/models"
	"github.com/harrison/searchex/internal/pattern"
	"github.com/harrison/searchex/internal/scanner"
	"github.com/harrison/searchex/internal/walker"
)

// Run is a single in-flight search. Events yields its event stream;
// Cancel stops dispatching further files while letting started scans
// finish and report.
type Run struct {
	// ID uniquely identifies the run, for logs and history records.
	ID string

	req   models.SearchRequest
	set   *pattern.Set
	scan  *scanner.Scanner
	queue int
	log   Logger

	events chan models.Event

	cancelOnce sync.Once
	cancelCh   chan struct{}
	cancelled  atomic.Bool

	filesTotal atomic.Int64
	filesDone  atomic.Int64
	problems   atomic.Int64
}

// Events returns the run's event stream. Exactly one AllDone event is
// delivered, always last, and the channel closes after it. Consumers
// must drain the channel; an abandoned reader stalls the run.
func (r *Run) Events() <-chan models.Event { return r.events }

// Patterns returns the compiled pattern set the run scans with, so
// renderers can resolve match spans without recompiling.
func (r *Run) Patterns() *pattern.Set { return r.set }

// Cancel stops dispatching queued files. Scans already handed to a
// worker run to completion and still produce their terminal events;
// AllDone still fires once the in-flight work drains. Safe to call
// any number of times from any goroutine.
func (r *Run) Cancel() {
	r.cancelOnce.Do(func() {
		r.cancelled.Store(true)
		close(r.cancelCh)
		if r.log != nil {
			r.log.LogWarn(fmt.Sprintf("run %s: cancel requested", r.ID))
		}
	})
}

// Progress returns a point-in-time snapshot of the run counters.
func (r *Run) Progress() models.RunProgress {
	return models.RunProgress{
		FilesTotal: r.filesTotal.Load(),
		FilesDone:  r.filesDone.Load(),
		Problems:   r.problems.Load(),
		Cancelled:  r.cancelled.Load(),
	}
}

// run drives the whole search on its own goroutine: enumeration, the
// optional name pass, the worker pool, and the terminal event.
func (r *Run) run() {
	defer close(r.events)

	enum, err := walker.Enumerate(r.req.Root, walker.Options{IncludeHidden: r.req.IncludeHidden})
	if err != nil {
		r.problems.Add(1)
		r.events <- models.Event{Kind: models.EventProblem, Path: r.req.Root, Message: err.Error()}
		r.events <- models.Event{Kind: models.EventAllDone}
		return
	}

	for _, p := range enum.Errors {
		r.problems.Add(1)
		r.events <- models.Event{Kind: models.EventProblem, Path: p.Path, Message: p.Message}
	}

	r.filesTotal.Store(int64(len(enum.Files)))
	if r.log != nil {
		r.log.LogDebug(fmt.Sprintf("run %s: %d file(s) enumerated", r.ID, len(enum.Files)))
	}

	// Name hits ride the normal result stream but are not scan tasks:
	// they get no FileDone and do not advance the done counter. Every
	// enumerated file is still content-scanned below.
	if r.req.MatchNames {
		for _, path := range enum.Files {
			if r.cancelled.Load() {
				break
			}
			if res, ok := r.scan.MatchName(path); ok {
				res := res
				r.events <- models.Event{Kind: models.EventResult, Result: &res, Path: path}
			}
		}
	}

	r.runPool(enum.Files)

	r.events <- models.Event{Kind: models.EventAllDone}
	if r.log != nil {
		r.log.LogDebug(fmt.Sprintf("run %s: done, %d/%d file(s), %d problem(s)",
			r.ID, r.filesDone.Load(), r.filesTotal.Load(), r.problems.Load()))
	}
}

// runPool fans files out to the workers and funnels their results
// through a single collector, which owns the progress counters. It
// returns once every dispatched file has produced its events.
func (r *Run) runPool(files []string) {
	workers := r.req.Concurrency
	if workers <= 0 {
		workers = 1
	}
	queueSize := r.queue
	if queueSize <= 0 {
		queueSize = workers
	}

	jobs := make(chan string, queueSize)
	results := make(chan models.FileResult, queueSize)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- r.scanOne(path)
			}
		}()
	}

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for res := range results {
			res := res
			if res.Err != nil {
				r.problems.Add(1)
				r.events <- models.Event{Kind: models.EventProblem, Path: res.Path, Message: res.Err.Message}
			} else {
				r.events <- models.Event{Kind: models.EventResult, Result: &res, Path: res.Path}
			}
			r.filesDone.Add(1)
			r.events <- models.Event{Kind: models.EventFileDone, Path: res.Path}
		}
	}()

dispatch:
	for _, path := range files {
		if r.cancelled.Load() {
			break
		}
		select {
		case jobs <- path:
		case <-r.cancelCh:
			break dispatch
		}
	}
	close(jobs)

	wg.Wait()
	close(results)
	<-collectorDone
}

// scanOne shields the pool from a panicking scan. A recovered panic
// degrades to an IO error result so the file still gets its terminal
// event and the worker stays alive.
func (r *Run) scanOne(path string) (res models.FileResult) {
	defer func() {
		if rec := recover(); rec != nil {
			if r.log != nil {
				r.log.LogError(fmt.Sprintf("run %s: scan %s panicked: %v", r.ID, path, rec))
			}
			res = models.FileResult{
				Path: path,
				Err:  &models.ScanError{Kind: models.KindIOError, Message: fmt.Sprintf("scan failure: %v", rec)},
			}
		}
	}()
	return r.scan.Scan(path)
}
