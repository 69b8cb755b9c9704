package engine

import (
	"time"

	"github.com/harrison/searchex/internal/models"
)

// Aggregator defaults. The cadence and caps bound how much work a
// consumer is handed per tick no matter how fast workers produce.
const (
	DefaultFlushInterval = 30 * time.Millisecond
	DefaultResultBatch   = 12
	DefaultProblemBatch  = 50
	DefaultBufferLimit   = 4096
)

// OverflowPolicy selects what happens when an aggregator buffer is
// full and events keep arriving.
type OverflowPolicy string

const (
	// OverflowBlock stops draining the event stream until a flush
	// makes room, pushing backpressure through the event channel to
	// the workers.
	OverflowBlock OverflowPolicy = "block"

	// OverflowDropOldest keeps draining and discards the oldest
	// buffered entry to admit the newest, surfacing a cumulative
	// dropped count on every batch.
	OverflowDropOldest OverflowPolicy = "drop-oldest"
)

// AggregatorOptions tunes batching cadence and buffering.
type AggregatorOptions struct {
	// FlushInterval is the pacing tick. Zero defaults to 30ms.
	FlushInterval time.Duration

	// ResultBatch caps results released per batch. Zero defaults to 12.
	ResultBatch int

	// ProblemBatch caps problems released per batch. Zero defaults to 50.
	ProblemBatch int

	// BufferLimit bounds the result and problem buffers, each. Zero
	// defaults to 4096.
	BufferLimit int

	// Policy picks the overflow behavior. Empty defaults to
	// OverflowBlock.
	Policy OverflowPolicy
}

// Batch is one paced slice of a run's event stream.
type Batch struct {
	Results  []*models.FileResult
	Problems []models.Problem

	// Progress snapshots the run counters at flush time.
	Progress models.RunProgress

	// Dropped is the cumulative number of buffered entries discarded
	// under OverflowDropOldest.
	Dropped int64

	// Final marks the last batch of the run. The batch channel closes
	// after it.
	Final bool
}

// Aggregator converts a run's raw event stream into paced batches so
// consumers render at a bounded rate. It is the single consumer the
// event stream expects; nothing else may read from the same channel.
type Aggregator struct {
	events   <-chan models.Event
	progress func() models.RunProgress
	opts     AggregatorOptions
	out      chan Batch
}

// NewAggregator starts consuming events immediately and returns the
// aggregator. progress may be nil. No batch is emitted before the
// first tick; empty ticks emit nothing. Once the stream ends the
// remaining buffer is released at full speed in cap-sized batches,
// ending with exactly one batch that has Final set, after which
// Batches closes.
func NewAggregator(events <-chan models.Event, progress func() models.RunProgress, opts AggregatorOptions) *Aggregator {
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = DefaultFlushInterval
	}
	if opts.ResultBatch <= 0 {
		opts.ResultBatch = DefaultResultBatch
	}
	if opts.ProblemBatch <= 0 {
		opts.ProblemBatch = DefaultProblemBatch
	}
	if opts.BufferLimit <= 0 {
		opts.BufferLimit = DefaultBufferLimit
	}
	if opts.Policy == "" {
		opts.Policy = OverflowBlock
	}

	a := &Aggregator{
		events:   events,
		progress: progress,
		opts:     opts,
		out:      make(chan Batch, 1),
	}
	go a.loop()
	return a
}

// Batches returns the paced output stream.
func (a *Aggregator) Batches() <-chan Batch { return a.out }

func (a *Aggregator) loop() {
	defer close(a.out)

	ticker := time.NewTicker(a.opts.FlushInterval)
	defer ticker.Stop()

	var (
		results  []*models.FileResult
		problems []models.Problem
		dropped  int64
	)

	running := true
	for running {
		// Under the blocking policy a full buffer suspends intake
		// until the next flush makes room.
		intake := a.events
		if a.opts.Policy == OverflowBlock &&
			(len(results) >= a.opts.BufferLimit || len(problems) >= a.opts.BufferLimit) {
			intake = nil
		}

		select {
		case ev, ok := <-intake:
			if !ok {
				running = false
				break
			}
			switch ev.Kind {
			case models.EventResult:
				if len(results) >= a.opts.BufferLimit {
					over := len(results) - a.opts.BufferLimit + 1
					results = append(results[:0], results[over:]...)
					dropped += int64(over)
				}
				results = append(results, ev.Result)
			case models.EventProblem:
				if len(problems) >= a.opts.BufferLimit {
					over := len(problems) - a.opts.BufferLimit + 1
					problems = append(problems[:0], problems[over:]...)
					dropped += int64(over)
				}
				problems = append(problems, models.Problem{Path: ev.Path, Message: ev.Message})
			case models.EventFileDone:
				// Progress reaches batches through the snapshot
				// callback, not through buffered events.
			case models.EventAllDone:
				running = false
			}
		case <-ticker.C:
			if len(results) == 0 && len(problems) == 0 {
				continue
			}
			var b Batch
			b, results, problems = a.take(results, problems, dropped, false)
			a.out <- b
		}
	}

	for len(results) > a.opts.ResultBatch || len(problems) > a.opts.ProblemBatch {
		var b Batch
		b, results, problems = a.take(results, problems, dropped, false)
		a.out <- b
	}
	final, _, _ := a.take(results, problems, dropped, true)
	a.out <- final
}

// take builds one cap-sized batch from the buffer heads and returns
// the remainders. Batch contents are copied out, so later buffer
// compaction cannot touch an emitted batch.
func (a *Aggregator) take(results []*models.FileResult, problems []models.Problem, dropped int64, final bool) (Batch, []*models.FileResult, []models.Problem) {
	nr := min(len(results), a.opts.ResultBatch)
	np := min(len(problems), a.opts.ProblemBatch)

	b := Batch{
		Results:  append([]*models.FileResult(nil), results[:nr]...),
		Problems: append([]models.Problem(nil), problems[:np]...),
		Dropped:  dropped,
		Final:    final,
	}
	if a.progress != nil {
		b.Progress = a.progress()
	}
	return b, results[nr:], problems[np:]
}
