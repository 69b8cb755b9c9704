package engine

import (
	"github.com/harrison/searchex/internal/models"
)

// Collector folds a run's batches into consumer-side state: the list
// of matched files, accumulated problems, and the latest progress
// snapshot. The engine reports every scanned file and leaves zero-hit
// filtering to the consumer; Collector applies that filter. It also
// merges the name-pass result and the content result for the same
// path into one FileResult, name hit first, so each file shows up
// once in lists, history and reports.
type Collector struct {
	results  []*models.FileResult
	byPath   map[string]int
	problems []models.Problem
	progress models.RunProgress
	dropped  int64
	matches  int
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{byPath: make(map[string]int)}
}

// Add folds one batch into the collector.
func (c *Collector) Add(b Batch) {
	for _, res := range b.Results {
		c.add(res)
	}
	c.problems = append(c.problems, b.Problems...)
	c.progress = b.Progress
	c.dropped = b.Dropped
}

func (c *Collector) add(res *models.FileResult) {
	if len(res.Hits) == 0 {
		return
	}

	i, seen := c.byPath[res.Path]
	if !seen {
		c.byPath[res.Path] = len(c.results)
		c.results = append(c.results, res)
		c.matches += res.MatchCount()
		return
	}

	// Second sighting of a path pairs the synthetic name result with
	// the content result. Arrival order is not guaranteed, so either
	// side of the pair may come first.
	prev := c.results[i]
	switch {
	case nameOnly(prev) && !nameOnly(res):
		merged := *res
		merged.Hits = append([]models.PatternHit{prev.Hits[0]}, res.Hits...)
		c.results[i] = &merged
		c.matches += res.MatchCount()
	case nameOnly(res) && !nameOnly(prev):
		merged := *prev
		merged.Hits = append([]models.PatternHit{res.Hits[0]}, prev.Hits...)
		c.results[i] = &merged
		c.matches += res.MatchCount()
	}
}

// nameOnly reports whether res carries nothing but the synthetic
// file-name hit.
func nameOnly(res *models.FileResult) bool {
	return len(res.Hits) == 1 && res.Hits[0].Pattern == models.NamePattern
}

// Results returns the matched files in arrival order. The slice is
// owned by the collector and must not be mutated.
func (c *Collector) Results() []*models.FileResult { return c.results }

// Problems returns every problem seen so far, in arrival order.
func (c *Collector) Problems() []models.Problem { return c.problems }

// Progress returns the snapshot carried by the most recent batch.
func (c *Collector) Progress() models.RunProgress { return c.progress }

// Dropped returns the cumulative dropped count from the most recent
// batch.
func (c *Collector) Dropped() int64 { return c.dropped }

// MatchedFiles returns the number of distinct files with at least one
// hit, name matches included.
func (c *Collector) MatchedFiles() int { return len(c.results) }

// TotalMatches returns the total number of recorded match offsets
// across all matched files, synthetic name hits included.
func (c *Collector) TotalMatches() int { return c.matches }
