package engine

import (
	"testing"

	"github.com/harrison/searchex/internal/models"
)

func contentResult(path string, offsets ...int) *models.FileResult {
	lines := make([]int, len(offsets))
	for i := range offsets {
		lines[i] = i + 1
	}
	return &models.FileResult{
		Path: path,
		Size: 100,
		Hits: []models.PatternHit{{Pattern: "cat", Offsets: offsets, Lines: lines}},
	}
}

func nameResult(path string) *models.FileResult {
	return &models.FileResult{
		Path: path,
		Size: 42,
		Hits: []models.PatternHit{{
			Pattern: models.NamePattern,
			Offsets: []int{0},
			Lines:   []int{1},
		}},
	}
}

func TestCollectorFiltersZeroHitResults(t *testing.T) {
	c := NewCollector()
	c.Add(Batch{Results: []*models.FileResult{
		{Path: "clean.txt", Size: 10},
		contentResult("hit.txt", 3, 17),
	}})

	if c.MatchedFiles() != 1 {
		t.Fatalf("MatchedFiles() = %d, want 1", c.MatchedFiles())
	}
	if c.Results()[0].Path != "hit.txt" {
		t.Errorf("kept %q, want hit.txt", c.Results()[0].Path)
	}
	if c.TotalMatches() != 2 {
		t.Errorf("TotalMatches() = %d, want 2", c.TotalMatches())
	}
}

func TestCollectorMergesNameThenContent(t *testing.T) {
	c := NewCollector()
	c.Add(Batch{Results: []*models.FileResult{nameResult("cat.txt")}})
	c.Add(Batch{Results: []*models.FileResult{contentResult("cat.txt", 5, 9, 20)}})

	if c.MatchedFiles() != 1 {
		t.Fatalf("MatchedFiles() = %d, want 1", c.MatchedFiles())
	}
	res := c.Results()[0]
	if len(res.Hits) != 2 {
		t.Fatalf("merged result has %d hit entries, want 2", len(res.Hits))
	}
	if res.Hits[0].Pattern != models.NamePattern {
		t.Errorf("Hits[0].Pattern = %q, want the name hit first", res.Hits[0].Pattern)
	}
	if res.Hits[1].Pattern != "cat" {
		t.Errorf("Hits[1].Pattern = %q, want cat", res.Hits[1].Pattern)
	}
	if res.Size != 100 {
		t.Errorf("merged Size = %d, want the content result's 100", res.Size)
	}
	if c.TotalMatches() != 4 {
		t.Errorf("TotalMatches() = %d, want 4 (3 content + 1 name)", c.TotalMatches())
	}
}

func TestCollectorMergesContentThenName(t *testing.T) {
	c := NewCollector()
	c.Add(Batch{Results: []*models.FileResult{
		contentResult("cat.txt", 5),
		nameResult("cat.txt"),
	}})

	if c.MatchedFiles() != 1 {
		t.Fatalf("MatchedFiles() = %d, want 1", c.MatchedFiles())
	}
	res := c.Results()[0]
	if len(res.Hits) != 2 || res.Hits[0].Pattern != models.NamePattern {
		t.Fatalf("merge out of order: hits = %+v", res.Hits)
	}
	if c.TotalMatches() != 2 {
		t.Errorf("TotalMatches() = %d, want 2", c.TotalMatches())
	}
}

func TestCollectorKeepsNameOnlyResult(t *testing.T) {
	c := NewCollector()
	c.Add(Batch{Results: []*models.FileResult{nameResult("cat.bin")}})

	if c.MatchedFiles() != 1 {
		t.Fatalf("MatchedFiles() = %d, want 1", c.MatchedFiles())
	}
	if c.TotalMatches() != 1 {
		t.Errorf("TotalMatches() = %d, want 1", c.TotalMatches())
	}
	if c.Results()[0].Size != 42 {
		t.Errorf("Size = %d, want 42", c.Results()[0].Size)
	}
}

func TestCollectorAccumulatesProblemsAndProgress(t *testing.T) {
	c := NewCollector()
	c.Add(Batch{
		Problems: []models.Problem{{Path: "a", Message: "denied"}},
		Progress: models.RunProgress{FilesTotal: 10, FilesDone: 4},
	})
	c.Add(Batch{
		Problems: []models.Problem{{Path: "b", Message: "gone"}},
		Progress: models.RunProgress{FilesTotal: 10, FilesDone: 10},
		Dropped:  3,
		Final:    true,
	})

	if len(c.Problems()) != 2 {
		t.Fatalf("Problems() has %d entries, want 2", len(c.Problems()))
	}
	if c.Progress().FilesDone != 10 {
		t.Errorf("Progress().FilesDone = %d, want the latest snapshot 10", c.Progress().FilesDone)
	}
	if c.Dropped() != 3 {
		t.Errorf("Dropped() = %d, want 3", c.Dropped())
	}
}

func TestCollectorDistinctPathsStaySeparate(t *testing.T) {
	c := NewCollector()
	c.Add(Batch{Results: []*models.FileResult{
		contentResult("a.txt", 1),
		contentResult("b.txt", 2, 3),
	}})

	if c.MatchedFiles() != 2 {
		t.Fatalf("MatchedFiles() = %d, want 2", c.MatchedFiles())
	}
	if c.TotalMatches() != 3 {
		t.Errorf("TotalMatches() = %d, want 3", c.TotalMatches())
	}
}
