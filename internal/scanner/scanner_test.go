package scanner

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/harrison/searchex/internal/models"
	"github.com/harrison/searchex/internal/pattern"
)

func compile(t *testing.T, patterns []string, opts pattern.Options) *pattern.Set {
	t.Helper()
	set, err := pattern.Compile(patterns, opts)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return set
}

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestScanReportsHits(t *testing.T) {
	dir := t.TempDir()
	content := []byte("the cat sat\ncat again\n")
	path := writeFile(t, dir, "a.txt", content)

	s := New(compile(t, []string{"cat"}, pattern.Options{}), 0)
	res := s.Scan(path)

	if res.Err != nil {
		t.Fatalf("Scan() error = %v", res.Err)
	}
	if res.IsBinary {
		t.Error("IsBinary = true for plain text")
	}
	if res.Size != int64(len(content)) {
		t.Errorf("Size = %d, want %d", res.Size, len(content))
	}
	want := []models.PatternHit{
		{Pattern: "cat", Offsets: []int{4, 12}, Lines: []int{1, 2}},
	}
	if !reflect.DeepEqual(res.Hits, want) {
		t.Errorf("Hits = %v, want %v", res.Hits, want)
	}
}

func TestScanFlagsBinaryButStillMatches(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "blob.bin", []byte("abc\x00cat\x00"))

	s := New(compile(t, []string{"cat"}, pattern.Options{}), 0)
	res := s.Scan(path)

	if res.Err != nil {
		t.Fatalf("Scan() error = %v", res.Err)
	}
	if !res.IsBinary {
		t.Error("IsBinary = false for content with a NUL byte")
	}
	if res.MatchCount() != 1 || res.Hits[0].Offsets[0] != 4 {
		t.Errorf("Hits = %v, want one hit at offset 4", res.Hits)
	}
}

func TestScanSizeCap(t *testing.T) {
	dir := t.TempDir()
	content := []byte("0123456789")
	path := writeFile(t, dir, "big.txt", content)

	s := New(compile(t, []string{"345"}, pattern.Options{}), 4)
	res := s.Scan(path)

	if res.Err == nil {
		t.Fatal("Scan() error = nil, want size cap failure")
	}
	if res.Err.Kind != models.KindSizeExceeded {
		t.Errorf("Err.Kind = %q, want %q", res.Err.Kind, models.KindSizeExceeded)
	}
	if res.Hits != nil {
		t.Errorf("Hits = %v, want none alongside an error", res.Hits)
	}
	if res.Size != int64(len(content)) {
		t.Errorf("Size = %d, want stat size %d", res.Size, len(content))
	}
}

func TestScanMissingFile(t *testing.T) {
	s := New(compile(t, []string{"x"}, pattern.Options{}), 0)
	res := s.Scan(filepath.Join(t.TempDir(), "missing.txt"))

	if res.Err == nil {
		t.Fatal("Scan() error = nil, want IO failure")
	}
	if res.Err.Kind != models.KindIOError {
		t.Errorf("Err.Kind = %q, want %q", res.Err.Kind, models.KindIOError)
	}
	if res.Hits != nil {
		t.Errorf("Hits = %v, want none alongside an error", res.Hits)
	}
}

func TestScanEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.txt", nil)

	s := New(compile(t, []string{"cat"}, pattern.Options{}), 0)
	res := s.Scan(path)

	if res.Err != nil {
		t.Fatalf("Scan() error = %v", res.Err)
	}
	if res.Size != 0 || res.IsBinary || res.Hits != nil {
		t.Errorf("empty file result = %+v, want zero size, text, no hits", res)
	}
}

func TestMatchName(t *testing.T) {
	dir := t.TempDir()
	content := []byte("irrelevant body\n")
	path := writeFile(t, dir, "quarterly_report.txt", content)

	s := New(compile(t, []string{"report"}, pattern.Options{}), 0)
	res, ok := s.MatchName(path)
	if !ok {
		t.Fatal("MatchName() ok = false, want a name hit")
	}
	want := []models.PatternHit{
		{Pattern: models.NamePattern, Offsets: []int{0}, Lines: []int{1}},
	}
	if !reflect.DeepEqual(res.Hits, want) {
		t.Errorf("Hits = %v, want %v", res.Hits, want)
	}
	if res.Size != int64(len(content)) {
		t.Errorf("Size = %d, want stat size %d", res.Size, len(content))
	}

	if _, ok := s.MatchName(filepath.Join(dir, "notes.txt")); ok {
		t.Error("MatchName() ok = true for a non-matching name")
	}
}

func TestMatchNameWithoutStat(t *testing.T) {
	s := New(compile(t, []string{"report"}, pattern.Options{}), 0)
	res, ok := s.MatchName(filepath.Join(t.TempDir(), "gone", "old_report.txt"))
	if !ok {
		t.Fatal("MatchName() ok = false, want a name hit for a matching name")
	}
	if res.Size != 0 {
		t.Errorf("Size = %d, want 0 when stat fails", res.Size)
	}
}
