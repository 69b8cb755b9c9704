package display

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harrison/searchex/internal/models"
	"github.com/harrison/searchex/internal/pattern"
)

// writeFixture creates a file and returns a FileResult built by running
// the set against its content, the way a scan would.
func writeFixture(t *testing.T, name string, content []byte, set *pattern.Set) *models.FileResult {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return &models.FileResult{
		Path:     path,
		IsBinary: bytes.IndexByte(content, 0) >= 0,
		Size:     int64(len(content)),
		Hits:     set.FindAll(content),
	}
}

func TestRendererTextResult(t *testing.T) {
	set, err := pattern.Compile([]string{"alpha"}, pattern.Options{CaseSensitive: true})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	res := writeFixture(t, "notes.txt", []byte("alpha beta\ngamma alpha\n"), set)

	var buf bytes.Buffer
	NewRenderer(&buf, false, set).Result(res)

	want := res.Path + " (2 matches, 23 B)\n" +
		"  1: «alpha» beta\n" +
		"  2: gamma «alpha»\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRendererBinaryResult(t *testing.T) {
	set, err := pattern.Compile([]string{"cat"}, pattern.Options{CaseSensitive: true})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	content := []byte{0x89, 'P', 'N', 'G', 0x00, 'c', 'a', 't', 0x0D, 0x0A}
	res := writeFixture(t, "blob.bin", content, set)

	var buf bytes.Buffer
	NewRenderer(&buf, false, set).Result(res)

	want := res.Path + " (1 match, 10 B) [binary]\n" +
		"  @0x000005: 89 50 4E 47 00 «63 61 74» 0D 0A\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRendererNameOnlyResult(t *testing.T) {
	res := &models.FileResult{
		Path: "report_a.txt",
		Size: 120,
		Hits: []models.PatternHit{
			{Pattern: models.NamePattern, Offsets: []int{0}, Lines: []int{1}},
		},
	}

	var buf bytes.Buffer
	NewRenderer(&buf, false, nil).Result(res)

	want := "report_a.txt (name match, 120 B)\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRendererLabelsMultiplePatterns(t *testing.T) {
	set, err := pattern.Compile([]string{"alpha", "beta"}, pattern.Options{CaseSensitive: true})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	res := writeFixture(t, "notes.txt", []byte("alpha beta\n"), set)

	var buf bytes.Buffer
	NewRenderer(&buf, false, set).Result(res)

	out := buf.String()
	if !strings.Contains(out, "pattern \"alpha\":") {
		t.Errorf("output missing alpha label: %q", out)
	}
	if !strings.Contains(out, "pattern \"beta\":") {
		t.Errorf("output missing beta label: %q", out)
	}
}

func TestRendererColor(t *testing.T) {
	set, err := pattern.Compile([]string{"alpha"}, pattern.Options{CaseSensitive: true})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	res := writeFixture(t, "notes.txt", []byte("alpha\n"), set)

	var buf bytes.Buffer
	NewRenderer(&buf, true, set).Result(res)

	out := buf.String()
	if !strings.Contains(out, "\x1b[36m") {
		t.Error("expected cyan escape for the path")
	}
	if !strings.Contains(out, "\x1b[33m«alpha»\x1b[0m") {
		t.Errorf("expected yellow highlighted match, got %q", out)
	}
}

func TestRendererUnreadableFile(t *testing.T) {
	res := &models.FileResult{
		Path: filepath.Join(t.TempDir(), "gone.txt"),
		Size: 9,
		Hits: []models.PatternHit{
			{Pattern: "alpha", Offsets: []int{0}, Lines: []int{1}},
		},
	}

	var buf bytes.Buffer
	NewRenderer(&buf, false, nil).Result(res)

	out := buf.String()
	if !strings.Contains(out, "(1 match, 9 B)") {
		t.Errorf("header missing from %q", out)
	}
	if !strings.Contains(out, "file no longer readable") {
		t.Errorf("expected unreadable note in %q", out)
	}
}

func TestHumanBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{5 * 1048576, "5.0 MB"},
		{1073741824, "1.0 GB"},
	}
	for _, tt := range tests {
		if got := HumanBytes(tt.n); got != tt.want {
			t.Errorf("HumanBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
