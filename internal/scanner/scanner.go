package scanner

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrison/searchex/internal/models"
	"github.com/harrison/searchex/internal/pattern"
)

// Scanner reads files and applies a compiled pattern set to their raw
// bytes. A Scanner holds no per-file state and is safe for concurrent
// use by many workers.
type Scanner struct {
	set     *pattern.Set
	maxSize int64
}

// New returns a Scanner over the given pattern set. maxSize caps the
// size of files read into memory; zero or negative disables the cap.
func New(set *pattern.Set, maxSize int64) *Scanner {
	return &Scanner{set: set, maxSize: maxSize}
}

// Scan reads the file at path and matches every pattern against its
// content. Failures are reported inside the result rather than as a
// separate error value, so the caller always gets exactly one result
// per file. A result carries either hits or an error, never both.
//
// Files containing a NUL byte are flagged binary but still matched;
// offsets stay exact because matching never re-encodes the content.
func (s *Scanner) Scan(path string) models.FileResult {
	res := models.FileResult{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		res.Err = &models.ScanError{Kind: models.KindIOError, Message: err.Error()}
		return res
	}
	res.Size = info.Size()

	if s.maxSize > 0 && info.Size() > s.maxSize {
		res.Err = &models.ScanError{
			Kind:    models.KindSizeExceeded,
			Message: fmt.Sprintf("file size %d exceeds limit %d", info.Size(), s.maxSize),
		}
		return res
	}

	content, err := os.ReadFile(path)
	if err != nil {
		res.Err = &models.ScanError{Kind: models.KindIOError, Message: err.Error()}
		return res
	}

	res.Size = int64(len(content))
	res.IsBinary = bytes.IndexByte(content, 0) >= 0
	res.Hits = s.set.FindAll(content)
	return res
}

// MatchName checks the base name of path against the pattern set. On
// a match it returns a synthetic result attributing the hit to the
// name itself, with a single zero offset on line one. The file is not
// opened; its size comes from stat when available and is zero
// otherwise.
func (s *Scanner) MatchName(path string) (models.FileResult, bool) {
	if !s.set.MatchesName(filepath.Base(path)) {
		return models.FileResult{}, false
	}

	res := models.FileResult{
		Path: path,
		Hits: []models.PatternHit{{
			Pattern: models.NamePattern,
			Offsets: []int{0},
			Lines:   []int{1},
		}},
	}
	if info, err := os.Stat(path); err == nil {
		res.Size = info.Size()
	}
	return res, true
}
