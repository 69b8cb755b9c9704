package models

import "sort"

// ErrorKind classifies scan failures
type ErrorKind string

const (
	KindIOError        ErrorKind = "IO_ERROR"        // Read, stat or walk failure for one file
	KindSizeExceeded   ErrorKind = "SIZE_EXCEEDED"   // File size over the configured cap
	KindInvalidPattern ErrorKind = "INVALID_PATTERN" // Pattern rejected at compile time
)

// NamePattern labels synthetic hits produced by file-name matching.
const NamePattern = "(name)"

// ScanError describes why a file (or a whole run, for invalid patterns)
// could not be scanned.
type ScanError struct {
	Kind    ErrorKind // Failure classification
	Message string    // Human-readable cause
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	return e.Message
}

// PatternHit records every match of one pattern within one file.
// Offsets and Lines are parallel arrays: Lines[i] is the 1-based line
// number of the match starting at byte Offsets[i]. Both are strictly
// ascending.
type PatternHit struct {
	Pattern string // The pattern text as requested
	Offsets []int  // Byte offsets of match starts, ascending
	Lines   []int  // 1-based line numbers, same length as Offsets
}

// FileResult is the outcome of scanning a single file. Err and Hits are
// mutually exclusive: a file that failed to scan never reports hits.
type FileResult struct {
	Path     string       // File path as enumerated
	IsBinary bool         // True when the content contains a NUL byte
	Err      *ScanError   // Per-file failure, nil on success
	Size     int64        // File size in bytes, populated even on error when known
	Hits     []PatternHit // One entry per pattern with >= 1 match
}

// MatchCount returns the total number of matches across all patterns.
func (r FileResult) MatchCount() int {
	total := 0
	for _, h := range r.Hits {
		total += len(h.Offsets)
	}
	return total
}

// UniqueLines returns the sorted set of line numbers that contain at
// least one match, across all patterns.
func (r FileResult) UniqueLines() []int {
	seen := make(map[int]bool)
	for _, h := range r.Hits {
		for _, ln := range h.Lines {
			seen[ln] = true
		}
	}
	lines := make([]int, 0, len(seen))
	for ln := range seen {
		lines = append(lines, ln)
	}
	sort.Ints(lines)
	return lines
}

// FirstHit returns the pattern and byte offset of the first recorded
// match, in pattern order. ok is false when the file has no hits.
func (r FileResult) FirstHit() (pattern string, offset int, ok bool) {
	for _, h := range r.Hits {
		if len(h.Offsets) > 0 {
			return h.Pattern, h.Offsets[0], true
		}
	}
	return "", 0, false
}
