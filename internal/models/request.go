package models

import (
	"fmt"
	"strings"
)

// SearchRequest describes a single search run. It is built by the caller,
// validated once, and treated as immutable after the run starts.
type SearchRequest struct {
	// Root is the file or directory to search
	Root string

	// Patterns is the ordered list of pattern strings. Duplicates are
	// allowed and order is preserved.
	Patterns []string

	// CaseSensitive selects exact comparison instead of case-folded
	CaseSensitive bool

	// UseRegex treats patterns as regular expressions instead of literals
	UseRegex bool

	// WholeWord enforces word boundaries in literal mode only
	WholeWord bool

	// MatchNames enables the file-name fast path
	MatchNames bool

	// IncludeHidden traverses and reports hidden entries
	IncludeHidden bool

	// MaxSizeBytes caps per-file content size (0 = unlimited)
	MaxSizeBytes int64

	// Concurrency is the worker count (>= 1)
	Concurrency int
}

// Validate checks that the request is well formed.
// It does not touch the filesystem or compile patterns.
func (r SearchRequest) Validate() error {
	if strings.TrimSpace(r.Root) == "" {
		return fmt.Errorf("root path cannot be empty")
	}
	if len(r.Patterns) == 0 {
		return fmt.Errorf("at least one pattern is required")
	}
	for i, p := range r.Patterns {
		if p == "" {
			return fmt.Errorf("pattern %d is empty", i+1)
		}
	}
	if r.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1, got %d", r.Concurrency)
	}
	if r.MaxSizeBytes < 0 {
		return fmt.Errorf("max_size_bytes must be >= 0, got %d", r.MaxSizeBytes)
	}
	return nil
}
