package pattern

import (
	"fmt"
	"regexp"

	"github.com/harrison/searchex/internal/models"
)

// Impl selects the matching strategy used by a Set. Both strategies
// produce identical hits; they differ only in how line numbers are
// computed and how case folding is amortized.
type Impl string

const (
	// ImplOptimized builds a newline offset index once per file and
	// resolves line numbers by binary search. Case folding of the
	// haystack happens once, shared across all literal patterns.
	ImplOptimized Impl = "optimized"

	// ImplReference recounts newlines for every hit and folds the
	// haystack per pattern. Slower but structurally simple; kept as
	// the comparison baseline for the optimized strategy.
	ImplReference Impl = "reference"
)

// Options controls how a Set interprets its patterns.
type Options struct {
	// CaseSensitive disables case folding. When false, literal
	// patterns match ASCII case-insensitively and regex patterns are
	// compiled with the (?i) flag.
	CaseSensitive bool

	// Regex compiles every pattern as a regular expression instead of
	// a literal byte sequence.
	Regex bool

	// WholeWord restricts literal hits to those not flanked by word
	// characters ([A-Za-z0-9_]). Ignored for regex patterns, which
	// express boundaries themselves.
	WholeWord bool

	// Impl picks the matching strategy. Empty defaults to ImplOptimized.
	Impl Impl
}

// compiled is a single prepared pattern. Exactly one of re or needle
// is set depending on the regex mode of the owning Set.
type compiled struct {
	source string
	re     *regexp.Regexp
	needle []byte
}

// Set holds a group of patterns compiled once and applied to many
// files. A Set is immutable after Compile and safe for concurrent use.
type Set struct {
	patterns  []compiled
	caseFold  bool
	regex     bool
	wholeWord bool
	impl      Impl
}

// Compile prepares the given patterns under opts. In regex mode every
// pattern must be a valid expression; the first failure aborts the
// whole set. In literal mode compilation cannot fail beyond the empty
// checks performed by request validation.
func Compile(patterns []string, opts Options) (*Set, error) {
	impl := opts.Impl
	if impl == "" {
		impl = ImplOptimized
	}

	s := &Set{
		patterns:  make([]compiled, 0, len(patterns)),
		caseFold:  !opts.CaseSensitive,
		regex:     opts.Regex,
		wholeWord: opts.WholeWord,
		impl:      impl,
	}

	for _, p := range patterns {
		c := compiled{source: p}
		if opts.Regex {
			expr := p
			if s.caseFold {
				expr = "(?i)" + expr
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("compile pattern %q: %w", p, err)
			}
			c.re = re
		} else {
			needle := []byte(p)
			if s.caseFold {
				needle = asciiFold(needle)
			}
			c.needle = needle
		}
		s.patterns = append(s.patterns, c)
	}

	return s, nil
}

// Len reports the number of patterns in the set.
func (s *Set) Len() int {
	return len(s.patterns)
}

// Sources returns the original pattern strings in compile order.
func (s *Set) Sources() []string {
	out := make([]string, len(s.patterns))
	for i, c := range s.patterns {
		out[i] = c.source
	}
	return out
}

// FindAll scans content with every pattern in the set and returns one
// hit group per pattern that matched at least once. Offsets are byte
// positions into content in ascending order; lines are the matching
// 1-based line numbers, parallel to the offsets.
func (s *Set) FindAll(content []byte) []models.PatternHit {
	var hits []models.PatternHit

	var folded []byte
	var lines *lineIndex
	if s.impl == ImplOptimized {
		if s.caseFold && !s.regex {
			folded = asciiFold(content)
		}
		lines = newLineIndex(content)
	}

	for _, c := range s.patterns {
		var offsets []int
		if s.regex {
			offsets = findRegex(c.re, content)
		} else {
			haystack := content
			switch {
			case s.impl == ImplOptimized && s.caseFold:
				haystack = folded
			case s.impl == ImplReference && s.caseFold:
				haystack = asciiFold(content)
			}
			offsets = findLiteral(haystack, c.needle, s.wholeWord)
		}
		if len(offsets) == 0 {
			continue
		}

		nums := make([]int, len(offsets))
		for i, off := range offsets {
			if s.impl == ImplOptimized {
				nums[i] = lines.lineAt(off)
			} else {
				nums[i] = countLine(content, off)
			}
		}
		hits = append(hits, models.PatternHit{
			Pattern: c.source,
			Offsets: offsets,
			Lines:   nums,
		})
	}

	return hits
}

// Spans returns the [start, end) byte ranges where the pattern with the
// given source matches data. Hit offsets alone do not carry the extent
// of a match, so renderers that highlight matched text resolve spans
// through this method. An unknown source yields nil.
func (s *Set) Spans(data []byte, source string) [][2]int {
	for _, c := range s.patterns {
		if c.source != source {
			continue
		}
		if s.regex {
			locs := c.re.FindAllIndex(data, -1)
			spans := make([][2]int, 0, len(locs))
			for _, loc := range locs {
				spans = append(spans, [2]int{loc[0], loc[1]})
			}
			return spans
		}
		haystack := data
		if s.caseFold {
			haystack = asciiFold(data)
		}
		offsets := findLiteral(haystack, c.needle, s.wholeWord)
		spans := make([][2]int, 0, len(offsets))
		for _, off := range offsets {
			spans = append(spans, [2]int{off, off + len(c.needle)})
		}
		return spans
	}
	return nil
}

// MatchesName reports whether any pattern in the set matches the given
// file name. Literal patterns match by folded substring containment,
// honoring the whole-word option; regex patterns match anywhere in the
// name.
func (s *Set) MatchesName(name string) bool {
	raw := []byte(name)
	var haystack []byte
	if !s.regex {
		haystack = raw
		if s.caseFold {
			haystack = asciiFold(raw)
		}
	}

	for _, c := range s.patterns {
		if s.regex {
			if c.re.MatchString(name) {
				return true
			}
			continue
		}
		if matchLiteral(haystack, c.needle, s.wholeWord) {
			return true
		}
	}
	return false
}
