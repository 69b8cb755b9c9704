package pattern

import (
	"bytes"
	"regexp"
	"sort"
)

// asciiFold returns a copy of b with ASCII upper-case letters lowered.
// Folding is length preserving, so offsets into the folded slice are
// valid offsets into the original bytes.
func asciiFold(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return out
}

// isWordByte reports whether c counts as a word character for
// whole-word boundary checks.
func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

// boundedAt reports whether the occurrence of length n at off in
// haystack is free-standing, meaning not flanked by word characters.
func boundedAt(haystack []byte, off, n int) bool {
	if off > 0 && isWordByte(haystack[off-1]) {
		return false
	}
	if end := off + n; end < len(haystack) && isWordByte(haystack[end]) {
		return false
	}
	return true
}

// findLiteral returns the starting offsets of every occurrence of
// needle in haystack. The scan advances one byte past each candidate
// whether it was accepted or not, so overlapping occurrences are all
// reported.
func findLiteral(haystack, needle []byte, wholeWord bool) []int {
	var offsets []int
	i := 0
	for i+len(needle) <= len(haystack) {
		j := bytes.Index(haystack[i:], needle)
		if j < 0 {
			break
		}
		at := i + j
		if !wholeWord || boundedAt(haystack, at, len(needle)) {
			offsets = append(offsets, at)
		}
		i = at + 1
	}
	return offsets
}

// matchLiteral reports whether needle occurs in haystack at least
// once, honoring the whole-word restriction.
func matchLiteral(haystack, needle []byte, wholeWord bool) bool {
	if !wholeWord {
		return bytes.Contains(haystack, needle)
	}
	i := 0
	for i+len(needle) <= len(haystack) {
		j := bytes.Index(haystack[i:], needle)
		if j < 0 {
			return false
		}
		at := i + j
		if boundedAt(haystack, at, len(needle)) {
			return true
		}
		i = at + 1
	}
	return false
}

// findRegex returns the starting offsets of all non-overlapping
// matches of re in content.
func findRegex(re *regexp.Regexp, content []byte) []int {
	locs := re.FindAllIndex(content, -1)
	if len(locs) == 0 {
		return nil
	}
	offsets := make([]int, len(locs))
	for i, loc := range locs {
		offsets[i] = loc[0]
	}
	return offsets
}

// lineIndex records the byte offset of every newline in a buffer so
// the 1-based line of any offset resolves with a binary search.
type lineIndex struct {
	newlines []int
}

func newLineIndex(content []byte) *lineIndex {
	idx := &lineIndex{}
	off := 0
	for {
		j := bytes.IndexByte(content[off:], '\n')
		if j < 0 {
			break
		}
		idx.newlines = append(idx.newlines, off+j)
		off += j + 1
	}
	return idx
}

// lineAt returns the 1-based line number containing the byte at off.
func (li *lineIndex) lineAt(off int) int {
	return sort.SearchInts(li.newlines, off) + 1
}

// countLine computes the 1-based line of off by counting the newlines
// before it. Used by the reference strategy.
func countLine(content []byte, off int) int {
	return bytes.Count(content[:off], []byte{'\n'}) + 1
}
