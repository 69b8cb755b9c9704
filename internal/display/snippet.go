package display

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	// textContext bounds how many bytes of the matching line are kept on
	// each side of a match in text snippets.
	textContext = 120

	// hexContext is how many bytes appear on each side of a match in hex
	// snippets for binary files.
	hexContext = 8
)

// textSnippet extracts the line containing the match [start, end) from
// content and splits it around the match. Long lines are trimmed to
// textContext bytes per side with an ellipsis marking the cut. All
// parts come back as valid UTF-8.
func textSnippet(content []byte, start, end int) (prefix, match, suffix string) {
	lineStart := 0
	if i := bytes.LastIndexByte(content[:start], '\n'); i >= 0 {
		lineStart = i + 1
	}
	lineEnd := len(content)
	if i := bytes.IndexByte(content[end:], '\n'); i >= 0 {
		lineEnd = end + i
	}

	from, cutLeft := lineStart, false
	if start-from > textContext {
		from = start - textContext
		cutLeft = true
	}
	to, cutRight := lineEnd, false
	if to-end > textContext {
		to = end + textContext
		cutRight = true
	}

	prefix = sanitize(content[from:start])
	match = sanitize(content[start:end])
	suffix = strings.TrimSuffix(sanitize(content[end:to]), "\r")
	if cutLeft {
		prefix = "…" + prefix
	}
	if cutRight {
		suffix += "…"
	}
	return prefix, match, suffix
}

// sanitize makes a byte window printable. Truncation can split a rune,
// so invalid sequences are replaced; newlines inside a multi-line match
// are escaped so each snippet stays on one line.
func sanitize(b []byte) string {
	s := strings.ToValidUTF8(string(b), "�")
	return strings.ReplaceAll(s, "\n", "\\n")
}

// hexSnippet renders a window of bytes around the match [start, end) as
// spaced hex pairs with the match region wrapped in guillemets.
func hexSnippet(content []byte, start, end int) string {
	from := max(0, start-hexContext)
	to := min(len(content), end+hexContext)
	if end <= start {
		return hexBytes(content[from:to])
	}

	var b strings.Builder
	if p := hexBytes(content[from:start]); p != "" {
		b.WriteString(p)
		b.WriteString(" ")
	}
	b.WriteString("«")
	b.WriteString(hexBytes(content[start:end]))
	b.WriteString("»")
	if s := hexBytes(content[end:to]); s != "" {
		b.WriteString(" ")
		b.WriteString(s)
	}
	return b.String()
}

func hexBytes(b []byte) string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = fmt.Sprintf("%02X", c)
	}
	return strings.Join(parts, " ")
}
