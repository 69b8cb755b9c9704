package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harrison/searchex/internal/models"
	"github.com/harrison/searchex/internal/pattern"
)

// Renderer prints file results in a grep-like listing. It is not safe
// for concurrent use; the result consumer drives it from one goroutine.
type Renderer struct {
	out   io.Writer
	color bool
	set   *pattern.Set

	// Snippets may be cleared to print header lines only.
	Snippets bool
}

// NewRenderer creates a renderer writing to out. The pattern set is used
// to resolve the extent of each match for highlighting; a nil set
// renders snippets without highlights.
func NewRenderer(out io.Writer, color bool, set *pattern.Set) *Renderer {
	return &Renderer{out: out, color: color, set: set, Snippets: true}
}

// Result prints one file result: a header line followed by one snippet
// per content match. Callers filter zero-hit results before rendering.
func (r *Renderer) Result(res *models.FileResult) {
	nameMatched := false
	var contentHits []models.PatternHit
	for _, h := range res.Hits {
		if h.Pattern == models.NamePattern {
			nameMatched = true
			continue
		}
		contentHits = append(contentHits, h)
	}

	matched := 0
	for _, h := range contentHits {
		matched += len(h.Offsets)
	}

	fmt.Fprintln(r.out, r.header(res, nameMatched, matched))

	if matched == 0 || !r.Snippets {
		return
	}

	content, err := os.ReadFile(res.Path)
	if err != nil {
		fmt.Fprintf(r.out, "  (file no longer readable: %v)\n", err)
		return
	}

	labelPatterns := len(contentHits) > 1
	for _, h := range contentHits {
		if labelPatterns {
			fmt.Fprintf(r.out, "  pattern %q:\n", h.Pattern)
		}
		r.renderHit(content, h, res.IsBinary)
	}
}

// header builds the path line: path, match summary, size, and a binary
// marker when the content contained a NUL byte.
func (r *Renderer) header(res *models.FileResult, nameMatched bool, matched int) string {
	var segs []string
	if nameMatched {
		segs = append(segs, "name match")
	}
	if matched == 1 {
		segs = append(segs, "1 match")
	} else if matched > 1 {
		segs = append(segs, fmt.Sprintf("%d matches", matched))
	}
	segs = append(segs, HumanBytes(res.Size))

	path := res.Path
	if r.color {
		path = "\x1b[36m" + path + "\x1b[0m"
	}
	line := fmt.Sprintf("%s (%s)", path, strings.Join(segs, ", "))
	if res.IsBinary {
		line += " [binary]"
	}
	return line
}

// renderHit prints one snippet line per offset of a single pattern.
func (r *Renderer) renderHit(content []byte, h models.PatternHit, binary bool) {
	spans := r.spans(content, h.Pattern)

	j := 0
	for i, off := range h.Offsets {
		end := off
		for j < len(spans) && spans[j][0] < off {
			j++
		}
		if j < len(spans) && spans[j][0] == off {
			end = spans[j][1]
		}

		if binary {
			fmt.Fprintf(r.out, "  @0x%06X: %s\n", off, hexSnippet(content, off, end))
		} else {
			num := fmt.Sprintf("%d", h.Lines[i])
			if r.color {
				num = "\x1b[36m" + num + "\x1b[0m"
			}
			prefix, match, suffix := textSnippet(content, off, end)
			fmt.Fprintf(r.out, "  %s: %s\n", num, r.assemble(prefix, match, suffix))
		}
	}
}

func (r *Renderer) spans(content []byte, source string) [][2]int {
	if r.set == nil {
		return nil
	}
	return r.set.Spans(content, source)
}

// assemble joins snippet parts, wrapping the match in guillemets. With
// color enabled the match region is rendered yellow. An empty match
// (span unknown) yields the bare line text.
func (r *Renderer) assemble(prefix, match, suffix string) string {
	if match == "" {
		return prefix + suffix
	}
	if r.color {
		return prefix + "\x1b[33m«" + match + "»\x1b[0m" + suffix
	}
	return prefix + "«" + match + "»" + suffix
}

// HumanBytes formats a byte count with a binary unit suffix, such as
// "512 B" or "1.5 KB".
func HumanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
