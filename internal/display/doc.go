// Package display renders search output for the terminal: match listings
// with highlighted snippets, warnings, and byte-size formatting.
//
// The package centralizes user-facing output for the Searchex CLI. Run
// lifecycle messages (start, progress, summary) belong to the logger
// package; display owns the presentation of results themselves.
//
// # Result Listings
//
// Use Renderer to print file results as they stream out of a run:
//
//	r := display.NewRenderer(os.Stdout, display.StdoutIsTerminal(), set)
//	for batch := range agg.Batches() {
//	    for _, res := range batch.Results {
//	        if res.MatchCount() > 0 {
//	            r.Result(res)
//	        }
//	    }
//	}
//
// Each result prints a header line with the path, match count and size,
// followed by one snippet per match. Text snippets show the matching
// line with the match wrapped in guillemets; binary snippets show a hex
// window around the match.
//
// # Warnings
//
// Display end-of-run warnings with optional detail:
//
//	w := display.WarnProblems(problems)
//	w.Display(os.Stderr)
//
// # ANSI Colors
//
// The package emits raw ANSI escape codes when color is enabled:
//   - Cyan (\x1b[36m) for file paths and line numbers
//   - Yellow (\x1b[33m) for warnings and match highlights
//   - Reset (\x1b[0m) after each colored section
//
// All render functions accept io.Writer for testability. Color is an
// explicit constructor flag so callers decide based on their own
// terminal detection.
package display
