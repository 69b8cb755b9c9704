package display

import (
	"os"

	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether f is attached to a terminal, including
// Cygwin and MSYS pseudo-terminals on Windows.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// StdoutIsTerminal reports whether standard output is a terminal.
// Callers use it to decide between colored listings, plain output for
// pipes, and the interactive UI.
func StdoutIsTerminal() bool {
	return IsTerminal(os.Stdout)
}
