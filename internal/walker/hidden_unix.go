//go:build !windows

package walker

import "strings"

// IsHidden reports whether the entry name marks a hidden file or
// directory. Unix convention is a leading dot.
func IsHidden(_ string, name string) bool {
	return strings.HasPrefix(name, ".")
}
