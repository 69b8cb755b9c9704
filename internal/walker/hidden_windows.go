//go:build windows

package walker

import (
	"strings"
	"syscall"
)

// IsHidden reports whether the entry is hidden, checking the
// dot-prefix convention first and the Windows hidden attribute second.
func IsHidden(path, name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	p, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return false
	}
	attrs, err := syscall.GetFileAttributes(p)
	if err != nil {
		return false
	}
	return attrs&syscall.FILE_ATTRIBUTE_HIDDEN != 0
}
