package dbutil

import "strings"

// IsConflict reports whether err is a sqlite unique-constraint violation.
// modernc.org/sqlite does not export a typed error for this case, so the
// result code text is matched instead.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
