package profile

import (
	"path/filepath"
	"strings"
)

// relToHome returns base relative to home in slash form, so the base dir
// itself is never swept up by a directory add. A base outside home yields "".
func relToHome(home, base string) string {
	rel, err := filepath.Rel(home, base)
	if err != nil {
		return ""
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return ""
	}
	return rel
}
