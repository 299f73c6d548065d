package manifest

import (
	"bufio"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Ignore decides which files are skipped when a directory is added.
// Paths are slash-separated and relative to the home root.
type Ignore struct {
	static  map[string]bool
	pattern []string
}

// NewIgnore builds a matcher from fixed paths plus the patterns in file, if it exists.
// Blank lines and lines starting with # are skipped.
func NewIgnore(fsys afero.Fs, file string, static ...string) *Ignore {
	m := &Ignore{static: make(map[string]bool)}
	for _, s := range static {
		m.static[filepath.ToSlash(filepath.Clean(s))] = true
	}

	f, err := fsys.Open(file)
	if err != nil {
		return m
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.pattern = append(m.pattern, line)
	}
	return m
}

// Match returns true if the path should be ignored.
func (m *Ignore) Match(path string) bool {
	if m == nil {
		return false
	}
	clean := filepath.ToSlash(filepath.Clean(path))

	if m.static[clean] {
		return true
	}
	for _, pat := range m.pattern {
		if matchPattern(pat, clean) {
			return true
		}
	}
	return false
}

// matchPattern handles *, ? and ** the way gitignore does.
func matchPattern(pattern, path string) bool {
	pattern = filepath.ToSlash(pattern)
	return matchSegments(strings.Split(pattern, "/"), strings.Split(path, "/"))
}

func matchSegments(pats, parts []string) bool {
	for len(pats) > 0 {
		p := pats[0]
		pats = pats[1:]

		if p == "**" {
			if len(pats) == 0 {
				return true
			}
			for i := 0; i <= len(parts); i++ {
				if matchSegments(pats, parts[i:]) {
					return true
				}
			}
			return false
		}

		if len(parts) == 0 {
			return false
		}
		ok, _ := filepath.Match(p, parts[0])
		if !ok {
			return false
		}
		parts = parts[1:]
	}
	return len(parts) == 0
}
