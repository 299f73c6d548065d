package archive

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const tempPrefix = ".pack-"

// CleanupTemp removes partially written archives that an interrupted Pack
// left in dir and returns how many were removed. A missing dir is not an error.
func CleanupTemp(fsys afero.Fs, dir string) (int, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		if err := fsys.Remove(filepath.Join(dir, e.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
