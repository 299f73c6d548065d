// Package fs holds the filesystem helpers shared by fossil components.
// Every component receives an afero.Fs so tests can run against memory.
package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// NewOSFS returns the production filesystem.
func NewOSFS() afero.Fs {
	return afero.NewOsFs()
}

// Exists reports whether path can be stat'ed.
func Exists(fsys afero.Fs, path string) bool {
	_, err := fsys.Stat(path)
	return err == nil
}

// WriteFileAtomic writes data to a temp file beside path, syncs it and renames it into place.
func WriteFileAtomic(fsys afero.Fs, path string, data []byte, perm os.FileMode) error {
	return writeAtomic(fsys, path, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// CopyFileAtomic streams src into dst via a temp file in dst's directory.
func CopyFileAtomic(fsys afero.Fs, src, dst string, perm os.FileMode) error {
	in, err := fsys.Open(src)
	if err != nil {
		return fmt.Errorf("open %q: %w", src, err)
	}
	defer in.Close()

	return writeAtomic(fsys, dst, perm, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
}

// WriteReaderAtomic streams r into path via a temp file beside it.
func WriteReaderAtomic(fsys afero.Fs, path string, r io.Reader, perm os.FileMode) error {
	return writeAtomic(fsys, path, perm, func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	})
}

func writeAtomic(fsys afero.Fs, path string, perm os.FileMode, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %q: %w", dir, err)
	}

	tmp, err := afero.TempFile(fsys, dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %q: %w", dir, err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = fsys.Remove(tmpPath)
		}
	}()

	if err := fill(tmp); err != nil {
		return fmt.Errorf("write temp file %q: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file %q: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file %q: %w", tmpPath, err)
	}
	if err := fsys.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temp file %q: %w", tmpPath, err)
	}
	if err := fsys.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file %q to %q: %w", tmpPath, path, err)
	}
	success = true
	return nil
}
