package manifest

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/keshon/fossil/internal/apperr"
	"github.com/keshon/fossil/internal/fs"
)

// Store is the live manifest of one profile. Every mutation is a full
// read-modify-write of the file at Path; callers serialise mutations with
// the repository lock.
type Store struct {
	FS     afero.Fs
	Path   string
	Home   string
	Ignore *Ignore
}

// NewStore creates a Store for the manifest file at p, resolving tracked
// paths against home.
func NewStore(fsys afero.Fs, p, home string) *Store {
	return &Store{FS: fsys, Path: p, Home: filepath.Clean(home)}
}

// Create writes an empty manifest. It fails if one already exists.
func (s *Store) Create() error {
	if fs.Exists(s.FS, s.Path) {
		return apperr.Path("create manifest", s.Path, apperr.ErrAlreadyExists)
	}
	return s.Save(&Document{})
}

// Load reads and validates the manifest.
func (s *Store) Load() (*Document, error) {
	data, err := afero.ReadFile(s.FS, s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.Path("load manifest", s.Path, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("read manifest %q: %w", s.Path, err)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load manifest %q: %w", s.Path, err)
	}
	return doc, nil
}

// Save replaces the manifest on disk.
func (s *Store) Save(doc *Document) error {
	doc.reindex()
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	if err := fs.WriteFileAtomic(s.FS, s.Path, data, 0o644); err != nil {
		return fmt.Errorf("save manifest %q: %w", s.Path, err)
	}
	return nil
}

// Resolve turns a user supplied path (absolute, or relative to the working
// directory) into its absolute form and its slash-separated path relative to
// the home root.
func (s *Store) Resolve(p string) (abs, rel string, err error) {
	abs = p
	if !filepath.IsAbs(abs) {
		if abs, err = filepath.Abs(p); err != nil {
			return "", "", fmt.Errorf("resolve %q: %w", p, err)
		}
	}
	abs = filepath.Clean(abs)

	r, err := filepath.Rel(s.Home, abs)
	if err != nil {
		return "", "", apperr.Path("resolve", p, apperr.ErrOutsideHome)
	}
	rel = filepath.ToSlash(r)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", "", apperr.Path("resolve", p, apperr.ErrOutsideHome)
	}
	return abs, rel, nil
}

// Add tracks the given paths. Directories expand to every regular file
// beneath them that the ignore rules do not exclude. Paths already tracked are
// skipped, so the returned slice holds only the records that were appended;
// an empty result means nothing changed. A missing path fails the whole call
// with apperr.ErrNotFound and leaves the store untouched.
func (s *Store) Add(paths ...string) ([]Record, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(doc.Files))
	for _, r := range doc.Files {
		seen[r.RelPath] = struct{}{}
	}

	var added []Record
	for _, p := range paths {
		abs, rel, err := s.Resolve(p)
		if err != nil {
			return nil, err
		}
		fi, err := s.FS.Stat(abs)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, apperr.Path("add", p, apperr.ErrNotFound)
			}
			return nil, fmt.Errorf("stat %q: %w", p, err)
		}

		candidates := []string{rel}
		if fi.IsDir() {
			if candidates, err = s.expand(abs); err != nil {
				return nil, err
			}
		} else if rel == "." {
			return nil, apperr.Path("add", p, apperr.ErrOutsideHome)
		}

		for _, c := range candidates {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			rec := Record{Index: len(doc.Files), Name: path.Base(c), RelPath: c}
			doc.Files = append(doc.Files, rec)
			added = append(added, rec)
		}
	}

	if len(added) == 0 {
		return nil, nil
	}
	if err := s.Save(doc); err != nil {
		return nil, err
	}
	return added, nil
}

// expand lists the regular files under dir as home-relative paths, in lexical order.
func (s *Store) expand(dir string) ([]string, error) {
	var out []string
	err := afero.Walk(s.FS, dir, func(p string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		r, err := filepath.Rel(s.Home, p)
		if err != nil {
			return err
		}
		rel := filepath.ToSlash(r)
		if rel != "." && s.Ignore.Match(rel) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Mode().IsRegular() {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %q: %w", dir, err)
	}
	return out, nil
}

// Remove deletes the record at index and renumbers the rest so indices stay
// contiguous. An out of range index is a no-op reported by ok == false.
func (s *Store) Remove(index int) (removed Record, ok bool, err error) {
	doc, err := s.Load()
	if err != nil {
		return Record{}, false, err
	}
	if index < 0 || index >= len(doc.Files) {
		return Record{}, false, nil
	}

	removed = doc.Files[index]
	doc.Files = append(doc.Files[:index], doc.Files[index+1:]...)
	if err := s.Save(doc); err != nil {
		return Record{}, false, err
	}
	return removed, true, nil
}
