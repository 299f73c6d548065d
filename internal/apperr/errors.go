// Package apperr defines the error taxonomy shared by every fossil component.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNoActiveProfile   = errors.New("no active profile selected")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrInvalidIndex      = errors.New("index out of range")
	ErrInvalidName       = errors.New("invalid name")
	ErrOutsideHome       = errors.New("path is outside the home root")
	ErrSourceFileMissing = errors.New("tracked source file is missing")
	ErrCorruptManifest   = errors.New("corrupt manifest")
	ErrCorruptArchive    = errors.New("corrupt archive")
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	ErrLocked            = errors.New("another fossil operation is in progress")
)

// PathError records the operation and path that produced one of the sentinels above.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// Path wraps err with the operation and path it relates to.
func Path(op, path string, err error) error {
	return &PathError{Op: op, Path: path, Err: err}
}
