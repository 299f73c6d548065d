// Package scratch implements the transient staging directory used while
// packing and unpacking snapshots. Blobs are stored flat, named by digest.
package scratch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/keshon/fossil/internal/apperr"
	"github.com/keshon/fossil/internal/digest"
	"github.com/keshon/fossil/internal/fs"
)

// Area is a scoped scratch directory. Acquire it before use and Release it
// on every exit path; it is not safe to share between operations.
type Area struct {
	FS        afero.Fs
	Dir       string
	ChunkSize int
}

// Staged describes one blob written into the area.
type Staged struct {
	Digest string
	Size   int64
	// Mode holds the source file's permission bits.
	Mode os.FileMode
	// Reused is set when an identical blob was already staged.
	Reused bool
}

// New returns an Area rooted at dir.
func New(fsys afero.Fs, dir string) *Area {
	return &Area{FS: fsys, Dir: dir, ChunkSize: digest.DefaultChunkSize}
}

// Acquire wipes any leftover content and recreates the directory empty.
func (a *Area) Acquire() error {
	if err := a.FS.RemoveAll(a.Dir); err != nil {
		return fmt.Errorf("reset scratch %q: %w", a.Dir, err)
	}
	if err := a.FS.MkdirAll(a.Dir, 0o755); err != nil {
		return fmt.Errorf("create scratch %q: %w", a.Dir, err)
	}
	return nil
}

// Release removes the directory and everything in it.
func (a *Area) Release() error {
	if err := a.FS.RemoveAll(a.Dir); err != nil {
		return fmt.Errorf("release scratch %q: %w", a.Dir, err)
	}
	return nil
}

// Path returns the location of a staged entry.
func (a *Area) Path(name string) string {
	return filepath.Join(a.Dir, name)
}

// StageFile copies src into the area while hashing it, and files the copy
// under its digest. The digest therefore always describes the exact bytes
// that were staged. A missing source yields apperr.ErrNotFound.
func (a *Area) StageFile(ctx context.Context, src string, alg digest.Algorithm) (Staged, error) {
	if err := ctx.Err(); err != nil {
		return Staged{}, err
	}

	in, err := a.FS.Open(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return Staged{}, apperr.Path("stage", src, apperr.ErrNotFound)
		}
		return Staged{}, fmt.Errorf("open %q: %w", src, err)
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return Staged{}, fmt.Errorf("stat %q: %w", src, err)
	}

	tmp, err := afero.TempFile(a.FS, a.Dir, ".stage-*")
	if err != nil {
		return Staged{}, fmt.Errorf("create temp file in %q: %w", a.Dir, err)
	}
	tmpPath := tmp.Name()
	keep := false
	defer func() {
		if !keep {
			_ = tmp.Close()
			_ = a.FS.Remove(tmpPath)
		}
	}()

	h := alg.New()
	buf := make([]byte, a.chunkSize())
	n, err := io.CopyBuffer(io.MultiWriter(tmp, h), &ctxReader{ctx: ctx, r: in}, buf)
	if err != nil {
		return Staged{}, fmt.Errorf("stage %q: %w", src, err)
	}
	if err := tmp.Sync(); err != nil {
		return Staged{}, fmt.Errorf("sync temp file %q: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return Staged{}, fmt.Errorf("close temp file %q: %w", tmpPath, err)
	}

	st := Staged{Digest: h.Hex(), Size: n, Mode: info.Mode().Perm()}
	dst := a.Path(st.Digest)
	if fs.Exists(a.FS, dst) {
		st.Reused = true
		return st, nil
	}
	if err := a.FS.Rename(tmpPath, dst); err != nil {
		return Staged{}, fmt.Errorf("rename temp file %q to %q: %w", tmpPath, dst, err)
	}
	keep = true
	return st, nil
}

// Put writes data under name.
func (a *Area) Put(name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	return fs.WriteFileAtomic(a.FS, a.Path(name), data, 0o644)
}

// Get reads the entry stored under name.
func (a *Area) Get(name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(a.FS, a.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.Path("read scratch", name, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("read scratch %q: %w", name, err)
	}
	return data, nil
}

func (a *Area) chunkSize() int {
	if a.ChunkSize > 0 {
		return a.ChunkSize
	}
	return digest.DefaultChunkSize
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return apperr.Path("scratch entry", name, apperr.ErrInvalidName)
	}
	return nil
}

// ctxReader stops a copy between chunks once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
