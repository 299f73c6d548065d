// Package archive reads and writes snapshot archives: a tar stream, gzip
// compressed by default, holding flat entries only.
package archive

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/keshon/fossil/internal/apperr"
	"github.com/keshon/fossil/internal/fs"
)

// Compression selects how the tar stream is wrapped.
type Compression string

const (
	Gzip Compression = "gzip"
	None Compression = "none"
)

// ParseCompression validates a compression name. The empty string selects Gzip.
func ParseCompression(s string) (Compression, error) {
	switch Compression(s) {
	case "", Gzip:
		return Gzip, nil
	case None:
		return None, nil
	}
	return "", fmt.Errorf("unknown compression %q", s)
}

// Pack writes the named entries of srcDir into a new archive at dst. The
// archive is assembled in a temp file beside dst and renamed into place, so
// dst either does not exist or is complete. An existing dst is never replaced.
func Pack(fsys afero.Fs, dst, srcDir string, names []string, c Compression) (err error) {
	if fs.Exists(fsys, dst) {
		return apperr.Path("pack", dst, apperr.ErrAlreadyExists)
	}
	for _, n := range names {
		if err := CheckName(n); err != nil {
			return err
		}
	}

	dir := filepath.Dir(dst)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %q: %w", dir, err)
	}
	tmp, err := afero.TempFile(fsys, dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("create temp file in %q: %w", dir, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = fsys.Remove(tmpPath)
		}
	}()

	var (
		out io.Writer = tmp
		gzw *gzip.Writer
	)
	if c != None {
		gzw = gzip.NewWriter(tmp)
		out = gzw
	}
	tw := tar.NewWriter(out)

	for _, n := range names {
		if err := addFile(fsys, tw, filepath.Join(srcDir, n), n); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar stream: %w", err)
	}
	if gzw != nil {
		if err := gzw.Close(); err != nil {
			return fmt.Errorf("close gzip stream: %w", err)
		}
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync %q: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %q: %w", tmpPath, err)
	}
	if fs.Exists(fsys, dst) {
		return apperr.Path("pack", dst, apperr.ErrAlreadyExists)
	}
	if err := fsys.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("rename %q to %q: %w", tmpPath, dst, err)
	}
	return nil
}

func addFile(fsys afero.Fs, tw *tar.Writer, path, name string) error {
	f, err := fsys.Open(path)
	if err != nil {
		return fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %q: %w", path, err)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("pack %q: not a regular file", path)
	}

	header := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     0o644,
		Size:     fi.Size(),
		ModTime:  fi.ModTime(),
		Format:   tar.FormatPAX,
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write %s header: %w", name, err)
	}
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Unpack extracts every entry of src into dstDir and returns the entry names
// in archive order.
func Unpack(fsys afero.Fs, src, dstDir string) ([]string, error) {
	var names []string
	err := Walk(fsys, src, func(name string, r io.Reader) error {
		if err := fs.WriteReaderAtomic(fsys, filepath.Join(dstDir, name), r, 0o644); err != nil {
			return fmt.Errorf("extract %s: %w", name, err)
		}
		names = append(names, name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Walk streams each entry of src to fn without extracting it. Entries that
// are not regular files, carry a nested or special name, or repeat a name
// make the archive corrupt.
func Walk(fsys afero.Fs, src string, fn func(name string, r io.Reader) error) error {
	f, err := fsys.Open(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.Path("open archive", src, apperr.ErrNotFound)
		}
		return fmt.Errorf("open archive %q: %w", src, err)
	}
	defer f.Close()

	in, err := decompress(f)
	if err != nil {
		return apperr.Path("read archive", src, fmt.Errorf("%w: %v", apperr.ErrCorruptArchive, err))
	}

	tr := tar.NewReader(in)
	seen := make(map[string]struct{})
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return apperr.Path("read archive", src, fmt.Errorf("%w: %v", apperr.ErrCorruptArchive, err))
		}
		if header.Typeflag != tar.TypeReg {
			return apperr.Path("read archive", src,
				fmt.Errorf("%w: entry %q is not a regular file", apperr.ErrCorruptArchive, header.Name))
		}
		if err := CheckName(header.Name); err != nil {
			return apperr.Path("read archive", src, err)
		}
		if _, dup := seen[header.Name]; dup {
			return apperr.Path("read archive", src,
				fmt.Errorf("%w: duplicate entry %q", apperr.ErrCorruptArchive, header.Name))
		}
		seen[header.Name] = struct{}{}

		if err := fn(header.Name, tr); err != nil {
			return err
		}
	}
}

// CheckName rejects entry names that could escape a flat directory.
func CheckName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: unsafe entry name %q", apperr.ErrCorruptArchive, name)
	}
	return nil
}

// decompress sniffs the gzip magic bytes and unwraps the stream if present.
func decompress(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		return gzip.NewReader(br)
	}
	return br, nil
}
