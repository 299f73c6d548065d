// Package digest computes the content fingerprints fossil uses as blob keys.
//
// Two algorithms are supported. xxh3 (128-bit, 32 hex digits) is the default:
// it is fast and its collision probability is negligible for the number of
// files in a single snapshot, which is the only scope in which digests are
// compared for deduplication. sha256 (64 hex digits) can be selected when a
// cryptographic guarantee is wanted.
package digest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/keshon/fossil/internal/apperr"
)

// Algorithm names a supported digest algorithm.
type Algorithm string

const (
	XXH3   Algorithm = "xxh3"
	SHA256 Algorithm = "sha256"
)

// DefaultChunkSize is the streaming read size.
const DefaultChunkSize = 32 * 1024

// Parse validates an algorithm name. The empty string selects XXH3.
func Parse(name string) (Algorithm, error) {
	switch Algorithm(name) {
	case "", XXH3:
		return XXH3, nil
	case SHA256:
		return SHA256, nil
	}
	return "", fmt.Errorf("unknown digest algorithm %q", name)
}

// HexLen returns the length of a hex-encoded digest.
func (a Algorithm) HexLen() int {
	if a == SHA256 {
		return sha256.Size * 2
	}
	return 32
}

// Hasher accumulates written bytes into a digest.
type Hasher interface {
	io.Writer
	Hex() string
}

// New returns a fresh Hasher for the algorithm.
func (a Algorithm) New() Hasher {
	if a == SHA256 {
		return &stdHasher{h: sha256.New()}
	}
	return &xxh3Hasher{h: xxh3.New()}
}

// Valid reports whether s looks like a digest produced by a.
func (a Algorithm) Valid(s string) bool {
	if len(s) != a.HexLen() {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// Bytes returns the digest of data.
func (a Algorithm) Bytes(data []byte) string {
	if a == SHA256 {
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:])
	}
	sum := xxh3.Hash128(data).Bytes()
	return hex.EncodeToString(sum[:])
}

type xxh3Hasher struct{ h *xxh3.Hasher }

func (x *xxh3Hasher) Write(p []byte) (int, error) { return x.h.Write(p) }
func (x *xxh3Hasher) Hex() string {
	sum := x.h.Sum128().Bytes()
	return hex.EncodeToString(sum[:])
}

type stdHasher struct{ h hash.Hash }

func (s *stdHasher) Write(p []byte) (int, error) { return s.h.Write(p) }
func (s *stdHasher) Hex() string                 { return hex.EncodeToString(s.h.Sum(nil)) }

// Computer streams files through the configured algorithm.
type Computer struct {
	FS        afero.Fs
	Algorithm Algorithm
	ChunkSize int
}

// NewComputer creates a Computer with the default chunk size.
func NewComputer(fsys afero.Fs, alg Algorithm) *Computer {
	return &Computer{FS: fsys, Algorithm: alg, ChunkSize: DefaultChunkSize}
}

// Sum returns the digest of the file at path.
func (c *Computer) Sum(path string) (string, error) {
	f, err := c.FS.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return "", apperr.Path("hash", path, apperr.ErrNotFound)
		}
		return "", fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	sum, err := c.SumReader(f)
	if err != nil {
		return "", fmt.Errorf("hash %q: %w", path, err)
	}
	return sum, nil
}

// SumReader digests everything r yields, reading ChunkSize bytes at a time.
func (c *Computer) SumReader(r io.Reader) (string, error) {
	size := c.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	h := c.Algorithm.New()
	buf := make([]byte, size)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			_, _ = h.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return h.Hex(), nil
}

// SumAll hashes paths concurrently with at most workers goroutines.
// The result order matches paths. The first error cancels the rest.
func (c *Computer) SumAll(ctx context.Context, paths []string, workers int) ([]string, error) {
	out := make([]string, len(paths))
	if workers <= 0 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sum, err := c.Sum(p)
			if err != nil {
				return err
			}
			out[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
