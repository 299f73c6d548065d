package archive_test

import (
	"archive/tar"
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/fossil/internal/apperr"
	"github.com/keshon/fossil/internal/archive"
)

func stage(t *testing.T, mem afero.Fs, entries map[string]string) []string {
	t.Helper()
	var names []string
	for n, body := range entries {
		require.NoError(t, afero.WriteFile(mem, "/stage/"+n, []byte(body), 0o644))
		names = append(names, n)
	}
	return names
}

func rawTar(t *testing.T, headers ...*tar.Header) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, h := range headers {
		require.NoError(t, tw.WriteHeader(h))
		if h.Size > 0 {
			_, err := tw.Write(bytes.Repeat([]byte("x"), int(h.Size)))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func TestPackUnpackRoundTrip(t *testing.T) {
	for _, c := range []archive.Compression{archive.Gzip, archive.None} {
		t.Run(string(c), func(t *testing.T) {
			mem := afero.NewMemMapFs()
			names := stage(t, mem, map[string]string{"manifest.json": "{}", "abc123": "hello"})

			dst := "/snapshots/p/p[0].archive"
			require.NoError(t, archive.Pack(mem, dst, "/stage", names, c))

			got, err := archive.Unpack(mem, dst, "/out")
			require.NoError(t, err)
			assert.ElementsMatch(t, names, got)

			data, err := afero.ReadFile(mem, "/out/abc123")
			require.NoError(t, err)
			assert.Equal(t, "hello", string(data))

			entries, err := afero.ReadDir(mem, "/snapshots/p")
			require.NoError(t, err)
			assert.Len(t, entries, 1, "no temp file left beside the archive")
		})
	}
}

func TestPackRefusesToOverwrite(t *testing.T) {
	mem := afero.NewMemMapFs()
	names := stage(t, mem, map[string]string{"a": "1"})
	require.NoError(t, afero.WriteFile(mem, "/snap.archive", []byte("keep"), 0o644))

	err := archive.Pack(mem, "/snap.archive", "/stage", names, archive.Gzip)
	assert.True(t, errors.Is(err, apperr.ErrAlreadyExists))

	data, err := afero.ReadFile(mem, "/snap.archive")
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
}

func TestPackMissingEntryLeavesNothing(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("/stage", 0o755))

	err := archive.Pack(mem, "/snaps/x.archive", "/stage", []string{"gone"}, archive.Gzip)
	require.Error(t, err)

	entries, err := afero.ReadDir(mem, "/snaps")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWalkStreamsEntries(t *testing.T) {
	mem := afero.NewMemMapFs()
	names := stage(t, mem, map[string]string{"one": "1", "two": "22"})
	require.NoError(t, archive.Pack(mem, "/a.archive", "/stage", names, archive.Gzip))

	sizes := map[string]int{}
	err := archive.Walk(mem, "/a.archive", func(name string, r io.Reader) error {
		b, err := io.ReadAll(r)
		sizes[name] = len(b)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"one": 1, "two": 2}, sizes)
}

func TestWalkMissingArchive(t *testing.T) {
	err := archive.Walk(afero.NewMemMapFs(), "/nope.archive", func(string, io.Reader) error { return nil })
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestUnpackRejectsUnsafeEntries(t *testing.T) {
	cases := map[string][]*tar.Header{
		"parent escape": {{Typeflag: tar.TypeReg, Name: "../evil", Mode: 0o644, Size: 1}},
		"nested":        {{Typeflag: tar.TypeReg, Name: "a/b", Mode: 0o644, Size: 1}},
		"absolute":      {{Typeflag: tar.TypeReg, Name: "/etc/passwd", Mode: 0o644, Size: 1}},
		"symlink":       {{Typeflag: tar.TypeSymlink, Name: "link", Linkname: "/etc/passwd"}},
		"directory":     {{Typeflag: tar.TypeDir, Name: "dir", Mode: 0o755}},
		"duplicate": {
			{Typeflag: tar.TypeReg, Name: "a", Mode: 0o644, Size: 1},
			{Typeflag: tar.TypeReg, Name: "a", Mode: 0o644, Size: 1},
		},
	}
	for name, headers := range cases {
		t.Run(name, func(t *testing.T) {
			mem := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(mem, "/bad.archive", rawTar(t, headers...), 0o644))

			_, err := archive.Unpack(mem, "/bad.archive", "/out")
			assert.True(t, errors.Is(err, apperr.ErrCorruptArchive), "%v", err)

			ok, _ := afero.Exists(mem, "/evil")
			assert.False(t, ok)
		})
	}
}

func TestUnpackGarbage(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/junk.archive", []byte{0x1f, 0x8b, 0, 1, 2}, 0o644))

	_, err := archive.Unpack(mem, "/junk.archive", "/out")
	assert.True(t, errors.Is(err, apperr.ErrCorruptArchive))
}

func TestParseCompression(t *testing.T) {
	c, err := archive.ParseCompression("")
	require.NoError(t, err)
	assert.Equal(t, archive.Gzip, c)

	_, err = archive.ParseCompression("zstd")
	assert.Error(t, err)
}

func TestCleanupTemp(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/snaps/.pack-123", []byte("half"), 0o644))
	require.NoError(t, afero.WriteFile(mem, "/snaps/.pack-456", nil, 0o644))
	require.NoError(t, afero.WriteFile(mem, "/snaps/p[0].archive", []byte("done"), 0o644))

	n, err := archive.CleanupTemp(mem, "/snaps")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := afero.ReadDir(mem, "/snaps")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "p[0].archive", left[0].Name())

	n, err = archive.CleanupTemp(mem, "/nope")
	require.NoError(t, err)
	assert.Zero(t, n)
}
