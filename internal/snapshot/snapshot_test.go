package snapshot_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/fossil/internal/apperr"
	"github.com/keshon/fossil/internal/archive"
	"github.com/keshon/fossil/internal/catalog"
	"github.com/keshon/fossil/internal/config"
	"github.com/keshon/fossil/internal/digest"
	"github.com/keshon/fossil/internal/snapshot"
)

const home = "/home/ana"

var takenAt = time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newEngine(t *testing.T, files map[string]string) *snapshot.Engine {
	t.Helper()
	mem := afero.NewMemMapFs()
	eng := snapshot.New(mem, config.DefaultAt(home).Layout(), home, "work")
	eng.Clock = clockwork.NewFakeClockAt(takenAt)
	eng.Log = quietLogger()
	eng.Workers = 4
	require.NoError(t, eng.Store.Create())

	var paths []string
	for rel, body := range files {
		writeFile(t, eng, rel, body)
		paths = append(paths, filepath.Join(home, rel))
	}
	sort.Strings(paths)
	if len(paths) > 0 {
		_, err := eng.Store.Add(paths...)
		require.NoError(t, err)
	}
	return eng
}

func writeFile(t *testing.T, eng *snapshot.Engine, rel, body string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(eng.FS, filepath.Join(home, rel), []byte(body), 0o644))
}

func readFile(t *testing.T, eng *snapshot.Engine, path string) string {
	t.Helper()
	b, err := afero.ReadFile(eng.FS, path)
	require.NoError(t, err)
	return string(b)
}

func entries(t *testing.T, eng *snapshot.Engine, path string) []string {
	t.Helper()
	var names []string
	require.NoError(t, archive.Walk(eng.FS, path, func(name string, _ io.Reader) error {
		names = append(names, name)
		return nil
	}))
	sort.Strings(names)
	return names
}

func assertScratchReleased(t *testing.T, eng *snapshot.Engine) {
	t.Helper()
	ok, err := afero.Exists(eng.FS, eng.Scratch.Dir)
	require.NoError(t, err)
	assert.False(t, ok, "scratch area must not outlive the operation")
}

func TestIdenticalFilesShareOneBlobAndRestore(t *testing.T) {
	eng := newEngine(t, map[string]string{"a.txt": "hello", "b.txt": "hello"})
	ctx := context.Background()
	hello := digest.XXH3.Bytes([]byte("hello"))

	res, err := eng.Take(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Sequence)
	assert.Equal(t, eng.Layout.ArchivePath("work", 0), res.Archive)
	assert.Equal(t, 1, res.Blobs)
	assert.Equal(t, int64(5), res.Bytes)
	assertScratchReleased(t, eng)

	assert.Equal(t, []string{hello, config.SnapshotManifest}, entries(t, eng, res.Archive))

	doc, err := snapshot.ReadManifest(eng.FS, res.Archive)
	require.NoError(t, err)
	require.Len(t, doc.Files, 2)
	for _, r := range doc.Files {
		assert.Equal(t, hello, r.Digest)
	}
	assert.Equal(t, "work", doc.Profile)
	assert.Equal(t, "xxh3", doc.Algorithm)
	assert.True(t, takenAt.Equal(doc.CreatedAt))

	require.NoError(t, eng.FS.Remove(home+"/a.txt"))
	require.NoError(t, eng.FS.Remove(home+"/b.txt"))

	out, err := eng.Restore(ctx, res.Archive, snapshot.RestoreOptions{})
	require.NoError(t, err)
	assert.Len(t, out.Restored, 2)
	assert.Equal(t, "hello", readFile(t, eng, home+"/a.txt"))
	assert.Equal(t, "hello", readFile(t, eng, home+"/b.txt"))
	assertScratchReleased(t, eng)
}

func TestRoundTripNestedAndBinary(t *testing.T) {
	files := map[string]string{
		"docs/report.md":       "# report\n",
		"docs/deep/x/y/z.bin":  string([]byte{0, 1, 2, 255, 254}),
		"empty":                "",
		".config/app/cfg.yaml": "k: v\n",
	}
	eng := newEngine(t, files)
	ctx := context.Background()

	res, err := eng.Take(ctx)
	require.NoError(t, err)

	require.NoError(t, eng.FS.RemoveAll(home+"/docs"))
	writeFile(t, eng, "empty", "changed since")

	_, err = eng.Restore(ctx, res.Archive, snapshot.RestoreOptions{})
	require.NoError(t, err)
	for rel, body := range files {
		assert.Equal(t, body, readFile(t, eng, filepath.Join(home, rel)), rel)
	}
}

func TestRoundTripKeepsFileMode(t *testing.T) {
	dir := t.TempDir()
	osfs := afero.NewOsFs()
	eng := snapshot.New(osfs, config.DefaultAt(dir).Layout(), dir, "work")
	eng.Clock = clockwork.NewFakeClockAt(takenAt)
	eng.Log = quietLogger()
	require.NoError(t, eng.Store.Create())

	script := filepath.Join(dir, "bin", "run.sh")
	plain := filepath.Join(dir, "notes.txt")
	require.NoError(t, osfs.MkdirAll(filepath.Dir(script), 0o755))
	require.NoError(t, afero.WriteFile(osfs, script, []byte("#!/bin/sh\necho hi\n"), 0o755))
	require.NoError(t, osfs.Chmod(script, 0o755))
	require.NoError(t, afero.WriteFile(osfs, plain, []byte("plain"), 0o600))
	require.NoError(t, osfs.Chmod(plain, 0o600))
	_, err := eng.Store.Add(script, plain)
	require.NoError(t, err)

	ctx := context.Background()
	res, err := eng.Take(ctx)
	require.NoError(t, err)

	doc, err := snapshot.ReadManifest(osfs, res.Archive)
	require.NoError(t, err)
	rec, ok := doc.Lookup("bin/run.sh")
	require.True(t, ok)
	assert.Equal(t, os.FileMode(0o755), rec.Mode)

	require.NoError(t, osfs.RemoveAll(filepath.Join(dir, "bin")))
	require.NoError(t, osfs.Remove(plain))

	_, err = eng.Restore(ctx, res.Archive, snapshot.RestoreOptions{})
	require.NoError(t, err)

	info, err := osfs.Stat(script)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	info, err = osfs.Stat(plain)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRestoreToOtherRoot(t *testing.T) {
	eng := newEngine(t, map[string]string{"notes/today.txt": "buy milk"})
	ctx := context.Background()

	res, err := eng.Take(ctx)
	require.NoError(t, err)

	out, err := eng.Restore(ctx, res.Archive, snapshot.RestoreOptions{Root: "/tmp/restore"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/restore", out.Root)
	assert.Equal(t, "buy milk", readFile(t, eng, "/tmp/restore/notes/today.txt"))
}

func TestRestoreLeavesStrayFiles(t *testing.T) {
	eng := newEngine(t, map[string]string{"a.txt": "v1"})
	ctx := context.Background()

	res, err := eng.Take(ctx)
	require.NoError(t, err)

	writeFile(t, eng, "a.txt", "v2")
	writeFile(t, eng, "later.txt", "added after")

	_, err = eng.Restore(ctx, res.Archive, snapshot.RestoreOptions{})
	require.NoError(t, err)
	assert.Equal(t, "v1", readFile(t, eng, home+"/a.txt"))
	assert.Equal(t, "added after", readFile(t, eng, home+"/later.txt"))
}

func TestTakeAbortsOnMissingSource(t *testing.T) {
	eng := newEngine(t, map[string]string{"a.txt": "a", "b.txt": "b"})
	require.NoError(t, eng.FS.Remove(home+"/b.txt"))

	_, err := eng.Take(context.Background())
	assert.True(t, errors.Is(err, apperr.ErrSourceFileMissing), "%v", err)

	ok, err := afero.Exists(eng.FS, eng.Layout.ArchivePath("work", 0))
	require.NoError(t, err)
	assert.False(t, ok, "no archive on failure")
	assertScratchReleased(t, eng)
}

func TestTakeDoesNotWriteLiveManifest(t *testing.T) {
	eng := newEngine(t, map[string]string{"a.txt": "a"})
	before := readFile(t, eng, eng.Store.Path)

	_, err := eng.Take(context.Background())
	require.NoError(t, err)

	assert.Equal(t, before, readFile(t, eng, eng.Store.Path))
	doc, err := eng.Store.Load()
	require.NoError(t, err)
	assert.Empty(t, doc.Files[0].Digest)
}

func TestTakeEmptyProfile(t *testing.T) {
	eng := newEngine(t, nil)

	res, err := eng.Take(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{config.SnapshotManifest}, entries(t, eng, res.Archive))
}

func TestTakeCancelled(t *testing.T) {
	eng := newEngine(t, map[string]string{"a.txt": "a", "b.txt": "b"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Take(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assertScratchReleased(t, eng)

	ok, err := afero.DirExists(eng.FS, eng.Layout.ProfileSnapshotsDir("work"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNoActiveProfile(t *testing.T) {
	eng := newEngine(t, nil)
	eng.Profile = ""

	_, err := eng.Take(context.Background())
	assert.ErrorIs(t, err, apperr.ErrNoActiveProfile)
	_, err = eng.Status(context.Background())
	assert.ErrorIs(t, err, apperr.ErrNoActiveProfile)
}

func TestSequenceNumbersFollowDirectory(t *testing.T) {
	eng := newEngine(t, map[string]string{"a.txt": "a"})
	ctx := context.Background()

	for want := range 3 {
		res, err := eng.Take(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, res.Sequence)
	}

	// an archive deleted from the middle does not cause a collision
	require.NoError(t, eng.FS.Remove(eng.Layout.ArchivePath("work", 1)))
	res, err := eng.Take(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Sequence)
}

func TestSequenceNumbersNeverReusedWithCatalog(t *testing.T) {
	eng := newEngine(t, map[string]string{"a.txt": "a"})
	db, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	eng.Catalog = db
	ctx := context.Background()

	for range 3 {
		_, err := eng.Take(ctx)
		require.NoError(t, err)
	}
	require.NoError(t, eng.FS.Remove(eng.Layout.ArchivePath("work", 2)))

	res, err := eng.Take(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Sequence)

	list, err := eng.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.False(t, list[2].Present)
	assert.True(t, list[3].Present)
	assert.Equal(t, 1, list[3].Files)

	n, err := eng.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	list, err = eng.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestListWithoutCatalog(t *testing.T) {
	eng := newEngine(t, map[string]string{"a.txt": "a"})
	ctx := context.Background()
	_, err := eng.Take(ctx)
	require.NoError(t, err)

	list, err := eng.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Present)
	assert.False(t, list[0].Cataloged)
}

func TestRestoreMissingArchive(t *testing.T) {
	eng := newEngine(t, nil)

	_, err := eng.Restore(context.Background(), "/nowhere.archive", snapshot.RestoreOptions{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTakeWithSHA256(t *testing.T) {
	eng := newEngine(t, map[string]string{"a.txt": "hello"})
	eng.Algorithm = digest.SHA256
	eng.Compression = archive.None

	res, err := eng.Take(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", res.Records[0].Digest)

	rep, err := eng.Verify(context.Background(), res.Archive)
	require.NoError(t, err)
	assert.True(t, rep.OK())
	assert.Equal(t, digest.SHA256, rep.Algorithm)
}

func TestTakeRemovesStalePartialArchives(t *testing.T) {
	eng := newEngine(t, map[string]string{"a.txt": "a"})
	stale := filepath.Join(eng.Layout.ProfileSnapshotsDir("work"), ".pack-crashed")
	require.NoError(t, afero.WriteFile(eng.FS, stale, []byte("partial"), 0o644))

	_, err := eng.Take(context.Background())
	require.NoError(t, err)

	ok, err := afero.Exists(eng.FS, stale)
	require.NoError(t, err)
	assert.False(t, ok)
}
