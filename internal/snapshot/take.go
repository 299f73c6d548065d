package snapshot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/keshon/fossil/internal/apperr"
	"github.com/keshon/fossil/internal/archive"
	"github.com/keshon/fossil/internal/catalog"
	"github.com/keshon/fossil/internal/config"
	"github.com/keshon/fossil/internal/manifest"
	"github.com/keshon/fossil/internal/scratch"
	"github.com/keshon/fossil/internal/util"
)

// Result describes a snapshot that was written.
type Result struct {
	Profile   string
	Sequence  int
	Archive   string
	Records   []manifest.Record
	Blobs     int
	Bytes     int64
	CreatedAt time.Time
}

// Take captures every tracked file of the profile into a new archive.
//
// Files are hashed while they are copied into the scratch area, so each
// recorded digest names exactly the bytes stored under it. A tracked file
// that cannot be read aborts the snapshot with apperr.ErrSourceFileMissing
// and nothing is written. The live manifest is only read.
func (e *Engine) Take(ctx context.Context) (Result, error) {
	if err := e.requireProfile(); err != nil {
		return Result{}, err
	}
	live, err := e.Store.Load()
	if err != nil {
		return Result{}, err
	}

	release, err := e.acquire()
	if err != nil {
		return Result{}, err
	}
	defer release()

	records, staged, err := e.stageAll(ctx, live.Files)
	if err != nil {
		return Result{}, err
	}

	seq, err := e.nextSequence(ctx)
	if err != nil {
		return Result{}, err
	}
	doc := &manifest.Document{
		Profile:   e.Profile,
		Sequence:  seq,
		Algorithm: string(e.Algorithm),
		CreatedAt: e.clock().Now().UTC(),
		Files:     records,
	}
	data, err := manifest.Encode(doc)
	if err != nil {
		return Result{}, err
	}
	if err := e.Scratch.Put(config.SnapshotManifest, data); err != nil {
		return Result{}, fmt.Errorf("stage manifest: %w", err)
	}

	blobs := doc.Digests()
	sizes := make(map[string]int64, len(blobs))
	for _, st := range staged {
		sizes[st.Digest] = st.Size
	}
	var size int64
	for _, n := range sizes {
		size += n
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	dst := e.Layout.ArchivePath(e.Profile, seq)
	if n, err := archive.CleanupTemp(e.FS, filepath.Dir(dst)); err != nil {
		e.log().WithError(err).Warn("Failed to remove stale partial archives")
	} else if n > 0 {
		e.log().WithField("count", n).Debug("Removed stale partial archives")
	}
	names := append([]string{config.SnapshotManifest}, blobs...)
	if err := archive.Pack(e.FS, dst, e.Scratch.Dir, names, e.Compression); err != nil {
		return Result{}, fmt.Errorf("write snapshot %q: %w", dst, err)
	}

	res := Result{
		Profile:   e.Profile,
		Sequence:  seq,
		Archive:   dst,
		Records:   records,
		Blobs:     len(blobs),
		Bytes:     size,
		CreatedAt: doc.CreatedAt,
	}
	e.record(ctx, res)

	e.log().WithFields(logrus.Fields{
		"sequence": seq,
		"archive":  dst,
		"files":    len(records),
		"blobs":    len(blobs),
	}).Info("Snapshot written")
	return res, nil
}

// stageAll copies every record's file into scratch in parallel and returns
// the records with digests set, in their original order.
func (e *Engine) stageAll(ctx context.Context, live []manifest.Record) ([]manifest.Record, []scratch.Staged, error) {
	records := make([]manifest.Record, len(live))
	copy(records, live)
	staged := make([]scratch.Staged, len(live))

	bar := e.progress(len(records), "Staging files")
	defer bar.Finish()

	err := util.Parallel(ctx, records, e.Workers, func(ctx context.Context, i int, r manifest.Record) error {
		st, err := e.Scratch.StageFile(ctx, r.Abs(e.Home), e.Algorithm)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.Path("snapshot", r.RelPath, apperr.ErrSourceFileMissing)
			}
			return err
		}
		records[i].Digest, records[i].Mode = st.Digest, st.Mode
		staged[i] = st
		bar.Increment()
		e.log().WithFields(logrus.Fields{"path": r.RelPath, "digest": st.Digest}).Debug("Staged file")
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return records, staged, nil
}

// record adds the snapshot to the catalog. The archive is already complete,
// so a catalog failure is only logged.
func (e *Engine) record(ctx context.Context, res Result) {
	if e.Catalog == nil {
		return
	}
	_, err := e.Catalog.Record(ctx, catalog.Entry{
		Profile:   res.Profile,
		Sequence:  res.Sequence,
		Archive:   res.Archive,
		Algorithm: string(e.Algorithm),
		Files:     len(res.Records),
		Blobs:     res.Blobs,
		Bytes:     res.Bytes,
		CreatedAt: res.CreatedAt,
	})
	if err != nil {
		e.log().WithError(err).Warn("Failed to record snapshot in catalog")
	}
}
