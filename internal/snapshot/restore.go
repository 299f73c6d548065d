package snapshot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/keshon/fossil/internal/apperr"
	"github.com/keshon/fossil/internal/archive"
	"github.com/keshon/fossil/internal/config"
	"github.com/keshon/fossil/internal/digest"
	"github.com/keshon/fossil/internal/fs"
	"github.com/keshon/fossil/internal/manifest"
)

// RestoreOptions tune a restore.
type RestoreOptions struct {
	// Root replaces the home root as the base of every restored path.
	Root string
}

// RestoreResult describes a finished restore.
type RestoreResult struct {
	Archive  string
	Profile  string
	Sequence int
	Root     string
	Restored []manifest.Record
}

// Restore writes every file recorded in the archive back to its path under
// the home root (or opts.Root). Parent directories are created, existing
// files are replaced atomically and files the archive does not mention are
// left alone. Every blob is re-hashed before any file is touched, so a
// damaged archive fails with apperr.ErrCorruptArchive without side effects.
func (e *Engine) Restore(ctx context.Context, path string, opts RestoreOptions) (RestoreResult, error) {
	if !fs.Exists(e.FS, path) {
		return RestoreResult{}, apperr.Path("restore", path, apperr.ErrNotFound)
	}
	root := e.Home
	if opts.Root != "" {
		root = filepath.Clean(opts.Root)
	}

	release, err := e.acquire()
	if err != nil {
		return RestoreResult{}, err
	}
	defer release()

	if _, err := archive.Unpack(e.FS, path, e.Scratch.Dir); err != nil {
		return RestoreResult{}, err
	}
	data, err := e.Scratch.Get(config.SnapshotManifest)
	if err != nil {
		return RestoreResult{}, apperr.Path("restore", path,
			fmt.Errorf("%w: no %s entry", apperr.ErrCorruptArchive, config.SnapshotManifest))
	}
	doc, alg, err := decodeEmbedded(data)
	if err != nil {
		return RestoreResult{}, apperr.Path("restore", path, err)
	}

	if err := e.checkBlobs(ctx, path, doc.Digests(), alg); err != nil {
		return RestoreResult{}, err
	}

	bar := e.progress(doc.Len(), "Restoring files")
	defer bar.Finish()

	for r := range doc.Records() {
		if err := ctx.Err(); err != nil {
			return RestoreResult{}, err
		}
		dst := r.Abs(root)
		if err := fs.CopyFileAtomic(e.FS, e.Scratch.Path(r.Digest), dst, r.Perm()); err != nil {
			return RestoreResult{}, fmt.Errorf("restore %q: %w", r.RelPath, err)
		}
		bar.Increment()
		e.log().WithFields(logrus.Fields{"path": r.RelPath, "digest": r.Digest}).Debug("Restored file")
	}

	e.log().WithFields(logrus.Fields{
		"archive":  path,
		"sequence": doc.Sequence,
		"root":     root,
		"files":    doc.Len(),
	}).Info("Snapshot restored")

	return RestoreResult{
		Archive:  path,
		Profile:  doc.Profile,
		Sequence: doc.Sequence,
		Root:     root,
		Restored: doc.Files,
	}, nil
}

// checkBlobs confirms that each digest has an extracted blob whose content
// hashes to its name.
func (e *Engine) checkBlobs(ctx context.Context, path string, digests []string, alg digest.Algorithm) error {
	paths := make([]string, len(digests))
	for i, d := range digests {
		paths[i] = e.Scratch.Path(d)
	}
	sums, err := digest.NewComputer(e.FS, alg).SumAll(ctx, paths, e.Workers)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var pe *apperr.PathError
		if errors.As(err, &pe) && errors.Is(err, apperr.ErrNotFound) {
			return apperr.Path("restore", path, fmt.Errorf("%w: missing blob %s", apperr.ErrCorruptArchive, filepath.Base(pe.Path)))
		}
		return apperr.Path("restore", path, fmt.Errorf("%w: %v", apperr.ErrCorruptArchive, err))
	}
	for i, d := range digests {
		if sums[i] != d {
			return apperr.Path("restore", path, fmt.Errorf("%w: blob %s hashes to %s", apperr.ErrCorruptArchive, d, sums[i]))
		}
	}
	return nil
}
