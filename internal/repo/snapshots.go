package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/keshon/fossil/internal/snapshot"
)

// Snapshot captures the active profile into a new archive.
func (r *Repository) Snapshot(ctx context.Context) (res snapshot.Result, err error) {
	eng, err := r.Engine()
	if err != nil {
		return snapshot.Result{}, err
	}
	err = r.locked(ctx, func() error {
		res, err = eng.Take(ctx)
		return err
	})
	return res, err
}

// Restore writes the files of an archive back to disk. The archive may be
// given as a path or as a sequence number of the active profile.
func (r *Repository) Restore(ctx context.Context, ref string, opts snapshot.RestoreOptions) (res snapshot.RestoreResult, err error) {
	path, err := r.ResolveArchive(ref)
	if err != nil {
		return snapshot.RestoreResult{}, err
	}
	// restoring does not depend on a profile being selected
	eng := r.EngineFor("")
	if p, err := r.Profiles.Active(); err == nil {
		eng = r.EngineFor(p.Name)
	}
	err = r.locked(ctx, func() error {
		res, err = eng.Restore(ctx, path, opts)
		return err
	})
	return res, err
}

// Verify checks an archive given as a path or sequence number.
func (r *Repository) Verify(ctx context.Context, ref string) (snapshot.VerifyReport, error) {
	path, err := r.ResolveArchive(ref)
	if err != nil {
		return snapshot.VerifyReport{}, err
	}
	return r.EngineFor("").Verify(ctx, path)
}

// Status compares the tracked files with the newest snapshot.
func (r *Repository) Status(ctx context.Context) ([]snapshot.Change, error) {
	eng, err := r.Engine()
	if err != nil {
		return nil, err
	}
	return eng.Status(ctx)
}

// Snapshots lists the snapshots of the active profile.
func (r *Repository) Snapshots(ctx context.Context) ([]snapshot.Listing, error) {
	eng, err := r.Engine()
	if err != nil {
		return nil, err
	}
	return eng.List(ctx)
}

// Prune drops catalog rows of archives deleted by hand.
func (r *Repository) Prune(ctx context.Context) (n int, err error) {
	eng, err := r.Engine()
	if err != nil {
		return 0, err
	}
	err = r.locked(ctx, func() error {
		n, err = eng.Prune(ctx)
		return err
	})
	return n, err
}

// ResolveArchive turns a sequence number of the active profile or a file
// path into an absolute archive path.
func (r *Repository) ResolveArchive(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty archive reference")
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 0 {
		p, err := r.Profiles.Active()
		if err != nil {
			return "", err
		}
		return r.Layout.ArchivePath(p.Name, n), nil
	}
	abs, err := filepath.Abs(ref)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", ref, err)
	}
	return abs, nil
}
