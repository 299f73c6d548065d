package repo

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/keshon/fossil/internal/manifest"
)

// Files returns the live manifest of the active profile.
func (r *Repository) Files() (*manifest.Document, error) {
	p, err := r.Profiles.Active()
	if err != nil {
		return nil, err
	}
	return r.Profiles.Store(p.Name).Load()
}

// Add tracks paths in the active profile and returns the records that were
// new. Paths already tracked are skipped silently.
func (r *Repository) Add(ctx context.Context, paths ...string) (added []manifest.Record, err error) {
	p, err := r.Profiles.Active()
	if err != nil {
		return nil, err
	}
	err = r.locked(ctx, func() error {
		added, err = r.Profiles.Store(p.Name).Add(paths...)
		return err
	})
	if err == nil {
		r.Log.WithFields(logrus.Fields{"profile": p.Name, "added": len(added)}).Debug("Tracked files")
	}
	return added, err
}

// Remove stops tracking the record at index. ok is false when index is out of range.
func (r *Repository) Remove(ctx context.Context, index int) (rec manifest.Record, ok bool, err error) {
	p, err := r.Profiles.Active()
	if err != nil {
		return manifest.Record{}, false, err
	}
	err = r.locked(ctx, func() error {
		rec, ok, err = r.Profiles.Store(p.Name).Remove(index)
		return err
	})
	return rec, ok, err
}

// TrackedPaths returns the absolute paths tracked by the active profile.
func (r *Repository) TrackedPaths() ([]string, error) {
	doc, err := r.Files()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, doc.Len())
	for rec := range doc.Records() {
		out = append(out, rec.Abs(r.Config.HomeDir))
	}
	return out, nil
}
