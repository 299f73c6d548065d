// Package repo wires fossil's components together behind one Repository,
// the single entry point used by commands.
package repo

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/keshon/fossil/internal/archive"
	"github.com/keshon/fossil/internal/catalog"
	"github.com/keshon/fossil/internal/config"
	"github.com/keshon/fossil/internal/digest"
	"github.com/keshon/fossil/internal/fs"
	"github.com/keshon/fossil/internal/lock"
	"github.com/keshon/fossil/internal/profile"
	"github.com/keshon/fossil/internal/progress"
	"github.com/keshon/fossil/internal/snapshot"
	"github.com/keshon/fossil/internal/util"
)

// Repository is an initialized fossil base directory.
type Repository struct {
	Config      *config.Config
	FS          afero.Fs
	Layout      config.Layout
	Profiles    *profile.Registry
	Catalog     snapshot.Catalog
	Locker      *lock.Locker
	Log         logrus.FieldLogger
	Progress    progress.Factory
	Algorithm   digest.Algorithm
	Compression archive.Compression

	closeCatalog func() error
}

// Options allows optional dependency injection.
type Options struct {
	FS       afero.Fs
	Log      logrus.FieldLogger
	Progress progress.Factory
	// Catalog replaces the SQLite catalog under the base dir. The SQLite
	// catalog always lives on the real disk, whatever FS is.
	Catalog snapshot.Catalog
}

// Open prepares the base directory on first use and opens the catalog.
// Close must be called when done.
func Open(cfg *config.Config, opts *Options) (*Repository, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil Config provided")
	}
	if opts == nil {
		opts = &Options{}
	}

	alg, err := digest.Parse(cfg.Hash)
	if err != nil {
		return nil, err
	}
	comp, err := archive.ParseCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}

	r := &Repository{
		Config:      cfg,
		FS:          opts.FS,
		Layout:      cfg.Layout(),
		Log:         opts.Log,
		Progress:    opts.Progress,
		Algorithm:   alg,
		Compression: comp,
		Catalog:     opts.Catalog,
	}
	if r.FS == nil {
		r.FS = fs.NewOSFS()
	}
	if r.Log == nil {
		r.Log = logrus.StandardLogger()
	}
	if r.Progress == nil {
		r.Progress = progress.Nop
	}
	r.Profiles = profile.NewRegistry(r.FS, r.Layout, cfg.HomeDir)
	r.Locker = lock.New(r.Layout.LockFile())

	created, err := r.Profiles.Init()
	if err != nil {
		return nil, fmt.Errorf("init %q: %w", r.Layout.Base, err)
	}
	if created {
		r.Log.WithField("base", r.Layout.Base).Debug("Initialized fossil base directory")
	}

	// SQLite opens its file through the OS, never through FS. Callers
	// injecting an in-memory FS should inject a Catalog as well.
	if r.Catalog == nil {
		if err := r.FS.MkdirAll(r.Layout.Base, 0o755); err != nil {
			return nil, fmt.Errorf("create dir %q: %w", r.Layout.Base, err)
		}
		db, err := catalog.Open(r.Layout.CatalogFile())
		if err != nil {
			return nil, err
		}
		r.Catalog = db
		r.closeCatalog = db.Close
	}
	return r, nil
}

// Close releases the catalog.
func (r *Repository) Close() error {
	if r.closeCatalog == nil {
		return nil
	}
	return r.closeCatalog()
}

// Engine returns a snapshot engine for the active profile.
func (r *Repository) Engine() (*snapshot.Engine, error) {
	p, err := r.Profiles.Active()
	if err != nil {
		return nil, err
	}
	return r.EngineFor(p.Name), nil
}

// EngineFor returns a snapshot engine for the named profile.
func (r *Repository) EngineFor(name string) *snapshot.Engine {
	eng := snapshot.New(r.FS, r.Layout, r.Config.HomeDir, name)
	eng.Store = r.Profiles.Store(name)
	eng.Catalog = r.Catalog
	eng.Algorithm = r.Algorithm
	eng.Compression = r.Compression
	eng.Workers = util.WorkerCount(r.Config.Workers)
	eng.Log = r.Log
	eng.Progress = r.Progress
	return eng
}

// locked runs fn while holding the repository lock.
func (r *Repository) locked(ctx context.Context, fn func() error) error {
	unlock, err := r.Locker.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}
