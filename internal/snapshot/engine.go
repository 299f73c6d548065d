// Package snapshot takes, restores and checks snapshot archives of a profile.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/keshon/fossil/internal/apperr"
	"github.com/keshon/fossil/internal/archive"
	"github.com/keshon/fossil/internal/catalog"
	"github.com/keshon/fossil/internal/config"
	"github.com/keshon/fossil/internal/digest"
	"github.com/keshon/fossil/internal/manifest"
	"github.com/keshon/fossil/internal/progress"
	"github.com/keshon/fossil/internal/scratch"
)

// Catalog records snapshots and hands out sequence numbers.
type Catalog interface {
	Next(ctx context.Context, profile string, floor int) (int, error)
	Record(ctx context.Context, e catalog.Entry) (catalog.Entry, error)
	List(ctx context.Context, profile string) ([]catalog.Entry, error)
	Forget(ctx context.Context, ids ...string) (int, error)
}

// Engine operates on the snapshots of a single profile.
type Engine struct {
	FS          afero.Fs
	Layout      config.Layout
	Home        string
	Profile     string
	Store       *manifest.Store
	Scratch     *scratch.Area
	Catalog     Catalog // optional
	Algorithm   digest.Algorithm
	Compression archive.Compression
	Workers     int
	Clock       clockwork.Clock
	Log         logrus.FieldLogger
	Progress    progress.Factory
}

// New returns an Engine for profile with defaults for everything optional.
func New(fsys afero.Fs, layout config.Layout, home, profile string) *Engine {
	return &Engine{
		FS:          fsys,
		Layout:      layout,
		Home:        home,
		Profile:     profile,
		Store:       manifest.NewStore(fsys, layout.ProfileManifest(profile), home),
		Scratch:     scratch.New(fsys, layout.BufferDir()),
		Algorithm:   digest.XXH3,
		Compression: archive.Gzip,
		Workers:     1,
		Clock:       clockwork.NewRealClock(),
		Log:         logrus.StandardLogger(),
		Progress:    progress.Nop,
	}
}

func (e *Engine) log() logrus.FieldLogger {
	if e.Log == nil {
		return logrus.StandardLogger()
	}
	return e.Log.WithField("profile", e.Profile)
}

func (e *Engine) progress(total int, message string) progress.Tracker {
	if e.Progress == nil {
		return progress.Nop(total, message)
	}
	return e.Progress(total, message)
}

func (e *Engine) clock() clockwork.Clock {
	if e.Clock == nil {
		return clockwork.NewRealClock()
	}
	return e.Clock
}

func (e *Engine) requireProfile() error {
	if e.Profile == "" {
		return apperr.ErrNoActiveProfile
	}
	return nil
}

// acquire resets the scratch area and returns its release func, which logs
// instead of failing so it can run on every exit path.
func (e *Engine) acquire() (release func(), err error) {
	if err := e.Scratch.Acquire(); err != nil {
		return nil, err
	}
	return func() {
		if err := e.Scratch.Release(); err != nil {
			e.log().WithError(err).Warn("Failed to release scratch area")
		}
	}, nil
}

// archived lists the sequence numbers of the archives of the profile
// present on disk, ascending.
func (e *Engine) archived() ([]int, error) {
	dir := e.Layout.ProfileSnapshotsDir(e.Profile)
	entries, err := afero.ReadDir(e.FS, dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshots dir %q: %w", dir, err)
	}
	var seqs []int
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		if n, ok := config.ParseArchiveName(e.Profile, ent.Name()); ok {
			seqs = append(seqs, n)
		}
	}
	sort.Ints(seqs)
	return seqs, nil
}

// nextSequence picks a number above every archive on disk and, when a
// catalog is configured, above every number it has handed out before.
func (e *Engine) nextSequence(ctx context.Context) (int, error) {
	seqs, err := e.archived()
	if err != nil {
		return 0, err
	}
	floor := 0
	if len(seqs) > 0 {
		floor = seqs[len(seqs)-1] + 1
	}
	if e.Catalog == nil {
		return floor, nil
	}
	seq, err := e.Catalog.Next(ctx, e.Profile, floor)
	if err != nil {
		return 0, fmt.Errorf("reserve sequence number: %w", err)
	}
	return seq, nil
}
