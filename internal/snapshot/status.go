package snapshot

import (
	"context"
	"errors"

	"github.com/keshon/fossil/internal/apperr"
	"github.com/keshon/fossil/internal/digest"
	"github.com/keshon/fossil/internal/manifest"
	"github.com/keshon/fossil/internal/util"
)

// State classifies a tracked file against the newest snapshot.
type State string

const (
	Unchanged State = "unchanged"
	Modified  State = "modified"
	Added     State = "new"
	Missing   State = "missing"
	// Untracked files are in the newest snapshot but no longer in the profile.
	Untracked State = "untracked"
)

// Change is the state of one tracked file.
type Change struct {
	Record   manifest.Record
	State    State
	Digest   string // current content, empty when Missing
	Previous string // digest in the newest snapshot, empty when Added
}

// Status re-hashes the tracked files and compares them with the newest
// snapshot of the profile. Without any snapshot every present file is Added.
func (e *Engine) Status(ctx context.Context) ([]Change, error) {
	if err := e.requireProfile(); err != nil {
		return nil, err
	}
	live, err := e.Store.Load()
	if err != nil {
		return nil, err
	}

	alg := e.Algorithm
	var last *manifest.Document
	seqs, err := e.archived()
	if err != nil {
		return nil, err
	}
	if len(seqs) > 0 {
		last, err = ReadManifest(e.FS, e.Layout.ArchivePath(e.Profile, seqs[len(seqs)-1]))
		if err != nil {
			return nil, err
		}
		// compare with the algorithm the snapshot was taken with
		alg = digest.Algorithm(last.Algorithm)
	}

	comp := digest.NewComputer(e.FS, alg)
	changes := make([]Change, live.Len())
	err = util.Parallel(ctx, live.Files, e.Workers, func(_ context.Context, i int, r manifest.Record) error {
		c := Change{Record: r}
		if last != nil {
			if prev, ok := last.Lookup(r.RelPath); ok {
				c.Previous = prev.Digest
			}
		}

		sum, err := comp.Sum(r.Abs(e.Home))
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			c.State = Missing
		case err != nil:
			return err
		case c.Previous == "":
			c.State, c.Digest = Added, sum
		case c.Previous == sum:
			c.State, c.Digest = Unchanged, sum
		default:
			c.State, c.Digest = Modified, sum
		}
		changes[i] = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	if last != nil {
		for r := range last.Records() {
			if _, ok := live.Lookup(r.RelPath); !ok {
				changes = append(changes, Change{Record: r, State: Untracked, Previous: r.Digest})
			}
		}
	}
	return changes, nil
}

// Drift reports whether any change would make a new snapshot differ from
// the newest one.
func Drift(changes []Change) bool {
	for _, c := range changes {
		if c.State != Unchanged {
			return true
		}
	}
	return false
}
