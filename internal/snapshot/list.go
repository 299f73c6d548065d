package snapshot

import (
	"context"
	"sort"

	"github.com/keshon/fossil/internal/catalog"
	"github.com/keshon/fossil/internal/fs"
)

// Listing is a snapshot known from the catalog, the snapshots directory or both.
type Listing struct {
	catalog.Entry
	// Present is false when the archive was deleted by hand.
	Present bool
	// Cataloged is false for archives the catalog has no row for.
	Cataloged bool
}

// List returns the snapshots of the profile ordered by sequence number.
func (e *Engine) List(ctx context.Context) ([]Listing, error) {
	if err := e.requireProfile(); err != nil {
		return nil, err
	}

	bySeq := map[int]*Listing{}
	if e.Catalog != nil {
		entries, err := e.Catalog.List(ctx, e.Profile)
		if err != nil {
			return nil, err
		}
		for _, ent := range entries {
			bySeq[ent.Sequence] = &Listing{
				Entry:     ent,
				Present:   fs.Exists(e.FS, ent.Archive),
				Cataloged: true,
			}
		}
	}

	seqs, err := e.archived()
	if err != nil {
		return nil, err
	}
	for _, n := range seqs {
		if l, ok := bySeq[n]; ok {
			l.Present = true
			continue
		}
		bySeq[n] = &Listing{
			Entry: catalog.Entry{
				Profile:  e.Profile,
				Sequence: n,
				Archive:  e.Layout.ArchivePath(e.Profile, n),
			},
			Present: true,
		}
	}

	out := make([]Listing, 0, len(bySeq))
	for _, l := range bySeq {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

// Prune forgets catalog rows whose archive no longer exists. Archives are
// never deleted.
func (e *Engine) Prune(ctx context.Context) (int, error) {
	if e.Catalog == nil {
		return 0, nil
	}
	list, err := e.List(ctx)
	if err != nil {
		return 0, err
	}
	var ids []string
	for _, l := range list {
		if l.Cataloged && !l.Present {
			ids = append(ids, l.ID)
		}
	}
	n, err := e.Catalog.Forget(ctx, ids...)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		e.log().WithField("rows", n).Info("Pruned catalog")
	}
	return n, nil
}
