package snapshot

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/keshon/fossil/internal/apperr"
	"github.com/keshon/fossil/internal/archive"
	"github.com/keshon/fossil/internal/config"
	"github.com/keshon/fossil/internal/digest"
)

// VerifyReport lists what is wrong with an archive, if anything.
type VerifyReport struct {
	Archive   string
	Profile   string
	Sequence  int
	Algorithm digest.Algorithm
	Files     int
	Blobs     int
	// Damaged blobs do not hash to their name.
	Damaged []string
	// Missing digests are referenced by the manifest but have no blob.
	Missing []string
	// Orphans are blobs no record references.
	Orphans []string
}

// OK reports whether every record can be restored from the archive.
func (r VerifyReport) OK() bool {
	return len(r.Damaged) == 0 && len(r.Missing) == 0
}

// Verify reads the archive once without extracting it, hashing every blob
// with each supported algorithm and checking the results against the
// embedded manifest. Structural problems are returned as errors; content
// problems are listed in the report.
func (e *Engine) Verify(ctx context.Context, path string) (VerifyReport, error) {
	var (
		manifestData []byte
		sums         = map[string]map[digest.Algorithm]string{}
	)
	algs := []digest.Algorithm{digest.XXH3, digest.SHA256}

	err := archive.Walk(e.FS, path, func(name string, r io.Reader) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if name == config.SnapshotManifest {
			b, err := io.ReadAll(r)
			manifestData = b
			return err
		}

		hashers := make([]digest.Hasher, len(algs))
		writers := make([]io.Writer, len(algs))
		for i, a := range algs {
			hashers[i] = a.New()
			writers[i] = hashers[i]
		}
		if _, err := io.Copy(io.MultiWriter(writers...), r); err != nil {
			return apperr.Path("verify", path, fmt.Errorf("%w: read %s: %v", apperr.ErrCorruptArchive, name, err))
		}
		got := make(map[digest.Algorithm]string, len(algs))
		for i, a := range algs {
			got[a] = hashers[i].Hex()
		}
		sums[name] = got
		return nil
	})
	if err != nil {
		return VerifyReport{}, err
	}
	if manifestData == nil {
		return VerifyReport{}, apperr.Path("verify", path,
			fmt.Errorf("%w: no %s entry", apperr.ErrCorruptArchive, config.SnapshotManifest))
	}
	doc, alg, err := decodeEmbedded(manifestData)
	if err != nil {
		return VerifyReport{}, apperr.Path("verify", path, err)
	}

	rep := VerifyReport{
		Archive:   path,
		Profile:   doc.Profile,
		Sequence:  doc.Sequence,
		Algorithm: alg,
		Files:     doc.Len(),
		Blobs:     len(sums),
	}
	referenced := make(map[string]struct{})
	for _, d := range doc.Digests() {
		referenced[d] = struct{}{}
		if _, ok := sums[d]; !ok {
			rep.Missing = append(rep.Missing, d)
		}
	}
	for name, got := range sums {
		if _, ok := referenced[name]; !ok {
			rep.Orphans = append(rep.Orphans, name)
			continue
		}
		if got[alg] != name {
			rep.Damaged = append(rep.Damaged, name)
		}
	}
	sort.Strings(rep.Damaged)
	sort.Strings(rep.Orphans)

	e.log().WithField("archive", path).WithField("ok", rep.OK()).Debug("Verified snapshot")
	return rep, nil
}
