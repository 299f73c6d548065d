package snapshot

import (
	"fmt"
	"io"

	goversion "github.com/hashicorp/go-version"
	"github.com/spf13/afero"

	"github.com/keshon/fossil/internal/apperr"
	"github.com/keshon/fossil/internal/archive"
	"github.com/keshon/fossil/internal/config"
	"github.com/keshon/fossil/internal/digest"
	"github.com/keshon/fossil/internal/manifest"
)

// readableMajor is the manifest format major version this build can restore.
const readableMajor = 1

// decodeEmbedded parses the manifest stored inside an archive and checks the
// parts a live manifest may omit: format version and algorithm.
func decodeEmbedded(data []byte) (*manifest.Document, digest.Algorithm, error) {
	doc, err := manifest.Decode(data)
	if err != nil {
		return nil, "", err
	}
	if err := checkFormat(doc.Format); err != nil {
		return nil, "", err
	}
	alg, err := digest.Parse(doc.Algorithm)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", apperr.ErrCorruptManifest, err)
	}
	for _, r := range doc.Files {
		if !alg.Valid(r.Digest) {
			return nil, "", fmt.Errorf("%w: record %d has malformed digest %q", apperr.ErrCorruptManifest, r.Index, r.Digest)
		}
	}
	return doc, alg, nil
}

func checkFormat(s string) error {
	if s == "" {
		return fmt.Errorf("%w: missing format version", apperr.ErrCorruptManifest)
	}
	v, err := goversion.NewVersion(s)
	if err != nil {
		return fmt.Errorf("%w: format %q: %v", apperr.ErrCorruptManifest, s, err)
	}
	if major := v.Segments()[0]; major != readableMajor {
		return fmt.Errorf("%w: format %s (readable: %d.x)", apperr.ErrUnsupportedFormat, v, readableMajor)
	}
	return nil
}

// ReadManifest returns the manifest embedded in an archive without extracting
// any blob.
func ReadManifest(fsys afero.Fs, path string) (*manifest.Document, error) {
	var data []byte
	err := archive.Walk(fsys, path, func(name string, r io.Reader) error {
		if name != config.SnapshotManifest {
			return nil
		}
		b, err := io.ReadAll(r)
		data = b
		return err
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, apperr.Path("read snapshot", path, fmt.Errorf("%w: no %s entry", apperr.ErrCorruptArchive, config.SnapshotManifest))
	}
	doc, _, err := decodeEmbedded(data)
	if err != nil {
		return nil, apperr.Path("read snapshot", path, err)
	}
	return doc, nil
}
