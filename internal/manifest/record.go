// Package manifest holds the ordered file records of a profile and their
// on-disk encoding.
package manifest

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"time"
)

// FormatVersion is written into every document this package encodes.
const FormatVersion = "1.0.0"

// Record is one tracked file. RelPath is slash-separated and relative to the
// home root. Digest and Mode stay empty in a live profile; they are populated
// only in the copy embedded in a snapshot.
type Record struct {
	Index   int         `json:"index"`
	Name    string      `json:"name"`
	RelPath string      `json:"relpath"`
	Digest  string      `json:"digest"`
	Mode    os.FileMode `json:"mode,omitempty"`
}

// Abs resolves the record against home.
func (r Record) Abs(home string) string {
	return filepath.Join(home, filepath.FromSlash(r.RelPath))
}

// Perm returns the recorded permission bits, or 0644 when none were recorded.
func (r Record) Perm() os.FileMode {
	if p := r.Mode.Perm(); p != 0 {
		return p
	}
	return 0o644
}

// Document is the persisted form of a manifest. The header fields are only
// set on the copy embedded in a snapshot archive.
type Document struct {
	Format    string    `json:"format,omitempty"`
	Profile   string    `json:"profile,omitempty"`
	Sequence  int       `json:"sequence,omitempty"`
	Algorithm string    `json:"algorithm,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	Files     []Record  `json:"files"`
}

// Len returns the number of records.
func (d *Document) Len() int { return len(d.Files) }

// Records yields the records in stored order. The sequence can be ranged over
// any number of times.
func (d *Document) Records() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, r := range d.Files {
			if !yield(r) {
				return
			}
		}
	}
}

// Field selects a single projected column of a live record.
type Field string

const (
	FieldName Field = "name"
	FieldPath Field = "path"
)

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldName, FieldPath:
		return f, nil
	}
	return "", fmt.Errorf("unknown field %q (want name or path)", s)
}

// Field yields one projected value per record in stored order.
func (d *Document) Field(f Field) iter.Seq[string] {
	return func(yield func(string) bool) {
		for r := range d.Records() {
			var v string
			switch f {
			case FieldName:
				v = r.Name
			case FieldPath:
				v = r.RelPath
			}
			if !yield(v) {
				return
			}
		}
	}
}

// Digests returns each distinct non-empty digest once, in first-seen order.
func (d *Document) Digests() []string {
	seen := make(map[string]struct{}, len(d.Files))
	out := make([]string, 0, len(d.Files))
	for _, r := range d.Files {
		if r.Digest == "" {
			continue
		}
		if _, ok := seen[r.Digest]; ok {
			continue
		}
		seen[r.Digest] = struct{}{}
		out = append(out, r.Digest)
	}
	return out
}

// Lookup returns the record with the given relative path.
func (d *Document) Lookup(rel string) (Record, bool) {
	for _, r := range d.Files {
		if r.RelPath == rel {
			return r, true
		}
	}
	return Record{}, false
}

// reindex renumbers records so indices match positions.
func (d *Document) reindex() {
	for i := range d.Files {
		d.Files[i].Index = i
	}
}
