package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/keshon/fossil/internal/apperr"
)

// Encode serialises doc as indented JSON.
func Encode(doc *Document) ([]byte, error) {
	if doc.Format == "" {
		doc.Format = FormatVersion
	}
	if doc.Files == nil {
		doc.Files = []Record{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses and validates a document. Any structural problem is reported
// as apperr.ErrCorruptManifest.
func Decode(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrCorruptManifest, err)
	}
	if err := Validate(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks index contiguity and relative path uniqueness and safety.
func Validate(doc *Document) error {
	seen := make(map[string]int, len(doc.Files))
	for i, r := range doc.Files {
		if r.Index != i {
			return fmt.Errorf("%w: record %d has index %d", apperr.ErrCorruptManifest, i, r.Index)
		}
		if err := CheckRelPath(r.RelPath); err != nil {
			return fmt.Errorf("%w: record %d: %v", apperr.ErrCorruptManifest, i, err)
		}
		if prev, ok := seen[r.RelPath]; ok {
			return fmt.Errorf("%w: records %d and %d share path %q", apperr.ErrCorruptManifest, prev, i, r.RelPath)
		}
		seen[r.RelPath] = i
	}
	return nil
}

// CheckRelPath rejects empty, absolute, unclean or escaping paths.
func CheckRelPath(rel string) error {
	switch {
	case rel == "" || rel == ".":
		return fmt.Errorf("empty path")
	case path.IsAbs(rel) || strings.Contains(rel, `\`) || (len(rel) > 1 && rel[1] == ':'):
		return fmt.Errorf("absolute path %q", rel)
	case path.Clean(rel) != rel:
		return fmt.Errorf("unclean path %q", rel)
	case rel == ".." || strings.HasPrefix(rel, "../"):
		return fmt.Errorf("path %q escapes the home root", rel)
	}
	return nil
}
