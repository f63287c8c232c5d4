package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/family"
)

// FromTree converts t back to a document rooted at rootID.
func FromTree(t *family.Tree, rootID, title string) (*Document, error) {
	rec, ok := t.ToRecord(rootID)
	if !ok {
		return nil, ferrors.New(ferrors.ErrCodeUnknownRoot, "root %q is not in the tree", rootID)
	}
	return &Document{Title: title, Root: rootID, Tree: rec}, nil
}

// Write encodes doc to w.
func Write(w io.Writer, doc *Document, f Format) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	default:
		return ferrors.New(ferrors.ErrCodeInvalidFormat, "unsupported format %q", f)
	}
	return nil
}

// WriteJSON encodes doc as indented JSON.
func WriteJSON(w io.Writer, doc *Document) error { return Write(w, doc, JSON) }

// WriteYAML encodes doc as YAML.
func WriteYAML(w io.Writer, doc *Document) error { return Write(w, doc, YAML) }

// Export writes doc to path, choosing the format by extension.
func Export(doc *Document, path string) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(file, doc, f); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
