package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/family"
)

// Format is a document encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// FormatFromPath returns the format implied by the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return "", ferrors.New(ferrors.ErrCodeInvalidFormat, "unsupported file extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
}

// ParseFormat parses "json", "yaml" or "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", ferrors.New(ferrors.ErrCodeInvalidFormat, "unsupported format %q", s)
}

// Document is a family tree with its metadata.
type Document struct {
	Title string        `json:"title,omitempty" yaml:"title,omitempty"`
	Root  string        `json:"root,omitempty" yaml:"root,omitempty"`
	Tree  family.Record `json:"tree" yaml:"tree"`
}

// RootID returns the root person: Root when set, else the top record.
func (d *Document) RootID() string {
	if d.Root != "" {
		return d.Root
	}
	return d.Tree.ID
}

// Build converts the document to a tree and returns it with its root ID.
func (d *Document) Build() (*family.Tree, string, error) {
	t, err := family.Build(d.Tree)
	if err != nil {
		return nil, "", ferrors.Wrap(ferrors.ErrCodeInvalidTree, err, "build tree")
	}
	root := d.RootID()
	if _, ok := t.Person(root); !ok {
		return nil, "", ferrors.New(ferrors.ErrCodeUnknownRoot, "root %q is not in the tree", root)
	}
	return t, root, nil
}

// Read decodes a document from r.
func Read(r io.Reader, f Format) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	var unmarshal func([]byte, any) error
	switch f {
	case JSON:
		unmarshal = json.Unmarshal
	case YAML:
		unmarshal = yaml.Unmarshal
	default:
		return nil, ferrors.New(ferrors.ErrCodeInvalidFormat, "unsupported format %q", f)
	}

	var doc Document
	if err := unmarshal(data, &doc); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidFormat, err, "decode %s", f)
	}
	if doc.Tree.ID == "" {
		// Bare record without the document wrapper.
		var rec family.Record
		if err := unmarshal(data, &rec); err != nil {
			return nil, ferrors.Wrap(ferrors.ErrCodeInvalidFormat, err, "decode %s", f)
		}
		doc.Tree = rec
	}
	if err := family.ValidateRecord(doc.Tree); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidTree, err, "invalid tree")
	}
	return &doc, nil
}

// ReadJSON decodes a JSON document.
func ReadJSON(r io.Reader) (*Document, error) { return Read(r, JSON) }

// ReadYAML decodes a YAML document.
func ReadYAML(r io.Reader) (*Document, error) { return Read(r, YAML) }

// Unmarshal decodes a document held in memory.
func Unmarshal(data []byte, f Format) (*Document, error) { return Read(bytes.NewReader(data), f) }

// Import reads the document at path, choosing the format by extension.
func Import(path string) (*Document, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, ferrors.Wrap(ferrors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	return Read(file, f)
}
