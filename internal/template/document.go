// Package template implements the on-disk template lifecycle: decode,
// schema-validate (via an injected Validator, the real jsonschema-backed
// implementation being out of scope per spec.md §1), create/save, list,
// and optional hot-reload. Grounded on
// original_source/common/template.py's get_template/put_template/
// create_template/get_templates, generalized from that module's bare
// functions-over-a-fixed-ROOT-path into a type that takes its directory
// explicitly (no package-level global).
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Validator checks a decoded template document against the schema
// operators maintain out-of-band. Left as a seam (spec.md §1's "templated
// JSON schema validator" is a deliberate non-goal) so the real
// jsonschema-backed implementation can be wired in without this package
// depending on it.
type Validator interface {
	Validate(doc Document) error
}

// NopValidator accepts every document unconditionally — the default when
// no real validator is configured.
type NopValidator struct{}

func (NopValidator) Validate(Document) error { return nil }

// Common is the block every item in a template's Templates array inherits
// unless it overrides a field itself (spec.md §8 scenario 6).
type Common struct {
	Vendor     string `json:"vendor"`
	Endpoint   string `json:"endpoint,omitempty"`
	Columns    []string `json:"columns,omitempty"`
	Start      string `json:"start,omitempty"`
	End        string `json:"end,omitempty"`
	Resolution string `json:"resolution,omitempty"`
}

// Item is one entry in a template's Templates array: at minimum a
// resource handle, with any Common field it chooses to override.
type Item struct {
	Resource   string `json:"resource"`
	Endpoint   string `json:"endpoint,omitempty"`
	Columns    []string `json:"columns,omitempty"`
	Start      string `json:"start,omitempty"`
	End        string `json:"end,omitempty"`
	Resolution string `json:"resolution,omitempty"`
}

// Document is the decoded shape of one templates/*.json file: a shared
// common block plus the array of items that flatten into individual
// Requests, per spec.md §6.
type Document struct {
	Common    Common `json:"common"`
	Templates []Item `json:"templates"`
}

// ErrNotFound is returned by Load when the named template doesn't exist.
var ErrNotFound = errors.New("template: not found")

// ErrAlreadyExists is returned by Save when a template of that name
// already exists and overwrite wasn't requested — the Go rendition of the
// source's create_template raising NameError.
var ErrAlreadyExists = errors.New("template: already exists")

// Store roots template CRUD at one on-disk directory.
type Store struct {
	dir       string
	validator Validator
}

// New roots a Store at dir, using v to validate every loaded or saved
// document. A nil v falls back to NopValidator.
func New(dir string, v Validator) *Store {
	if v == nil {
		v = NopValidator{}
	}
	return &Store{dir: dir, validator: v}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Load decodes and validates the named template.
func (s *Store) Load(name string) (Document, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return Document{}, fmt.Errorf("template: read %s: %w", name, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("template: decode %s: %w", name, err)
	}
	if err := s.validator.Validate(doc); err != nil {
		return Document{}, fmt.Errorf("template: validate %s: %w", name, err)
	}
	return doc, nil
}

// List returns the names of every template under the store's directory,
// excluding files whose stem begins with "_" (the source's convention for
// _schema.json and similar non-template files).
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("template: list %s: %w", s.dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), ".json")
		if strings.HasPrefix(stem, "_") {
			continue
		}
		names = append(names, stem)
	}
	return names, nil
}

// All loads every template List names, the Go rendition of the source's
// get_templates.
func (s *Store) All() (map[string]Document, error) {
	names, err := s.List()
	if err != nil {
		return nil, err
	}
	out := make(map[string]Document, len(names))
	for _, name := range names {
		doc, err := s.Load(name)
		if err != nil {
			return nil, err
		}
		out[name] = doc
	}
	return out, nil
}

// Save validates and writes doc under name, overwriting any existing file
// of that name — the Go rendition of the source's put_template.
func (s *Store) Save(name string, doc Document) error {
	if err := s.validator.Validate(doc); err != nil {
		return fmt.Errorf("template: validate %s: %w", name, err)
	}
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("template: encode %s: %w", name, err)
	}
	return os.WriteFile(s.path(name), data, 0o644)
}

// Create saves doc under name only if it doesn't already exist — the Go
// rendition of the source's create_template, which raises NameError on a
// collision rather than silently overwriting.
func (s *Store) Create(name string, doc Document) error {
	if _, err := os.Stat(s.path(name)); err == nil {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("template: stat %s: %w", name, err)
	}
	return s.Save(name, doc)
}
