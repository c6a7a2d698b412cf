package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	mmsemver "github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/morezero/course-recommender/pkg/semver"
)

const catalogLogPrefix = "registry:catalog"

// defaultCatalogPaths are tried after explicit paths; a missing file here is not an error.
var defaultCatalogPaths = []string{"config/catalog.yaml", "config/catalog.yml", "config/catalog.json"}

// Catalog is the file form of the functionality table.
type Catalog struct {
	Name            string            `json:"name" yaml:"name"`
	Version         string            `json:"version" yaml:"version"`
	Description     string            `json:"description,omitempty" yaml:"description,omitempty"`
	Functionalities []DeclarationSpec `json:"functionalities" yaml:"functionalities"`
}

// DeclarationSpec is one functionality entry in a catalog file.
type DeclarationSpec struct {
	Name        string      `json:"name" yaml:"name"`
	Operation   string      `json:"operation" yaml:"operation"`
	Title       string      `json:"title" yaml:"title"`
	PageTitle   string      `json:"pageTitle" yaml:"pageTitle"`
	SubmitLabel string      `json:"submitLabel" yaml:"submitLabel"`
	Fields      []FieldSpec `json:"fields" yaml:"fields"`
	Outcome     OutcomeSpec `json:"outcome" yaml:"outcome"`
}

// OutcomeSpec is the file form of an OutcomePolicy; Kind selects the variant.
type OutcomeSpec struct {
	Kind           OutcomeKind `json:"kind" yaml:"kind"`
	EmptyMessage   string      `json:"emptyMessage,omitempty" yaml:"emptyMessage,omitempty"`
	StatusField    string      `json:"statusField,omitempty" yaml:"statusField,omitempty"`
	SuccessValue   any         `json:"successValue,omitempty" yaml:"successValue,omitempty"`
	SuccessMessage string      `json:"successMessage,omitempty" yaml:"successMessage,omitempty"`
	FailureMessage string      `json:"failureMessage,omitempty" yaml:"failureMessage,omitempty"`
	DetailField    string      `json:"detailField,omitempty" yaml:"detailField,omitempty"`
}

// LoadCatalog reads the first catalog found. Explicit paths are tried first and must exist;
// then the default locations; if none exists the built-in catalog is returned.
func LoadCatalog(paths ...string) (*Catalog, error) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		c, err := readCatalogFile(p)
		if err != nil {
			return nil, err
		}
		slog.Info(fmt.Sprintf("%s - Loaded catalog %s@%s from %s", catalogLogPrefix, c.Name, c.Version, p))
		return c, nil
	}

	for _, p := range defaultCatalogPaths {
		c, err := readCatalogFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		slog.Info(fmt.Sprintf("%s - Loaded catalog %s@%s from %s", catalogLogPrefix, c.Name, c.Version, p))
		return c, nil
	}

	slog.Info(fmt.Sprintf("%s - Using built-in catalog", catalogLogPrefix))
	return DefaultCatalog(), nil
}

// OpenCatalog loads the catalog at path. A directory holds several catalog versions and the highest
// one satisfying constraint is used; a file or an empty path behaves like LoadCatalog.
func OpenCatalog(path, constraint string) (*Catalog, error) {
	if path != "" {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return LoadCatalogDir(path, constraint)
		}
	}
	return LoadCatalog(path)
}

// LoadCatalogDir reads every .yaml, .yml and .json file in dir and returns the catalog whose version
// best satisfies constraint.
func LoadCatalogDir(dir, constraint string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to read catalog directory %s: %w", catalogLogPrefix, dir, err)
	}
	byPath := make(map[string]*Catalog)
	var candidates []semver.Candidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}
		path := filepath.Join(dir, e.Name())
		c, err := readCatalogFile(path)
		if err != nil {
			return nil, err
		}
		byPath[path] = c
		candidates = append(candidates, semver.Candidate{Version: c.Version, Source: path})
	}

	best, err := semver.Select(candidates, constraint)
	if err != nil {
		return nil, fmt.Errorf("%s - no catalog in %s: %w", catalogLogPrefix, dir, err)
	}
	c := byPath[best.Source]
	slog.Info(fmt.Sprintf("%s - Selected catalog %s@%s from %s (%d candidates)", catalogLogPrefix, c.Name, c.Version, best.Source, len(candidates)))
	return c, nil
}

func readCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to read %s: %w", catalogLogPrefix, path, err)
	}
	return ParseCatalog(data, filepath.Ext(path))
}

// ParseCatalog decodes catalog bytes; ext ".yaml"/".yml" selects YAML, anything else JSON.
func ParseCatalog(data []byte, ext string) (*Catalog, error) {
	var c Catalog
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("%s - failed to parse yaml catalog: %w", catalogLogPrefix, err)
		}
	default:
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("%s - failed to parse json catalog: %w", catalogLogPrefix, err)
		}
	}
	return &c, nil
}

// DefaultCatalog returns the built-in declarations in catalog form.
func DefaultCatalog() *Catalog {
	decls := DefaultDeclarations()
	specs := make([]DeclarationSpec, len(decls))
	for i, d := range decls {
		specs[i] = SpecFromDeclaration(d)
	}
	return &Catalog{
		Name:            "course-recommender",
		Version:         DefaultCatalogVersion,
		Description:     "Course recommender functionalities",
		Functionalities: specs,
	}
}

// Build checks the catalog version against constraint (ignored when empty) and builds the registry.
// constraint accepts anything semver.ValidateRange does, including a bare major ("1").
func (c *Catalog) Build(constraint string) (*Registry, error) {
	v, err := mmsemver.NewVersion(c.Version)
	if err != nil {
		return nil, fmt.Errorf("%s - invalid catalog version %q: %w", catalogLogPrefix, c.Version, err)
	}
	if constraint != "" {
		if err := semver.ValidateRange(constraint); err != nil {
			return nil, err
		}
		if !semver.SatisfiesRange(v.String(), constraint) {
			return nil, fmt.Errorf("%s - catalog version %s does not satisfy %s", catalogLogPrefix, v, constraint)
		}
	}

	decls := make([]Declaration, 0, len(c.Functionalities))
	for _, s := range c.Functionalities {
		d, err := s.Declaration()
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	r, err := NewRegistry(decls)
	if err != nil {
		return nil, err
	}
	r.version = v.String()
	return r, nil
}

// Declaration converts the file form into a Declaration.
func (s DeclarationSpec) Declaration() (Declaration, error) {
	d := Declaration{
		Name:         s.Name,
		Operation:    s.Operation,
		DisplayTitle: s.Title,
		PageTitle:    s.PageTitle,
		SubmitLabel:  s.SubmitLabel,
		InputFields:  s.Fields,
	}
	switch s.Outcome.Kind {
	case OutcomeListing:
		d.Outcome = Listing{EmptyMessage: s.Outcome.EmptyMessage}
	case OutcomeBoolean:
		d.Outcome = BooleanOutcome{
			StatusField:    s.Outcome.StatusField,
			SuccessValue:   s.Outcome.SuccessValue,
			SuccessMessage: s.Outcome.SuccessMessage,
			FailureMessage: s.Outcome.FailureMessage,
			DetailField:    s.Outcome.DetailField,
		}
	default:
		return Declaration{}, &InvalidDeclarationError{Name: s.Name, Reason: fmt.Sprintf("unknown outcome kind %q", s.Outcome.Kind)}
	}
	return d, nil
}

// SpecFromDeclaration converts a Declaration into its file form.
func SpecFromDeclaration(d Declaration) DeclarationSpec {
	s := DeclarationSpec{
		Name:        d.Name,
		Operation:   d.Operation,
		Title:       d.DisplayTitle,
		PageTitle:   d.PageTitle,
		SubmitLabel: d.SubmitLabel,
		Fields:      append([]FieldSpec(nil), d.InputFields...),
	}
	switch o := d.Outcome.(type) {
	case Listing:
		s.Outcome = OutcomeSpec{Kind: OutcomeListing, EmptyMessage: o.EmptyMessage}
	case BooleanOutcome:
		s.Outcome = OutcomeSpec{
			Kind:           OutcomeBoolean,
			StatusField:    o.StatusField,
			SuccessValue:   o.SuccessValue,
			SuccessMessage: o.SuccessMessage,
			FailureMessage: o.FailureMessage,
			DetailField:    o.DetailField,
		}
	}
	return s
}
