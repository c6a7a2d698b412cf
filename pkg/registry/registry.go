package registry

import (
	"fmt"
	"log/slog"

	"github.com/morezero/course-recommender/pkg/resultset"
)

const logPrefix = "registry:registry"

// Registry maps functionality names to declarations. It is built once and never mutated,
// so it is safe to share between goroutines without locking.
type Registry struct {
	version string
	names   []string
	decls   map[string]Declaration
}

// NewRegistry validates decls and builds a registry that preserves their order.
func NewRegistry(decls []Declaration) (*Registry, error) {
	r := &Registry{
		names: make([]string, 0, len(decls)),
		decls: make(map[string]Declaration, len(decls)),
	}
	for _, d := range decls {
		if b, ok := d.Outcome.(BooleanOutcome); ok {
			// Sentinels are stored normalized so the interpreter compares like with like.
			sv, err := resultset.Normalize(b.SuccessValue)
			if err != nil {
				return nil, &InvalidDeclarationError{Name: d.Name, Reason: err.Error()}
			}
			b.SuccessValue = sv
			d.Outcome = b
		}
		if err := validateDeclaration(d); err != nil {
			return nil, err
		}
		if _, dup := r.decls[d.Name]; dup {
			return nil, &InvalidDeclarationError{Name: d.Name, Reason: "duplicate functionality name"}
		}
		c := d.clone()
		r.names = append(r.names, c.Name)
		r.decls[c.Name] = c
	}
	slog.Debug(fmt.Sprintf("%s - registered %d functionalities", logPrefix, len(r.names)))
	return r, nil
}

// MustNewRegistry is NewRegistry for static tables known to be valid.
func MustNewRegistry(decls []Declaration) *Registry {
	r, err := NewRegistry(decls)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the declaration registered under name.
func (r *Registry) Lookup(name string) (Declaration, error) {
	d, ok := r.decls[name]
	if !ok {
		return Declaration{}, &UnknownFunctionalityError{Name: name}
	}
	return d.clone(), nil
}

// ListNames returns functionality names in declaration order.
func (r *Registry) ListNames() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered functionalities.
func (r *Registry) Len() int { return len(r.names) }

// Version is the catalog version the registry was built from, empty for ad-hoc registries.
func (r *Registry) Version() string { return r.version }

func validateDeclaration(d Declaration) error {
	if d.Name == "" {
		return &InvalidDeclarationError{Name: d.Name, Reason: "name is required"}
	}
	if d.Operation == "" {
		return &InvalidDeclarationError{Name: d.Name, Reason: "operation is required"}
	}
	if d.Outcome == nil {
		return &InvalidDeclarationError{Name: d.Name, Reason: "outcome policy is required"}
	}
	if err := d.Outcome.validate(); err != nil {
		return &InvalidDeclarationError{Name: d.Name, Reason: err.Error()}
	}
	seen := make(map[string]bool, len(d.InputFields))
	for _, f := range d.InputFields {
		if f.Name == "" {
			return &InvalidDeclarationError{Name: d.Name, Reason: "input field name is required"}
		}
		if seen[f.Name] {
			return &InvalidDeclarationError{Name: d.Name, Reason: fmt.Sprintf("duplicate input field %q", f.Name)}
		}
		seen[f.Name] = true
	}
	return nil
}
