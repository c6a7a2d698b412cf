// Package registry holds the declarative functionality registry: every named functionality,
// the backend operation it maps to, the inputs it collects and how its result is interpreted.
package registry

import "fmt"

// FieldSpec describes one input collected from the user. Name is the backend parameter key.
type FieldSpec struct {
	Name        string `json:"name" yaml:"name"`
	Label       string `json:"label" yaml:"label"`
	Placeholder string `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
}

// OutcomeKind names an OutcomePolicy variant.
type OutcomeKind string

const (
	OutcomeListing OutcomeKind = "listing"
	OutcomeBoolean OutcomeKind = "boolean"
)

// OutcomePolicy describes how the result of a functionality is interpreted.
// It is implemented only by Listing and BooleanOutcome.
type OutcomePolicy interface {
	Kind() OutcomeKind
	validate() error
}

// Listing shows the result records as-is, or EmptyMessage when there are none.
type Listing struct {
	EmptyMessage string
}

// Kind implements OutcomePolicy.
func (Listing) Kind() OutcomeKind { return OutcomeListing }

func (Listing) validate() error { return nil }

// BooleanOutcome classifies a single-record result as success or failure by comparing
// StatusField against SuccessValue. DetailField, when set, supplies failure detail text.
type BooleanOutcome struct {
	StatusField    string
	SuccessValue   any
	SuccessMessage string
	FailureMessage string
	DetailField    string
}

// Kind implements OutcomePolicy.
func (BooleanOutcome) Kind() OutcomeKind { return OutcomeBoolean }

func (b BooleanOutcome) validate() error {
	if b.StatusField == "" {
		return fmt.Errorf("boolean outcome requires a status field")
	}
	switch b.SuccessValue.(type) {
	case string, int64, float64, bool:
		return nil
	default:
		return fmt.Errorf("boolean outcome success value %#v must be a string, number or bool", b.SuccessValue)
	}
}

// Declaration is the full, immutable description of one functionality.
type Declaration struct {
	Name         string
	Operation    string
	DisplayTitle string
	PageTitle    string
	SubmitLabel  string
	InputFields  []FieldSpec
	Outcome      OutcomePolicy
}

// FieldNames returns the input field names in declaration order.
func (d Declaration) FieldNames() []string {
	names := make([]string, len(d.InputFields))
	for i, f := range d.InputFields {
		names[i] = f.Name
	}
	return names
}

func (d Declaration) clone() Declaration {
	out := d
	out.InputFields = make([]FieldSpec, len(d.InputFields))
	copy(out.InputFields, d.InputFields)
	return out
}

// UnknownFunctionalityError is returned when a name is not registered.
type UnknownFunctionalityError struct {
	Name string
}

func (e *UnknownFunctionalityError) Error() string {
	return fmt.Sprintf("unknown functionality %q", e.Name)
}

// InvalidDeclarationError reports a declaration that breaks a registry rule.
type InvalidDeclarationError struct {
	Name   string
	Reason string
}

func (e *InvalidDeclarationError) Error() string {
	return fmt.Sprintf("invalid functionality declaration %q: %s", e.Name, e.Reason)
}
