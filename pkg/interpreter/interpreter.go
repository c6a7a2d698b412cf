// Package interpreter turns an operation's ResultSet into a presentation according to the
// functionality's outcome policy.
package interpreter

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/morezero/course-recommender/pkg/registry"
	"github.com/morezero/course-recommender/pkg/resultset"
)

const logPrefix = "interpreter:interpreter"

// Kind names a presentation shape.
type Kind string

const (
	KindTable       Kind = "table"
	KindEmptyNotice Kind = "empty_notice"
	KindSuccess     Kind = "success"
	KindFailure     Kind = "failure"
)

// Presentation is the interpreted outcome of one dispatch. Records is set for tables;
// Message for the other kinds; Detail only for failures whose policy declares a detail field.
type Presentation struct {
	Kind    Kind                `json:"kind"`
	Records resultset.ResultSet `json:"records,omitempty"`
	Message string              `json:"message,omitempty"`
	Detail  *string             `json:"detail,omitempty"`
}

// Table builds a table presentation.
func Table(records resultset.ResultSet) *Presentation {
	return &Presentation{Kind: KindTable, Records: records}
}

// EmptyNotice builds an empty-listing presentation.
func EmptyNotice(message string) *Presentation {
	return &Presentation{Kind: KindEmptyNotice, Message: message}
}

// Success builds a success banner.
func Success(message string) *Presentation {
	return &Presentation{Kind: KindSuccess, Message: message}
}

// Failure builds a failure banner; detail may be nil.
func Failure(message string, detail *string) *Presentation {
	return &Presentation{Kind: KindFailure, Message: message, Detail: detail}
}

// MalformedResultError means the backend returned a shape the policy cannot interpret.
// It is a contract violation, distinct from a business Failure.
type MalformedResultError struct {
	Reason string
}

func (e *MalformedResultError) Error() string {
	return "malformed result: " + e.Reason
}

// Interpret applies policy to results.
func Interpret(results resultset.ResultSet, policy registry.OutcomePolicy) (*Presentation, error) {
	switch p := policy.(type) {
	case registry.Listing:
		if len(results) == 0 {
			return EmptyNotice(p.EmptyMessage), nil
		}
		return Table(results), nil
	case registry.BooleanOutcome:
		return interpretBoolean(results, p)
	default:
		return nil, fmt.Errorf("%s - unsupported outcome policy %T", logPrefix, policy)
	}
}

func interpretBoolean(results resultset.ResultSet, p registry.BooleanOutcome) (*Presentation, error) {
	if len(results) != 1 {
		return nil, &MalformedResultError{Reason: fmt.Sprintf("expected exactly one record, got %d", len(results))}
	}
	rec := results[0]
	status, ok := rec.Get(p.StatusField)
	if !ok {
		return nil, &MalformedResultError{Reason: fmt.Sprintf("status field %q missing from result", p.StatusField)}
	}
	if Matches(status, p.SuccessValue) {
		return Success(p.SuccessMessage), nil
	}
	slog.Debug(fmt.Sprintf("%s - status %s=%v did not match %v", logPrefix, p.StatusField, status, p.SuccessValue))

	var detail *string
	if p.DetailField != "" {
		if v, ok := rec.Get(p.DetailField); ok && v != nil {
			s := FormatValue(v)
			detail = &s
		}
	}
	return Failure(p.FailureMessage, detail), nil
}

// Matches compares a result value to a sentinel. Numeric sentinels compare numerically (booleans
// count as 0/1, numeric strings are parsed); string sentinels compare against the value's text;
// boolean sentinels accept booleans or 0/1.
func Matches(value, sentinel any) bool {
	switch s := sentinel.(type) {
	case int64:
		if n, ok := asInteger(value); ok {
			return n == s
		}
		n, ok := asNumber(value)
		return ok && n == float64(s)
	case float64:
		n, ok := asNumber(value)
		return ok && n == s
	case string:
		if value == nil {
			return false
		}
		return FormatValue(value) == s
	case bool:
		if b, ok := value.(bool); ok {
			return b == s
		}
		n, ok := asNumber(value)
		if !ok {
			return false
		}
		return (n != 0) == s
	default:
		return false
	}
}

// asInteger reads integer values exactly, so large IDs are not rounded through float64.
func asInteger(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// FormatValue renders a record value as display text; nil is empty.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(v)
	}
}
