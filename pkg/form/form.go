// Package form resolves a functionality's declared input fields into the values sent to the backend.
package form

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/morezero/course-recommender/pkg/registry"
)

// MaxChars is the input length the web and terminal forms allow. Collect does not enforce it.
const MaxChars = 20

// ErrMissingField is returned when a declared field is absent from the submission.
var ErrMissingField = errors.New("missing form field")

// Source supplies submitted values by field name. ok reports whether the field was submitted at all;
// a submitted empty string is a valid value.
type Source interface {
	Lookup(name string) (value string, ok bool)
}

// MapSource is a Source backed by a plain map.
type MapSource map[string]string

// Lookup implements Source.
func (m MapSource) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// URLValuesSource is a Source backed by parsed form or query values; the first value wins.
type URLValuesSource url.Values

// Lookup implements Source.
func (u URLValuesSource) Lookup(name string) (string, bool) {
	vs, ok := u[name]
	if !ok {
		return "", false
	}
	if len(vs) == 0 {
		return "", true
	}
	return vs[0], true
}

// Entry is one collected field value.
type Entry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Values are collected field values in declaration order.
type Values []Entry

// Get returns the value collected for name.
func (v Values) Get(name string) (string, bool) {
	for _, e := range v {
		if e.Name == name {
			return e.Value, true
		}
	}
	return "", false
}

// Names returns field names in order.
func (v Values) Names() []string {
	out := make([]string, len(v))
	for i, e := range v {
		out[i] = e.Name
	}
	return out
}

// Encode renders the values as a URL query string, keeping declaration order.
func (v Values) Encode() string {
	var sb strings.Builder
	for i, e := range v {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(e.Name))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(e.Value))
	}
	return sb.String()
}

// MarshalJSON renders the values as a JSON object, keeping declaration order.
func (v Values) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range v {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Collect reads exactly one value per declared field, in declaration order. Values pass through
// untouched, empty ones included; the backend owns validation. Undeclared keys are ignored.
func Collect(fields []registry.FieldSpec, src Source) (Values, error) {
	out := make(Values, 0, len(fields))
	var missing []string
	for _, f := range fields {
		raw, ok := src.Lookup(f.Name)
		if !ok {
			missing = append(missing, f.Name)
			continue
		}
		out = append(out, Entry{Name: f.Name, Value: raw})
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return out, nil
}

// Layout is how a form's fields are arranged.
type Layout string

const (
	// LayoutSingle presents a lone field on its own.
	LayoutSingle Layout = "single"
	// LayoutColumns presents fields side by side in declaration order.
	LayoutColumns Layout = "columns"
)

// LayoutFor picks the layout for fields.
func LayoutFor(fields []registry.FieldSpec) Layout {
	if len(fields) == 1 {
		return LayoutSingle
	}
	return LayoutColumns
}
