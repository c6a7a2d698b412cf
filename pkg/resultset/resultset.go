// Package resultset defines the normalized record sequence returned by backend operations.
package resultset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

const logPrefix = "resultset:resultset"

// ErrNotScalar is returned when a record value is an array, object or other non-scalar.
var ErrNotScalar = errors.New("value is not a scalar")

// Record is one flat row: field name to scalar value (string, int64, float64, bool or nil).
// Field order is insertion order, so tables render columns the way the backend sent them.
type Record struct {
	names  []string
	values map[string]any
}

// NewRecord builds a record from alternating name/value pairs. It panics on bad input and is meant
// for literals in code and tests.
func NewRecord(pairs ...any) Record {
	if len(pairs)%2 != 0 {
		panic(fmt.Sprintf("%s - NewRecord needs name/value pairs, got %d args", logPrefix, len(pairs)))
	}
	var r Record
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("%s - NewRecord field name at %d is %T", logPrefix, i, pairs[i]))
		}
		if err := r.Set(name, pairs[i+1]); err != nil {
			panic(err)
		}
	}
	return r
}

// Set stores a normalized value under name, keeping the original position when name already exists.
func (r *Record) Set(name string, v any) error {
	nv, err := Normalize(v)
	if err != nil {
		return fmt.Errorf("%s - field %q: %w", logPrefix, name, err)
	}
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = nv
	return nil
}

// Get returns the value of a field and whether the field is present.
func (r Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Names returns field names in order.
func (r Record) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of fields.
func (r Record) Len() int { return len(r.names) }

// MarshalJSON writes the record as an object with fields in order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[n])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat object, preserving key order and keeping integers as int64.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%s - record must be a JSON object", logPrefix)
	}
	*r = Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%s - unexpected token %v", logPrefix, tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		if err := r.Set(name, v); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// ResultSet is the ordered sequence of records produced by one operation call.
type ResultSet []Record

// Columns returns field names in first-seen order across all records.
func (rs ResultSet) Columns() []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range rs {
		for _, n := range r.names {
			if !seen[n] {
				seen[n] = true
				cols = append(cols, n)
			}
		}
	}
	return cols
}

// Envelope is the wire payload of a backend operation: {"data": [...]}.
type Envelope struct {
	Data ResultSet `json:"data"`
}

// DecodeEnvelope parses a backend payload. An empty body, a null body, or a missing or null data
// field all yield an empty ResultSet.
func DecodeEnvelope(body []byte) (ResultSet, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ResultSet{}, nil
	}
	var env Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("%s - malformed payload: %w", logPrefix, err)
	}
	if env.Data == nil {
		return ResultSet{}, nil
	}
	return env.Data, nil
}

// Normalize converts v into one of the scalar kinds a Record holds.
func Normalize(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return t, nil
	case bool:
		return t, nil
	case int:
		return int64(t), nil
	case int8:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case int64:
		return t, nil
	case uint8:
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint:
		if uint64(t) > math.MaxInt64 {
			return float64(t), nil
		}
		return int64(t), nil
	case uint64:
		if t > math.MaxInt64 {
			return float64(t), nil
		}
		return int64(t), nil
	case float32:
		return float64(t), nil
	case float64:
		return t, nil
	case json.Number:
		if i, err := strconv.ParseInt(t.String(), 10, 64); err == nil {
			return i, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("%s - bad number %q: %w", logPrefix, t.String(), err)
		}
		return f, nil
	case time.Time:
		return t.Format(time.RFC3339), nil
	case []byte:
		return string(t), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrNotScalar, v)
	}
}
