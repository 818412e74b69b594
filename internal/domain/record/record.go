// Package record describes the mutable fields of each CRM table in one
// declarative place. Create and Update share the same validate-and-default
// pass so the two operations cannot drift apart.
package record

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Strob0t/crm/internal/domain"
)

// Kind is the value type of a mutable field.
type Kind int

const (
	Text Kind = iota
	Decimal
	Reference
	Date
	Timestamp
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Decimal:
		return "decimal"
	case Reference:
		return "reference"
	case Date:
		return "date"
	case Timestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Field is one mutable column of a table.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	// Default is stored when the field is omitted or null. Nil means SQL NULL.
	Default any
}

// Definition is the full description of a CRM table.
type Definition struct {
	Entity string // singular name used in messages and metrics
	Table  string
	// Columns is the select list, in the order the entity's scan function expects.
	Columns []string
	// Fields are the client-writable columns, in bind order.
	Fields []Field
	// OwnerColumn is stamped from the acting identity on insert only.
	OwnerColumn string
}

// Input is a decoded JSON object from a request body.
type Input map[string]json.RawMessage

// Values holds normalized field values aligned with Definition.Fields.
type Values []any

// Normalize validates in against the definition and fills defaults.
// Unknown keys are ignored.
func (d *Definition) Normalize(in Input) (Values, error) {
	out := make(Values, len(d.Fields))
	for i, f := range d.Fields {
		raw, present := in[f.Name]
		if !present || isNull(raw) {
			if f.Required {
				return nil, domain.Validationf("%s is required", f.Name)
			}
			out[i] = f.Default
			continue
		}

		v, err := convert(f, raw)
		if err != nil {
			return nil, err
		}
		if v == nil {
			if f.Required {
				return nil, domain.Validationf("%s is required", f.Name)
			}
			v = f.Default
		}
		out[i] = v
	}
	return out, nil
}

// ColumnNames returns the names of the mutable fields in bind order.
func (d *Definition) ColumnNames() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// convert decodes one raw JSON value. A nil result with a nil error means the
// value is blank and should be treated like an omitted field.
func convert(f Field, raw json.RawMessage) (any, error) {
	switch f.Kind {
	case Text:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, domain.Validationf("%s must be a string", f.Name)
		}
		if s == "" && f.Required {
			return nil, nil
		}
		return s, nil

	case Decimal:
		n, blank, err := numberOrString(raw)
		if err != nil {
			return nil, domain.Validationf("%s must be a number", f.Name)
		}
		if blank {
			return nil, nil
		}
		v, err := strconv.ParseFloat(n, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, domain.Validationf("%s must be a number", f.Name)
		}
		return v, nil

	case Reference:
		n, blank, err := numberOrString(raw)
		if err != nil {
			return nil, domain.Validationf("%s must be an integer id", f.Name)
		}
		if blank {
			return nil, nil
		}
		id, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return nil, domain.Validationf("%s must be an integer id", f.Name)
		}
		return id, nil

	case Date, Timestamp:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, domain.Validationf("%s must be a date string", f.Name)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		t, ok := parseTime(s, f.Kind)
		if !ok {
			return nil, domain.Validationf("%s has an unrecognized date format", f.Name)
		}
		return t, nil
	}
	return nil, domain.Validationf("%s has unsupported type %s", f.Name, f.Kind)
}

// numberOrString accepts a JSON number or a string holding one.
func numberOrString(raw json.RawMessage) (value string, blank bool, err error) {
	var num json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false, err
	}
	switch t := v.(type) {
	case json.Number:
		num = t
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return "", true, nil
		}
		num = json.Number(t)
	default:
		return "", false, domain.ErrValidation
	}
	return num.String(), false, nil
}

var (
	dateLayouts = []string{
		"2006-01-02",
		time.RFC3339Nano,
	}
	timestampLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
)

func parseTime(s string, kind Kind) (time.Time, bool) {
	layouts := timestampLayouts
	if kind == Date {
		layouts = dateLayouts
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			if kind == Date {
				y, m, d := t.Date()
				return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
			}
			return t, true
		}
	}
	return time.Time{}, false
}
