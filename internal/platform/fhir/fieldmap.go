package fhir

import (
	"sort"
	"strings"
	"time"
)

// Field is one translated attribute: its value, the FHIRPath locating it
// in the submitted resource, and the submitted text before any type cast.
type Field struct {
	Value interface{}
	Path  string
	Raw   string
}

// FieldMap is the translation of a FHIR resource into internal attributes.
type FieldMap map[string]*Field

func (m FieldMap) Set(attr string, value interface{}, path string) {
	m[attr] = &Field{Value: value, Path: path}
}

// SetString stores s, or nil when s is empty.
func (m FieldMap) SetString(attr, s, path string) {
	if s == "" {
		m.Set(attr, nil, path)
		return
	}
	m.Set(attr, s, path)
}

// SetDate casts raw to a date. An unparseable value is stored as nil with
// raw kept so it can be echoed back in error reports.
func (m FieldMap) SetDate(attr, raw, path string) {
	f := &Field{Path: path, Raw: raw}
	if t, ok := ParseDate(raw); ok {
		f.Value = t
	}
	m[attr] = f
}

func (m FieldMap) String(attr string) string {
	if f, ok := m[attr]; ok {
		if s, ok := f.Value.(string); ok {
			return s
		}
	}
	return ""
}

func (m FieldMap) Date(attr string) *time.Time {
	if f, ok := m[attr]; ok {
		if t, ok := f.Value.(time.Time); ok {
			return &t
		}
	}
	return nil
}

func (m FieldMap) Bool(attr string) *bool {
	if f, ok := m[attr]; ok {
		if b, ok := f.Value.(bool); ok {
			return &b
		}
	}
	return nil
}

func (m FieldMap) Int64(attr string) *int64 {
	if f, ok := m[attr]; ok {
		if n, ok := f.Value.(int64); ok {
			return &n
		}
	}
	return nil
}

// Has reports whether attr was supplied with a value or an unparsed raw text.
func (m FieldMap) Has(attr string) bool {
	f, ok := m[attr]
	return ok && (f.Value != nil || f.Raw != "")
}

// FieldErrors maps an attribute name to its validation messages.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(attr, msg string) {
	fe[attr] = append(fe[attr], msg)
}

// Merge appends every message in other.
func (fe FieldErrors) Merge(other FieldErrors) {
	for attr, msgs := range other {
		fe[attr] = append(fe[attr], msgs...)
	}
}

// Attributes returns the attribute names in sorted order.
func (fe FieldErrors) Attributes() []string {
	out := make([]string, 0, len(fe))
	for k := range fe {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ValidationError is returned by services when a translated resource fails
// domain validation. It carries everything needed to explain the failure
// in terms of the submitted payload.
type ValidationError struct {
	Errors FieldErrors
	Fields FieldMap
	Labels map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors.Attributes(), ", ")
}
