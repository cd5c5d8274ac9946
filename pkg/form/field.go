package form

import (
	"errors"
	"fmt"
	"strings"
)

// Guard errors returned by Field.Check at the editing boundary.
var (
	ErrMissingLabel      = errors.New("label is required")
	ErrUnknownType       = errors.New("unknown field type")
	ErrMissingOptions    = errors.New("at least one option is required")
	ErrIncompleteDerived = errors.New("derived field needs parents and a formula")
)

// IsDerived reports whether the field's value is computed by a formula.
func (f Field) IsDerived() bool {
	return f.Derived != nil && f.Derived.IsDerived
}

// Choices returns the option list for option-bearing types and nil otherwise.
func (f Field) Choices() []string {
	if !f.Type.UsesOptions() {
		return nil
	}
	return f.Options
}

// Normalize drops sub-configs that do not belong to the field's type:
// options on non-option types, and a derived config that is switched off.
func (f Field) Normalize() Field {
	if !f.Type.UsesOptions() {
		f.Options = nil
	}
	if f.Derived != nil && !f.Derived.IsDerived {
		f.Derived = nil
	}
	return f
}

// Check rejects a field that must not enter a schema.
// The store never calls it; editors do, before AddField or UpdateField.
func (f Field) Check() error {
	if strings.TrimSpace(f.Label) == "" {
		return fmt.Errorf("field %q: %w", f.ID, ErrMissingLabel)
	}
	if !f.Type.Valid() {
		return fmt.Errorf("field %q: %w: %q", f.Label, ErrUnknownType, f.Type)
	}
	if f.Type.UsesOptions() && len(f.Options) == 0 {
		return fmt.Errorf("field %q: %w", f.Label, ErrMissingOptions)
	}
	if f.IsDerived() {
		if len(f.Derived.Parents) == 0 || strings.TrimSpace(f.Derived.Formula) == "" {
			return fmt.Errorf("field %q: %w", f.Label, ErrIncompleteDerived)
		}
	}
	return nil
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	out := f
	if f.Options != nil {
		out.Options = append([]string(nil), f.Options...)
	}
	if f.Validations != nil {
		v := *f.Validations
		if v.MinLength != nil {
			n := *v.MinLength
			v.MinLength = &n
		}
		if v.MaxLength != nil {
			n := *v.MaxLength
			v.MaxLength = &n
		}
		out.Validations = &v
	}
	if f.Derived != nil {
		d := *f.Derived
		if d.Parents != nil {
			d.Parents = append([]string(nil), d.Parents...)
		}
		out.Derived = &d
	}
	return out
}

// CloneFields deep-copies a field list. A nil list stays nil.
func CloneFields(fields []Field) []Field {
	if fields == nil {
		return nil
	}
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = f.Clone()
	}
	return out
}

// Clone returns a deep copy of the schema.
func (s Schema) Clone() Schema {
	return Schema{Name: s.Name, Fields: CloneFields(s.Fields)}
}

// IndexOf returns the position of the field with the given ID, or -1.
func IndexOf(fields []Field, id string) int {
	for i, f := range fields {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a shallow copy of the value map (values are immutable strings).
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// SeedValues builds the initial value map for a preview session.
// Every field starts at its default; derived fields start empty.
func SeedValues(fields []Field) Values {
	out := make(Values, len(fields))
	for _, f := range fields {
		if f.IsDerived() {
			out[f.ID] = ""
			continue
		}
		out[f.ID] = f.DefaultValue
	}
	return out
}
