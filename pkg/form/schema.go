// Package form defines the schema model of the form builder.
// It holds the shape of fields, schemas, value maps and saved records; behavior lives elsewhere.
package form

import "time"

// FieldType is the closed set of input kinds a field can render as.
type FieldType string

const (
	TypeText     FieldType = "text"
	TypeNumber   FieldType = "number"
	TypeTextarea FieldType = "textarea"
	TypeSelect   FieldType = "select"
	TypeRadio    FieldType = "radio"
	TypeCheckbox FieldType = "checkbox"
	TypeDate     FieldType = "date"
)

// Types lists every field type in display order.
var Types = []FieldType{TypeText, TypeNumber, TypeTextarea, TypeSelect, TypeRadio, TypeCheckbox, TypeDate}

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// UsesOptions reports whether fields of this type carry an option list.
func (t FieldType) UsesOptions() bool {
	return t == TypeSelect || t == TypeRadio || t == TypeCheckbox
}

// Field is a single schema entry.
// ID is assigned once at creation and never reused.
type Field struct {
	ID           string           `json:"id" yaml:"id"`                                         // Opaque unique identifier
	Label        string           `json:"label" yaml:"label"`                                   // Display name, also a formula lookup key
	Type         FieldType        `json:"type" yaml:"type"`                                     // One of Types
	Options      []string         `json:"options,omitempty" yaml:"options,omitempty"`           // For select, radio, checkbox
	DefaultValue string           `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"` // Seeds the preview value map
	Validations  *ValidationRules `json:"validations,omitempty" yaml:"validations,omitempty"`   // Optional input rules
	Derived      *DerivedConfig   `json:"derived,omitempty" yaml:"derived,omitempty"`           // Optional computed value
}

// ValidationRules are the per-field input constraints.
// Nil lengths mean "no constraint".
type ValidationRules struct {
	Required     bool `json:"required,omitempty" yaml:"required,omitempty"`
	MinLength    *int `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength    *int `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Email        bool `json:"email,omitempty" yaml:"email,omitempty"`
	PasswordRule bool `json:"passwordRule,omitempty" yaml:"passwordRule,omitempty"` // >= 8 chars and at least one digit
}

// DerivedConfig marks a field as computed from its parents by a formula.
type DerivedConfig struct {
	IsDerived bool     `json:"isDerived" yaml:"isDerived"`
	Parents   []string `json:"parents" yaml:"parents"` // Parent field IDs, in order
	Formula   string   `json:"formula" yaml:"formula"` // Expression in the formula mini-language
}

// Schema is a named, ordered collection of fields.
type Schema struct {
	Name   string  `json:"formName" yaml:"formName"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Values maps field IDs to their current string value for one preview session.
type Values map[string]string

// TimestampLayout is the ISO 8601 form CreatedAt is written in, with
// millisecond precision, e.g. 2024-05-01T10:20:30.123Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// SavedFormRecord is an immutable snapshot of a schema in the persisted list.
// CreatedAt is kept as stored so records written by other clients load as-is.
type SavedFormRecord struct {
	ID        string  `json:"id"`
	FormName  string  `json:"formName"`
	Fields    []Field `json:"fields"`
	CreatedAt string  `json:"createdAt"`
}

// Created parses CreatedAt as an ISO 8601 timestamp or a bare date.
func (r SavedFormRecord) Created() (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, r.CreatedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Schema returns the record's schema as a deep copy.
func (r SavedFormRecord) Schema() Schema {
	return Schema{Name: r.FormName, Fields: CloneFields(r.Fields)}
}
