// Package validate checks user input against a field's validation rules.
// Violations are data, not errors: each is a human-readable message.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dlovans/formwright/pkg/form"
)

// emailPattern rejects any Unicode space, not just ASCII whitespace.
var emailPattern = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)

// Field returns the violations of value against the field's rules.
// A required-field violation is returned alone; otherwise minLength,
// maxLength, email and passwordRule are checked in that order and every
// violation is reported. Email and password checks skip empty values.
func Field(value string, field form.Field) []string {
	rules := field.Validations
	if rules == nil {
		return nil
	}

	if rules.Required && strings.TrimSpace(value) == "" {
		return []string{fmt.Sprintf("%s is required", field.Label)}
	}

	var violations []string
	length := utf8.RuneCountInString(value)

	if rules.MinLength != nil && length < *rules.MinLength {
		violations = append(violations, fmt.Sprintf("%s must be at least %d characters", field.Label, *rules.MinLength))
	}
	if rules.MaxLength != nil && length > *rules.MaxLength {
		violations = append(violations, fmt.Sprintf("%s must be at most %d characters", field.Label, *rules.MaxLength))
	}
	if rules.Email && value != "" && !IsEmail(value) {
		violations = append(violations, fmt.Sprintf("%s must be a valid email", field.Label))
	}
	if rules.PasswordRule && value != "" && !IsPassword(value) {
		violations = append(violations, fmt.Sprintf("%s must have 8+ chars incl. a number", field.Label))
	}
	return violations
}

// IsEmail reports whether s has the local@domain.tld shape.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsPassword reports whether s has at least 8 characters and a decimal digit.
func IsPassword(s string) bool {
	if utf8.RuneCountInString(s) < 8 {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0
}

// All validates every field against its current value.
// Fields without violations map to an empty (nil) list.
func All(fields []form.Field, values form.Values) map[string][]string {
	result := make(map[string][]string, len(fields))
	for _, f := range fields {
		result[f.ID] = Field(values[f.ID], f)
	}
	return result
}

// Violation is the first failing rule found at submit time.
type Violation struct {
	FieldID string
	Message string
}

// First walks fields in schema order and returns the first violation.
// ok is false when the whole form is valid and submission may proceed.
func First(fields []form.Field, values form.Values) (Violation, bool) {
	for _, f := range fields {
		if msgs := Field(values[f.ID], f); len(msgs) > 0 {
			return Violation{FieldID: f.ID, Message: msgs[0]}, true
		}
	}
	return Violation{}, false
}

// Valid reports whether no field has a violation.
func Valid(fields []form.Field, values form.Values) bool {
	_, found := First(fields, values)
	return !found
}
