package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dlovans/formwright/pkg/form"
)

func intPtr(n int) *int { return &n }

func field(label string, rules form.ValidationRules) form.Field {
	return form.Field{ID: "f", Label: label, Type: form.TypeText, Validations: &rules}
}

func TestRequiredShortCircuits(t *testing.T) {
	f := field("Name", form.ValidationRules{Required: true, MinLength: intPtr(5)})

	got := Field("", f)
	assert.Equal(t, []string{"Name is required"}, got)

	got = Field("   ", f)
	assert.Equal(t, []string{"Name is required"}, got, "whitespace counts as empty")
}

func TestRulesReportedInOrder(t *testing.T) {
	f := field("Secret", form.ValidationRules{
		MinLength:    intPtr(10),
		MaxLength:    intPtr(3),
		Email:        true,
		PasswordRule: true,
	})

	got := Field("abcd", f)
	assert.Equal(t, []string{
		"Secret must be at least 10 characters",
		"Secret must be at most 3 characters",
		"Secret must be a valid email",
		"Secret must have 8+ chars incl. a number",
	}, got)
}

func TestFieldRules(t *testing.T) {
	tests := []struct {
		name     string
		rules    form.ValidationRules
		value    string
		expected []string
	}{
		{"no rules pass", form.ValidationRules{}, "", nil},
		{"required satisfied", form.ValidationRules{Required: true}, "x", nil},
		{"min length boundary", form.ValidationRules{MinLength: intPtr(3)}, "abc", nil},
		{"min length counts characters", form.ValidationRules{MinLength: intPtr(3)}, "äöü", nil},
		{"max length boundary", form.ValidationRules{MaxLength: intPtr(3)}, "abc", nil},
		{"max length exceeded", form.ValidationRules{MaxLength: intPtr(3)}, "abcd", []string{"F must be at most 3 characters"}},
		{"min length on empty optional", form.ValidationRules{MinLength: intPtr(2)}, "", []string{"F must be at least 2 characters"}},
		{"email ok", form.ValidationRules{Email: true}, "ada@example.com", nil},
		{"email missing tld", form.ValidationRules{Email: true}, "ada@example", []string{"F must be a valid email"}},
		{"email with space", form.ValidationRules{Email: true}, "a da@example.com", []string{"F must be a valid email"}},
		{"email with no-break space", form.ValidationRules{Email: true}, "a\u00a0da@example.com", []string{"F must be a valid email"}},
		{"email with ideographic space", form.ValidationRules{Email: true}, "ada@exa\u3000mple.com", []string{"F must be a valid email"}},
		{"email with vertical tab", form.ValidationRules{Email: true}, "ada@ex\vample.com", []string{"F must be a valid email"}},
		{"email with unicode letters", form.ValidationRules{Email: true}, "zoë@exämple.com", nil},
		{"email skipped when empty", form.ValidationRules{Email: true}, "", nil},
		{"password ok", form.ValidationRules{PasswordRule: true}, "hunter22", nil},
		{"password no digit", form.ValidationRules{PasswordRule: true}, "password", []string{"F must have 8+ chars incl. a number"}},
		{"password too short", form.ValidationRules{PasswordRule: true}, "abc1", []string{"F must have 8+ chars incl. a number"}},
		{"password skipped when empty", form.ValidationRules{PasswordRule: true}, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Field(tt.value, field("F", tt.rules))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFieldWithoutRules(t *testing.T) {
	f := form.Field{ID: "x", Label: "X", Type: form.TypeText}
	assert.Empty(t, Field("", f))
}

func TestAllAndFirst(t *testing.T) {
	fields := []form.Field{
		{ID: "name", Label: "Name", Type: form.TypeText, Validations: &form.ValidationRules{Required: true}},
		{ID: "email", Label: "Email", Type: form.TypeText, Validations: &form.ValidationRules{Required: true, Email: true}},
		{ID: "note", Label: "Note", Type: form.TypeTextarea},
	}
	values := form.Values{"name": "Ada", "email": "not-an-email"}

	all := All(fields, values)
	assert.Len(t, all, 3)
	assert.Empty(t, all["name"])
	assert.Equal(t, []string{"Email must be a valid email"}, all["email"])
	assert.Empty(t, all["note"])

	v, found := First(fields, values)
	assert.True(t, found)
	assert.Equal(t, Violation{FieldID: "email", Message: "Email must be a valid email"}, v)
	assert.False(t, Valid(fields, values))

	values["email"] = "ada@example.com"
	_, found = First(fields, values)
	assert.False(t, found)
	assert.True(t, Valid(fields, values))
}
