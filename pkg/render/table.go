package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/dlovans/formwright/pkg/form"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetAutoWrapText(false)
	return tw
}

// Fields writes one row per field describing its definition.
func Fields(w io.Writer, fields []form.Field) {
	tw := newTable(w, "ID", "Label", "Type", "Options", "Default", "Rules", "Formula")
	for _, f := range fields {
		formula := ""
		if f.IsDerived() {
			formula = f.Derived.Formula
		}
		tw.Append([]string{
			f.ID,
			f.Label,
			string(f.Type),
			strings.Join(f.Choices(), ","),
			f.DefaultValue,
			rules(f.Validations),
			formula,
		})
	}
	tw.Render()
}

func rules(r *form.ValidationRules) string {
	if r == nil {
		return ""
	}
	var parts []string
	if r.Required {
		parts = append(parts, "required")
	}
	if r.MinLength != nil {
		parts = append(parts, fmt.Sprintf("min=%d", *r.MinLength))
	}
	if r.MaxLength != nil {
		parts = append(parts, fmt.Sprintf("max=%d", *r.MaxLength))
	}
	if r.Email {
		parts = append(parts, "email")
	}
	if r.PasswordRule {
		parts = append(parts, "password")
	}
	return strings.Join(parts, ",")
}

// Values writes the value of every field next to its validation messages.
// errs may be nil.
func Values(w io.Writer, fields []form.Field, values form.Values, errs map[string][]string) {
	tw := newTable(w, "Label", "Value", "Derived", "Errors")
	for _, f := range fields {
		derived := ""
		if f.IsDerived() {
			derived = "yes"
		}
		tw.Append([]string{f.Label, values[f.ID], derived, strings.Join(errs[f.ID], "; ")})
	}
	tw.Render()
}

// Saved writes the saved-form list, newest last.
func Saved(w io.Writer, records []form.SavedFormRecord) {
	tw := newTable(w, "ID", "Name", "Fields", "Created")
	for _, r := range records {
		created := r.CreatedAt
		if t, ok := r.Created(); ok {
			created = t.Local().Format(time.DateTime)
		}
		tw.Append([]string{r.ID, r.FormName, fmt.Sprint(len(r.Fields)), created})
	}
	tw.Render()
}
