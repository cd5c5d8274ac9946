// Package render holds presentation helpers shared by the CLI and the
// browser build: checkbox value handling and text tables.
package render

import (
	"strings"
)

// Selected splits a checkbox value into its selected options, dropping empty
// entries and duplicates while keeping first-seen order.
func Selected(value string) []string {
	var out []string
	seen := map[string]bool{}
	for _, opt := range strings.Split(value, ",") {
		if opt == "" || seen[opt] {
			continue
		}
		seen[opt] = true
		out = append(out, opt)
	}
	return out
}

// IsSelected reports whether opt is part of a checkbox value.
func IsSelected(value, opt string) bool {
	for _, s := range Selected(value) {
		if s == opt {
			return true
		}
	}
	return false
}

// ToggleOption flips opt in a comma-joined checkbox value. A newly selected
// option goes last.
func ToggleOption(value, opt string) string {
	sel := Selected(value)
	for i, s := range sel {
		if s == opt {
			return strings.Join(append(sel[:i], sel[i+1:]...), ",")
		}
	}
	return strings.Join(append(sel, opt), ",")
}
