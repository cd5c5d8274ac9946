package route

import (
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		path     string
		expected Route
	}{
		{"/create", Route{View: Builder}},
		{"/create/", Route{View: Builder}},
		{"/CREATE", Route{View: Builder}},
		{"/preview", Route{View: Preview}},
		{"/preview?tab=1", Route{View: Preview}},
		{"/preview/6f1c-22", Route{View: SavedPreview, SchemaID: "6f1c-22"}},
		{"/preview/a%20b", Route{View: SavedPreview, SchemaID: "a b"}},
		{"/myforms", Route{View: SavedList}},
		{"/", Route{View: Builder, Redirect: true}},
		{"", Route{View: Builder, Redirect: true}},
		{"/nope", Route{View: Builder, Redirect: true}},
		{"/preview/a/b", Route{View: Builder, Redirect: true}},
		{"/myforms/x", Route{View: Builder, Redirect: true}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := Resolve(tt.path); got != tt.expected {
				t.Errorf("Resolve(%q) = %+v, want %+v", tt.path, got, tt.expected)
			}
		})
	}
}

func TestPathRoundTrip(t *testing.T) {
	routes := []Route{
		{View: Builder},
		{View: Preview},
		{View: SavedPreview, SchemaID: "abc"},
		{View: SavedPreview, SchemaID: "with space"},
		{View: SavedList},
	}
	for _, r := range routes {
		p := Path(r)
		if got := Resolve(p); got != r {
			t.Errorf("Resolve(Path(%+v)) = %+v via %q", r, got, p)
		}
	}

	if got := Path(Route{View: SavedPreview}); got != PathPreview {
		t.Errorf("saved preview without id = %q, want %q", got, PathPreview)
	}
}
