// Package route maps application paths to views.
package route

import (
	"net/url"
	"strings"
)

// View is one screen of the application.
type View string

const (
	Builder      View = "builder"       // /create
	Preview      View = "preview"       // /preview, the builder's current schema
	SavedPreview View = "saved_preview" // /preview/{id}
	SavedList    View = "saved_list"    // /myforms
)

// Paths.
const (
	PathCreate  = "/create"
	PathPreview = "/preview"
	PathMyForms = "/myforms"
)

// Route is a resolved path.
type Route struct {
	View     View
	SchemaID string // Only set for SavedPreview
	Redirect bool   // Path was not canonical; clients should replace it with Path(r)
}

// Resolve maps path to a route. Matching ignores case, a trailing slash, and
// any query or fragment. "/" and every unknown path resolve to the builder
// with Redirect set.
func Resolve(path string) Route {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	trimmed := strings.Trim(path, "/")
	segs := strings.Split(trimmed, "/")

	switch {
	case trimmed == "":
		// "/" redirects.
	case len(segs) == 1 && strings.EqualFold(segs[0], "create"):
		return Route{View: Builder}
	case len(segs) == 1 && strings.EqualFold(segs[0], "preview"):
		return Route{View: Preview}
	case len(segs) == 2 && strings.EqualFold(segs[0], "preview") && segs[1] != "":
		id, err := url.PathUnescape(segs[1])
		if err != nil {
			id = segs[1]
		}
		return Route{View: SavedPreview, SchemaID: id}
	case len(segs) == 1 && strings.EqualFold(segs[0], "myforms"):
		return Route{View: SavedList}
	}
	return Route{View: Builder, Redirect: true}
}

// Path returns the canonical path of r.
func Path(r Route) string {
	switch r.View {
	case Preview:
		return PathPreview
	case SavedPreview:
		if r.SchemaID == "" {
			return PathPreview
		}
		return PathPreview + "/" + url.PathEscape(r.SchemaID)
	case SavedList:
		return PathMyForms
	}
	return PathCreate
}
