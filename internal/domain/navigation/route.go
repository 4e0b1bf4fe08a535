// Package navigation maps URL paths to named views.
//
// A Table holds an ordered tree of routes. Resolution is first-match in
// declaration order, descending into layout routes and backtracking out of
// them when none of their children match. A top-level wildcard route
// guarantees that every path resolves to something.
package navigation

import (
	"strings"
)

// Wildcard is the path that matches anything not matched earlier at its level.
const Wildcard = "**"

// MaxRedirects bounds how many redirects Navigate follows.
const MaxRedirects = 10

// View identifies a rendered page.
type View string

// Views rendered by the front-end.
const (
	ViewLibraryOverview View = "library-overview"
	ViewNotImplemented  View = "not-implemented"
	ViewLogin           View = "login"
	ViewPageNotFound    View = "page-not-found"
)

// Layout identifies the outer frame hosting a group of child routes.
type Layout string

// Layouts used by the front-end.
const (
	LayoutNone     Layout = ""
	LayoutNavbar   Layout = "navbar"
	LayoutFullpage Layout = "fullpage"
)

// PathMatch controls how much of the remaining path a route must consume.
type PathMatch int

const (
	// PathMatchPrefix matches when the route path is a prefix of the remaining path.
	PathMatchPrefix PathMatch = iota
	// PathMatchFull matches only when the route path consumes the whole remaining path.
	PathMatchFull
)

// Route is one entry in the navigation tree. A route is exactly one of:
// a view route (View set), a redirect route (RedirectTo set) or a layout
// route (Children set, Layout optional).
type Route struct {
	Path       string
	View       View
	Layout     Layout
	RedirectTo string
	PathMatch  PathMatch
	Children   []Route
}

func (r Route) isWildcard() bool { return r.Path == Wildcard }

func (r Route) isRedirect() bool { return r.RedirectTo != "" }

func (r Route) isLayout() bool { return len(r.Children) > 0 }

// fullMatch reports whether the route needs to consume the remaining path.
// Empty-path redirects always match fully, otherwise they would match every path.
func (r Route) fullMatch() bool {
	return r.PathMatch == PathMatchFull || (r.isRedirect() && r.Path == "")
}

// Kind classifies a Resolution.
type Kind int

const (
	KindView Kind = iota
	KindRedirect
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindView:
		return "view"
	case KindRedirect:
		return "redirect"
	case KindNotFound:
		return "not-found"
	default:
		return "unknown"
	}
}

// Resolution is the outcome of resolving a single path.
type Resolution struct {
	Kind Kind
	// Path is the normalized requested path.
	Path       string
	View       View
	Layout     Layout
	RedirectTo string
	Params     map[string]string
}

// Entry is a flattened description of a declared route.
type Entry struct {
	Path   string
	Kind   Kind
	Target string
	Layout Layout
}

// splitPath returns the non-empty segments of p, ignoring any query or fragment.
func splitPath(p string) []string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	parts := strings.Split(p, "/")
	segs := parts[:0]
	for _, s := range parts {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// Clean normalizes p to the form used in Resolution.Path.
func Clean(p string) string {
	return "/" + strings.Join(splitPath(p), "/")
}
