package navigation

import (
	"fmt"
	"strings"
)

// Table is an immutable, validated route tree. It is safe for concurrent use.
type Table struct {
	routes   []Route
	fallback View
}

// New validates routes and builds a Table.
func New(routes ...Route) (*Table, error) {
	if len(routes) == 0 {
		return nil, ErrNoFallback
	}
	var sources []string
	if err := validate(routes, nil, &sources); err != nil {
		return nil, err
	}
	last := routes[len(routes)-1]
	if !last.isWildcard() || last.View == "" {
		return nil, ErrNoFallback
	}

	t := &Table{
		routes:   cloneRoutes(routes),
		fallback: last.View,
	}

	for _, src := range sources {
		if _, _, ok := t.follow(t.Resolve(src)); !ok {
			return nil, fmt.Errorf("%w: starting at %s", ErrRedirectLoop, src)
		}
	}
	return t, nil
}

func validate(routes []Route, prefix []string, sources *[]string) error {
	for i, r := range routes {
		full := Clean(strings.Join(append(append([]string{}, prefix...), r.Path), "/"))

		set := 0
		if r.View != "" {
			set++
		}
		if r.isRedirect() {
			set++
		}
		if r.isLayout() {
			set++
		}
		if set != 1 {
			return fmt.Errorf("%w: %s must have exactly one of view, redirect or children", ErrInvalidRoute, full)
		}

		if strings.Contains(r.Path, Wildcard) && !r.isWildcard() {
			return fmt.Errorf("%w: %s mixes wildcard with other segments", ErrInvalidRoute, full)
		}
		if r.isWildcard() {
			if i != len(routes)-1 {
				return fmt.Errorf("%w: wildcard must be the last route at its level", ErrInvalidRoute)
			}
			if r.isLayout() {
				return fmt.Errorf("%w: wildcard cannot have children", ErrInvalidRoute)
			}
		}

		if r.isRedirect() {
			if !strings.HasPrefix(r.RedirectTo, "/") {
				return fmt.Errorf("%w: redirect %s -> %q is not absolute", ErrInvalidRoute, full, r.RedirectTo)
			}
			if !r.isWildcard() && !strings.Contains(full, "/:") {
				*sources = append(*sources, full)
			}
		}

		if r.isLayout() {
			if err := validate(r.Children, append(append([]string{}, prefix...), splitPath(r.Path)...), sources); err != nil {
				return err
			}
		}
	}
	return nil
}

func cloneRoutes(routes []Route) []Route {
	out := make([]Route, len(routes))
	for i, r := range routes {
		out[i] = r
		if r.isLayout() {
			out[i].Children = cloneRoutes(r.Children)
		}
	}
	return out
}

// Resolve maps path to a view, a redirect or the not-found view.
func (t *Table) Resolve(path string) Resolution {
	segs := splitPath(path)
	res, ok := t.match(t.routes, segs, LayoutNone, nil)
	if !ok {
		res = t.notFound()
	}
	res.Path = Clean(path)
	return res
}

// ResolveIn resolves path considering only the children of the named layout.
// Paths that none of those children match resolve to the not-found view.
func (t *Table) ResolveIn(layout Layout, path string) Resolution {
	res := t.notFound()
	if host, prefix, found := findLayout(t.routes, layout, nil); found {
		segs := splitPath(path)
		if rest, ok := trimPrefix(segs, prefix); ok {
			if r, ok := t.match(host.Children, rest, layout, nil); ok {
				res = r
			}
		}
	}
	res.Path = Clean(path)
	return res
}

// Navigate resolves path and follows redirects until a view or the not-found
// view is reached. It also returns the chain of visited paths.
func (t *Table) Navigate(path string) (Resolution, []string) {
	res, chain, _ := t.follow(t.Resolve(path))
	return res, chain
}

// NavigateIn is Navigate starting from ResolveIn. Redirect targets are
// absolute and are resolved against the whole table.
func (t *Table) NavigateIn(layout Layout, path string) (Resolution, []string) {
	res, chain, _ := t.follow(t.ResolveIn(layout, path))
	return res, chain
}

// NotFound returns the table's fallback view.
func (t *Table) NotFound() View { return t.fallback }

// Routes lists every declared leaf route in declaration order.
func (t *Table) Routes() []Entry {
	var out []Entry
	flatten(t.routes, nil, LayoutNone, &out)
	return out
}

func flatten(routes []Route, prefix []string, layout Layout, out *[]Entry) {
	for _, r := range routes {
		segs := append(append([]string{}, prefix...), splitPath(r.Path)...)
		switch {
		case r.isLayout():
			inner := layout
			if r.Layout != LayoutNone {
				inner = r.Layout
			}
			flatten(r.Children, segs, inner, out)
		case r.isRedirect():
			*out = append(*out, Entry{Path: "/" + strings.Join(segs, "/"), Kind: KindRedirect, Target: r.RedirectTo, Layout: layout})
		case r.isWildcard():
			*out = append(*out, Entry{Path: "/" + strings.Join(segs, "/"), Kind: KindNotFound, Target: string(r.View), Layout: layout})
		default:
			*out = append(*out, Entry{Path: "/" + strings.Join(segs, "/"), Kind: KindView, Target: string(r.View), Layout: layout})
		}
	}
}

func (t *Table) notFound() Resolution {
	return Resolution{Kind: KindNotFound, View: t.fallback}
}

// follow chases redirects. ok is false when MaxRedirects was exceeded, in
// which case the not-found resolution is returned.
func (t *Table) follow(res Resolution) (Resolution, []string, bool) {
	chain := []string{res.Path}
	for hops := 0; res.Kind == KindRedirect; hops++ {
		if hops >= MaxRedirects {
			nf := t.notFound()
			nf.Path = res.Path
			return nf, chain, false
		}
		res = t.Resolve(res.RedirectTo)
		chain = append(chain, res.Path)
	}
	return res, chain, true
}

func (t *Table) match(routes []Route, segs []string, layout Layout, params map[string]string) (Resolution, bool) {
	for _, r := range routes {
		if r.isWildcard() {
			if r.isRedirect() {
				return Resolution{Kind: KindRedirect, RedirectTo: expand(r.RedirectTo, params, nil), Layout: layout, Params: params}, true
			}
			return Resolution{Kind: KindNotFound, View: r.View, Layout: layout, Params: params}, true
		}

		consumed, captured, ok := matchSegments(splitPath(r.Path), segs)
		if !ok {
			continue
		}
		rest := segs[consumed:]
		if r.fullMatch() && len(rest) > 0 {
			continue
		}
		merged := mergeParams(params, captured)

		switch {
		case r.isRedirect():
			return Resolution{Kind: KindRedirect, RedirectTo: expand(r.RedirectTo, merged, rest), Layout: layout, Params: merged}, true
		case r.isLayout():
			inner := layout
			if r.Layout != LayoutNone {
				inner = r.Layout
			}
			if res, ok := t.match(r.Children, rest, inner, merged); ok {
				return res, true
			}
		default:
			if len(rest) == 0 {
				return Resolution{Kind: KindView, View: r.View, Layout: layout, Params: merged}, true
			}
		}
	}
	return Resolution{}, false
}

func matchSegments(pattern, segs []string) (int, map[string]string, bool) {
	if len(pattern) > len(segs) {
		return 0, nil, false
	}
	var captured map[string]string
	for i, p := range pattern {
		if strings.HasPrefix(p, ":") {
			if captured == nil {
				captured = make(map[string]string)
			}
			captured[p[1:]] = segs[i]
			continue
		}
		if p != segs[i] {
			return 0, nil, false
		}
	}
	return len(pattern), captured, true
}

func mergeParams(a, b map[string]string) map[string]string {
	if len(b) == 0 {
		return a
	}
	out := make(map[string]string, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// expand substitutes :name segments in target from params and appends rest.
func expand(target string, params map[string]string, rest []string) string {
	segs := splitPath(target)
	for i, s := range segs {
		if strings.HasPrefix(s, ":") {
			if v, ok := params[s[1:]]; ok {
				segs[i] = v
			}
		}
	}
	return "/" + strings.Join(append(segs, rest...), "/")
}

func findLayout(routes []Route, layout Layout, prefix []string) (Route, []string, bool) {
	for _, r := range routes {
		if !r.isLayout() {
			continue
		}
		segs := append(append([]string{}, prefix...), splitPath(r.Path)...)
		if r.Layout == layout && layout != LayoutNone {
			return r, segs, true
		}
		if found, p, ok := findLayout(r.Children, layout, segs); ok {
			return found, p, true
		}
	}
	return Route{}, nil, false
}

func trimPrefix(segs, prefix []string) ([]string, bool) {
	if len(prefix) > len(segs) {
		return nil, false
	}
	for i, p := range prefix {
		if p != segs[i] && !strings.HasPrefix(p, ":") {
			return nil, false
		}
	}
	return segs[len(prefix):], true
}
