package web

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/jackskhakis/gameyfin/internal/domain/navigation"
)

// viewError is rendered when a backend action fails outright. It is not
// reachable through the navigation table.
const viewError navigation.View = "error"

var viewTitles = map[navigation.View]string{
	navigation.ViewLibraryOverview: "Library",
	navigation.ViewNotImplemented:  "Not implemented",
	navigation.ViewLogin:           "Login",
	navigation.ViewPageNotFound:    "Not found",
	viewError:                      "Error",
}

type navLink struct {
	Href   string
	Label  string
	Active bool
}

var navbarLinks = []navLink{
	{Href: "/library", Label: "Library"},
	{Href: "/games", Label: "Games"},
	{Href: "/info", Label: "Info"},
	{Href: "/config", Label: "Config"},
}

type pageData struct {
	Title string
	Path  string
	View  navigation.View
	Nav   []navLink
	Files []string
	Error string
	Flash string
}

// renderer holds one template set per view, each combining the shared
// layouts with that view's "content" block.
type renderer struct {
	views map[navigation.View]*template.Template
}

func newRenderer() (*renderer, error) {
	base, err := template.ParseFS(assetsFS, "templates/layouts.html")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplates, err)
	}
	r := &renderer{views: make(map[navigation.View]*template.Template, len(viewTitles))}
	for view := range viewTitles {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTemplates, err)
		}
		if _, err := t.ParseFS(assetsFS, "templates/views/"+string(view)+".html"); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrTemplates, view, err)
		}
		r.views[view] = t
	}
	return r, nil
}

func layoutTemplate(l navigation.Layout) string {
	if l == navigation.LayoutNavbar {
		return "navbar"
	}
	return "fullpage"
}

// render writes the page with status. Output is buffered so a template
// failure can still produce a 500.
func (r *renderer) render(w http.ResponseWriter, status int, layout navigation.Layout, data pageData) error {
	t, ok := r.views[data.View]
	if !ok {
		t = r.views[navigation.ViewPageNotFound]
	}
	if data.Title == "" {
		data.Title = viewTitles[data.View]
	}
	if layout == navigation.LayoutNavbar {
		data.Nav = make([]navLink, len(navbarLinks))
		for i, l := range navbarLinks {
			l.Active = l.Href == data.Path
			data.Nav[i] = l
		}
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layoutTemplate(layout), data); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
