package web

import (
	"fmt"
	"net/http"

	"github.com/jackskhakis/gameyfin/internal/domain/navigation"
	"github.com/jackskhakis/gameyfin/pkg/logger"
)

// handlePage resolves the request path and answers with a redirect, the
// resolved view, or the not-found view.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res := s.deps.Resolve(r.URL.Path)

	switch res.Kind {
	case navigation.KindRedirect:
		http.Redirect(w, r, res.RedirectTo, http.StatusFound)
		return
	case navigation.KindNotFound:
		s.render(w, r, http.StatusNotFound, res.Layout, pageData{Path: res.Path, View: res.View})
		return
	}

	data := pageData{Path: res.Path, View: res.View}
	status := http.StatusOK
	if res.View == navigation.ViewLibraryOverview {
		data.Flash = actionFlash(r)
		files, err := s.deps.ListFiles(ctx)
		if err != nil {
			s.logger.Warn(ctx, "list files failed", logger.Error(err))
			data.Error = err.Error()
			status = http.StatusBadGateway
		}
		data.Files = files
	}
	s.render(w, r, status, res.Layout, data)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, layout navigation.Layout, data pageData) {
	if err := s.renderer.render(w, status, layout, data); err != nil {
		s.logger.Error(r.Context(), "render failed",
			logger.String("view", string(data.View)), logger.Error(err))
	}
}

// actionFlash describes the outcome of a preceding action redirect.
func actionFlash(r *http.Request) string {
	q := r.URL.Query()
	action := q.Get("action")
	if action == "" {
		return ""
	}
	status := q.Get("status")
	if status == statusSkipped {
		return fmt.Sprintf("%s is already running, request skipped", action)
	}
	if status == "" {
		return fmt.Sprintf("%s requested", action)
	}
	return fmt.Sprintf("%s requested, backend answered %s", action, status)
}
