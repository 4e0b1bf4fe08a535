package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/jackskhakis/gameyfin/internal/adapters/http/library"
	"github.com/jackskhakis/gameyfin/internal/domain/navigation"
	"github.com/jackskhakis/gameyfin/pkg/logger"
)

// statusSkipped replaces the backend status when the job was already running.
const statusSkipped = "skipped"

// handleAction triggers a backend job and sends the browser back to the
// library overview.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	action := mux.Vars(r)["action"]

	if action != library.OpScan && action != library.OpDownloadImages {
		s.render(w, r, http.StatusNotFound, navigation.LayoutFullpage, pageData{
			Path: r.URL.Path,
			View: s.deps.NotFound(),
		})
		return
	}

	resp, ran, err := s.deps.RunJob(ctx, action)
	status := statusSkipped
	switch {
	case !ran && err == nil:
		s.logger.Info(ctx, "backend action already running", logger.String("action", action))
	case resp == nil:
		if err == nil {
			err = fmt.Errorf("%w: %s", ErrNoResponse, action)
		}
		s.logger.Warn(ctx, "backend action failed", logger.String("action", action), logger.Error(err))
		s.render(w, r, http.StatusBadGateway, navigation.LayoutFullpage, pageData{
			Path:  r.URL.Path,
			View:  viewError,
			Error: err.Error(),
		})
		return
	case err != nil:
		status = strconv.Itoa(resp.StatusCode)
		s.logger.Warn(ctx, "backend action returned an error status",
			logger.String("action", action), logger.Int("status", resp.StatusCode), logger.Error(err))
	default:
		status = strconv.Itoa(resp.StatusCode)
		s.logger.Info(ctx, "backend action done",
			logger.String("action", action), logger.Int("status", resp.StatusCode))
	}

	q := url.Values{}
	q.Set("action", action)
	q.Set("status", status)
	http.Redirect(w, r, "/library?"+q.Encode(), http.StatusSeeOther)
}
