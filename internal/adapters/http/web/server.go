// Package web serves the browser-facing pages. Page paths are resolved
// through the navigation table and rendered as server-side views.
package web

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jackskhakis/gameyfin/internal/adapters/http/library"
	"github.com/jackskhakis/gameyfin/internal/domain/navigation"
	"github.com/jackskhakis/gameyfin/pkg/logger"
	"github.com/jackskhakis/gameyfin/pkg/metrics"
)

// Dependencies required by the page and action handlers.
type Dependencies interface {
	Resolve(path string) navigation.Resolution
	NotFound() navigation.View

	ListFiles(ctx context.Context) ([]string, error)

	// RunJob runs the named backend job unless a run of it is already in
	// progress, in which case ran is false.
	RunJob(ctx context.Context, name string) (resp *library.Response, ran bool, err error)
}

// Server wires HTTP routes for the front-end.
type Server struct {
	deps     Dependencies
	renderer *renderer
	logger   logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets a custom logger for the server.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer parses the embedded templates and returns a Server.
func NewServer(deps Dependencies, opts ...Option) (*Server, error) {
	r, err := newRenderer()
	if err != nil {
		return nil, err
	}
	s := &Server{deps: deps, renderer: r, logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns a router with every route registered.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	s.Register(router)
	return router
}

// Register attaches all routes to router. The page route is a catch-all and
// is registered last.
func (s *Server) Register(router *mux.Router) {
	router.Use(MetricsMiddleware)

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet).Name("healthz")
	router.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})).
		Methods(http.MethodGet).Name("metrics")
	router.PathPrefix("/static/").
		Handler(http.StripPrefix("/static/", http.FileServer(staticFS()))).
		Methods(http.MethodGet, http.MethodHead).Name("static")
	router.HandleFunc("/actions/{action}", s.handleAction).Methods(http.MethodPost).Name("action")
	router.PathPrefix("/").HandlerFunc(s.handlePage).Methods(http.MethodGet, http.MethodHead).Name("page")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
