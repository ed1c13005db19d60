// Package web serves the dashboard as a local web page with a small JSON API.
//
// Every browser gets its own session.Session, keyed by a cookie, so the
// served page follows the same rules as the terminal dashboard.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/verte-zerg/concerto/internal/logging"
	"github.com/verte-zerg/concerto/internal/metrics"
	"github.com/verte-zerg/concerto/internal/session"
)

//go:embed templates/*.html
var templates embed.FS

const shutdownTimeout = 5 * time.Second

// Options configure the server.
type Options struct {
	Addr            string
	LoginRateLimit  int
	LoginRateWindow time.Duration
	// SessionIdle drops browser sessions unused for this long. Zero keeps them forever.
	SessionIdle time.Duration
}

// Server is the HTTP surface of the dashboard.
type Server struct {
	opts     Options
	router   chi.Router
	sessions *registry
	page     *template.Template
}

// New builds a server sharing deps across every browser session.
func New(deps session.Deps, opts Options) (*Server, error) {
	page, err := template.New("index.html").Funcs(templateFuncs).ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}
	s := &Server{
		opts:     opts,
		router:   chi.NewRouter(),
		sessions: newRegistry(deps, opts.SessionIdle),
		page:     page,
	}
	metrics.CatalogPrograms.Set(float64(deps.Catalog.ProgramCount()))
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(instrument)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Get("/", s.handleIndex)

	s.router.Group(func(r chi.Router) {
		r.Use(authRateLimit(s.opts.LoginRateLimit, s.opts.LoginRateWindow))
		r.Post("/login", s.handleLogin)
		r.Post("/register", s.handleRegister)
	})

	s.router.Post("/logout", s.handleLogout)
	s.router.Post("/filters", s.handleFilters)
	s.router.Post("/filters/clear", s.handleClearFilters)
	s.router.Post("/ratings", s.handleRate)
	s.router.Post("/ratings/save", s.handleSave)
	s.router.Post("/ratings/load", s.handleLoad)
	s.router.Post("/reset", s.handleReset)
	s.router.Post("/reset/confirm", s.handleResetConfirm)
	s.router.Post("/reset/cancel", s.handleResetCancel)
	s.router.Post("/page", s.handlePage)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/options", s.handleAPIOptions)
		r.Get("/programs", s.handleAPIPrograms)
		r.Get("/coverage", s.handleAPICoverage)
		r.Put("/ratings/{programID}", s.handleAPIRate)
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.opts.Addr).Msg("serving dashboard")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	logging.Info().Msg("server stopped")
	return nil
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Programs int    `json:"programs"`
	Sessions int    `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondData(w, HealthResponse{
		Status:   "healthy",
		Programs: s.sessions.deps.Catalog.ProgramCount(),
		Sessions: s.sessions.len(),
	})
}
