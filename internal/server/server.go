// Package server exposes the interview engine over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/khrees2412/mockly/internal/interview"
	"github.com/khrees2412/mockly/internal/logx"
)

// Server is the HTTP front end of the engine
type Server struct {
	engine     *interview.Engine
	log        *logx.Logger
	httpServer *http.Server
}

// New builds and wires all routes. registry may be nil to disable /metrics.
func New(addr string, engine *interview.Engine, registry *prometheus.Registry) *Server {
	s := &Server{engine: engine, log: logx.NewLogger("server")}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(registry),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) routes(registry *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Route("/session", func(sr chi.Router) {
			sr.Get("/", s.getSession)
			sr.Post("/resume", s.uploadResume)
			sr.Post("/profile", s.ingestProfile)
			sr.Patch("/profile", s.completeProfile)
			sr.Post("/begin", s.begin)
			sr.Post("/draft", s.saveDraft)
			sr.Post("/answer", s.submitAnswer)
			sr.Post("/pause", s.pause)
			sr.Post("/resume-timer", s.resumeTimer)
			sr.Post("/reset", s.reset)
		})
		api.Get("/archive", s.listArchives)
		api.Get("/archive/{candidateID}", s.getArchive)
	})

	return r
}

// Start runs the HTTP server until Shutdown
func (s *Server) Start() error {
	s.log.Info("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
