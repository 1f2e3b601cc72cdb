// Package server exposes the analyzer, the track library and the mixing
// helpers over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/RyanBlaney/sonido-deck/analysis"
	"github.com/RyanBlaney/sonido-deck/config"
	"github.com/RyanBlaney/sonido-deck/library"
	"github.com/RyanBlaney/sonido-deck/logging"
)

// Server is the HTTP server
type Server struct {
	config   config.ServerConfig
	router   *chi.Mux
	lib      *library.Library
	analyzer *analysis.Analyzer
	async    *analysis.Async
	logger   logging.Logger
}

// New creates a server over lib and analyzer. The caller owns both.
func New(cfg config.ServerConfig, lib *library.Library, analyzer *analysis.Analyzer, logger logging.Logger) *Server {
	logger = logging.OrNoOp(logger).WithFields(logging.Fields{"component": "http_server"})

	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		lib:      lib,
		analyzer: analyzer,
		async:    analysis.NewAsync(analyzer),
		logger:   logger,
	}
	s.setupRoutes()
	return s
}

// Handler returns the routed handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/analysis", func(r chi.Router) {
			r.Post("/file", s.handleAnalyzeFile)
			r.Post("/track/{id}", s.handleAnalyzeTrack)
			r.Post("/batch", s.handleAnalyzeBatch)
		})

		r.Route("/tracks", func(r chi.Router) {
			r.Get("/", s.handleSearchTracks)
			r.Post("/", s.handleCreateTrack)
			r.Get("/{id}", s.handleGetTrack)
			r.Patch("/{id}", s.handleUpdateTrack)
			r.Delete("/{id}", s.handleDeleteTrack)
			r.Get("/{id}/compatible", s.handleCompatible)
		})

		r.Route("/sets", func(r chi.Router) {
			r.Get("/", s.handleListSets)
			r.Post("/", s.handleCreateSet)
			r.Get("/{id}", s.handleGetSet)
			r.Patch("/{id}", s.handleUpdateSet)
			r.Delete("/{id}", s.handleDeleteSet)
			r.Post("/{id}/tracks", s.handleAddSetTrack)
			r.Delete("/{id}/tracks/{position}", s.handleRemoveSetTrack)
			r.Get("/{id}/suggest", s.handleSuggest)
		})

		r.Post("/chain", s.handleChain)
		r.Get("/library/stats", s.handleLibraryStats)
	})
}

// requestLogger logs one line per request through the application logger
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		ctx := logging.ContextWithFields(r.Context(), logging.Fields{
			"request_id": middleware.GetReqID(r.Context()),
		})
		next.ServeHTTP(ww, r.WithContext(ctx))

		s.logger.WithContext(ctx).Info("Request", logging.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"bytes":    ww.BytesWritten(),
			"duration": time.Since(start).String(),
		})
	})
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", logging.Fields{"listen": s.config.Listen})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
