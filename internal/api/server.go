// Package api serves the bridge's REST surface: the latest decoded
// snapshot, per-sensor readings and the raw buffer dump.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/btleweather/btleweather/internal/auth"
	"github.com/btleweather/btleweather/internal/config"
	"github.com/btleweather/btleweather/pkg/emr"
)

// SnapshotSource is what the API reads from; the bridge service
// implements it.
type SnapshotSource interface {
	// Latest returns the most recent snapshot, when it was measured,
	// and whether one exists yet.
	Latest() (*emr.Snapshot, time.Time, bool)

	// RawData returns the reassembled, undecoded buffers from the most
	// recent session.
	RawData() map[uint16][]byte
}

// Server represents the REST API server
type Server struct {
	config *config.Config
	source SnapshotSource
	tokens *auth.TokenManager
	router chi.Router
	server *http.Server
}

// NewServer creates a new REST API server
func NewServer(cfg *config.Config, source SnapshotSource) *Server {
	s := &Server{
		config: cfg,
		source: source,
		tokens: auth.NewTokenManager(&cfg.API),
		router: chi.NewRouter(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.HandleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/snapshot", s.HandleSnapshot)
			r.Get("/snapshot/raw", s.HandleRawData)
			r.Get("/sensors/{unit}", s.HandleSensor)
		})
	})
}

// ListenAndServe starts the server
func (s *Server) ListenAndServe(addr string) error {
	s.server.Addr = addr
	log.Info().Str("addr", addr).Bool("auth", s.tokens.Enabled()).Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// authMiddleware validates bearer tokens. With no secret configured it
// passes everything through.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.tokens.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			s.respondError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			s.respondError(w, http.StatusUnauthorized, "invalid authorization header")
			return
		}

		if _, err := s.tokens.Validate(parts[1]); err != nil {
			s.respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}
