package services

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/benmeehan/mission-agent/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// SessionSource exposes session snapshots for polling.
type SessionSource interface {
	Snapshots() []models.SessionSnapshot
	Snapshot(id string) (models.SessionSnapshot, bool)
}

// StatusServer serves session snapshots over HTTP.
type StatusServer struct {
	Addr     string
	Sessions SessionSource
	Logger   zerolog.Logger

	server *http.Server
	wg     sync.WaitGroup
}

// NewStatusServer initializes a new StatusServer listening on addr.
func NewStatusServer(addr string, sessions SessionSource, logger zerolog.Logger) *StatusServer {
	return &StatusServer{
		Addr:     addr,
		Sessions: sessions,
		Logger:   logger,
	}
}

// Handler returns the routes of the status API.
func (s *StatusServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/sessions", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, s.Sessions.Snapshots())
	})
	r.Get("/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		snapshot, ok := s.Sessions.Snapshot(chi.URLParam(r, "id"))
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		writeJSON(w, http.StatusOK, snapshot)
	})

	return r
}

// Start binds the listen address and serves in a separate goroutine.
func (s *StatusServer) Start() error {
	if s.server != nil {
		s.Logger.Warn().Msg("StatusServer is already running")
		return errors.New("status server is already running")
	}

	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Error().Err(err).Msg("Status server stopped unexpectedly")
		}
	}()

	s.Logger.Info().Str("addr", listener.Addr().String()).Msg("StatusServer started successfully")
	return nil
}

// Stop shuts the server down, waiting up to five seconds for open requests.
func (s *StatusServer) Stop() error {
	if s.server == nil {
		s.Logger.Warn().Msg("StatusServer is not running")
		return errors.New("status server is not running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	s.wg.Wait()
	s.server = nil

	s.Logger.Info().Msg("StatusServer stopped successfully")
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
