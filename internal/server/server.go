// Package server is the local bridge a desktop overlay talks to: a small
// JSON API to trigger analyses and read the records, and a WebSocket that
// pushes each finished cycle.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/miaomiao/miaomiao/internal/cycle"
	"github.com/miaomiao/miaomiao/internal/favor"
	"github.com/miaomiao/miaomiao/internal/history"
	"github.com/miaomiao/miaomiao/internal/journal"
	"github.com/miaomiao/miaomiao/internal/pet"
)

// Journal is the read side of the cycle journal.
type Journal interface {
	Recent(limit int) ([]journal.Entry, error)
}

// Options configure a Server.
type Options struct {
	Pet   *pet.Pet
	Guard *history.Guard
	// Journal may be nil.
	Journal Journal
	// Bubble is how long the overlay should show each comment.
	Bubble time.Duration
	Logger *slog.Logger
}

// Server serves the bridge API.
type Server struct {
	pet     *pet.Pet
	guard   *history.Guard
	journal Journal
	bubble  time.Duration
	hub     *Hub
	logger  *slog.Logger

	// base outlives individual requests; analyses triggered over HTTP run
	// under it.
	base context.Context
}

// New creates a Server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{
		pet:     opts.Pet,
		guard:   opts.Guard,
		journal: opts.Journal,
		bubble:  opts.Bubble,
		hub:     NewHub(opts.Logger),
		logger:  opts.Logger,
		base:    context.Background(),
	}
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/stats", s.handleStats)
		r.Get("/favorability", s.handleFavorability)
		r.Get("/history", s.handleHistory)
	})
	r.Get("/ws", s.hub.ServeHTTP)

	return r
}

// Publish pushes a finished cycle to every connected client.
func (s *Server) Publish(res cycle.Result) {
	s.hub.Broadcast(s.event(res))
}

func (s *Server) event(res cycle.Result) Event {
	return Event{
		Type:          EventAnalysis,
		Text:          res.Text,
		Delta:         res.Delta,
		Outcome:       string(res.Outcome),
		TierChanged:   res.TierChanged,
		BubbleSeconds: int(s.bubble / time.Second),
		Favorability:  favor.TierDisplay(res.Score),
		At:            res.At,
	}
}

// Pump publishes every result from the pet until ctx is done. Use it when
// nothing else consumes pet.Results.
func (s *Server) Pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case res := <-s.pet.Results():
			s.Publish(res)
		}
	}
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.base = ctx
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.Router(),
		ReadTimeout: 30 * time.Second,
		// WebSocket connections are long-lived.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server: listening", "addr", addr)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
