package api

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/notewire/notewire/pkg/log"
	"github.com/notewire/notewire/pkg/messages"
	"github.com/notewire/notewire/pkg/metrics"
	"github.com/notewire/notewire/pkg/notes"
	"github.com/notewire/notewire/pkg/realtime"
	"github.com/notewire/notewire/pkg/session"
)

// Server is the HTTP front of the application: the note CRUD routes, the
// login endpoint that mints session cookies, the realtime handshake, and
// the operational endpoints (/healthz, /metrics).
type Server struct {
	noteStore notes.Store
	msgStore  messages.Store
	sessions  *session.Store
	hub       *realtime.Hub
	router    *mux.Router
	http      *http.Server
	logger    zerolog.Logger
}

// NewServer wires the routes over the given stores and hub.
func NewServer(noteStore notes.Store, msgStore messages.Store, sessions *session.Store, hub *realtime.Hub) *Server {
	s := &Server{
		noteStore: noteStore,
		msgStore:  msgStore,
		sessions:  sessions,
		hub:       hub,
		router:    mux.NewRouter(),
		logger:    log.WithComponent("api"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.observe)

	s.router.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	s.router.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)

	s.router.HandleFunc("/notes", s.handleCreateNote).Methods(http.MethodPost)
	s.router.HandleFunc("/notes", s.handleListNotes).Methods(http.MethodGet)
	s.router.HandleFunc("/notes/{key}", s.handleReadNote).Methods(http.MethodGet)
	s.router.HandleFunc("/notes/{key}", s.handleUpdateNote).Methods(http.MethodPut)
	s.router.HandleFunc("/notes/{key}", s.handleDestroyNote).Methods(http.MethodDelete)
	s.router.HandleFunc("/notes/{key}/messages", s.handleRecentMessages).Methods(http.MethodGet)

	s.router.HandleFunc("/ws", s.hub.ServeWS(realtime.NewAuthenticator(s.sessions))).Methods(http.MethodGet)

	s.router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 0, // websocket connections outlive any write deadline
		IdleTimeout:  60 * time.Second,
	}
	s.logger.Info().Str("addr", addr).Msg("HTTP API listening")

	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// observe records every request in the access log and the request counter.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		metrics.APIRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// statusRecorder captures the status code for the access log. Hijack is
// forwarded so the /ws upgrade still works behind the middleware.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.written {
		r.status = status
		r.written = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.written = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}
