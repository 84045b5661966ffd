package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/notewire/notewire/pkg/messages"
	"github.com/notewire/notewire/pkg/metrics"
	"github.com/notewire/notewire/pkg/notes"
	"github.com/notewire/notewire/pkg/realtime"
	"github.com/notewire/notewire/pkg/types"
)

// NoteRequest is the body for creating or updating a note.
type NoteRequest struct {
	Key   string `json:"key,omitempty"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// NoteListResponse is the index view: one entry per note, titles only.
type NoteListResponse struct {
	Count int               `json:"count"`
	Notes []types.NoteTitle `json:"notes"`
}

// LoginRequest is the body for POST /login.
type LoginRequest struct {
	Username string `json:"username"`
}

// LoginResponse confirms the minted session.
type LoginResponse struct {
	Identity string `json:"identity"`
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status    string    `json:"status"`
	Notes     int       `json:"notes"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// statusForError maps store errors onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, notes.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, notes.ErrNotFound), errors.Is(err, messages.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, notes.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, notes.ErrStoreClosed), errors.Is(err, notes.ErrStoreUnavailable),
		errors.Is(err, messages.ErrStoreClosed), errors.Is(err, messages.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, notes.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// storeError reports the failure to the client and counts it.
func storeError(w http.ResponseWriter, op string, err error) {
	metrics.StoreOpsTotal.WithLabelValues(op, "error").Inc()
	respondError(w, statusForError(err), err.Error())
}

func storeOK(op string) {
	metrics.StoreOpsTotal.WithLabelValues(op, "ok").Inc()
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if req.Username == "" {
		respondError(w, http.StatusBadRequest, "username is required")
		return
	}

	sid := s.sessions.Create(req.Username)
	http.SetCookie(w, &http.Cookie{
		Name:     realtime.SessionCookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.Info().Str("identity", req.Username).Msg("session created")
	respondJSON(w, http.StatusOK, LoginResponse{Identity: req.Username})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(realtime.SessionCookieName); err == nil {
		s.sessions.Destroy(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:   realtime.SessionCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	note, err := s.noteStore.Create(r.Context(), req.Key, req.Title, req.Body)
	if err != nil {
		storeError(w, "create", err)
		return
	}
	storeOK("create")
	s.trackNoteCount(r)
	respondJSON(w, http.StatusCreated, note)
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	keys, err := s.noteStore.Keylist(ctx)
	if err != nil {
		storeError(w, "keylist", err)
		return
	}
	storeOK("keylist")

	titles := make([]types.NoteTitle, 0, len(keys))
	for _, key := range keys {
		note, err := s.noteStore.Read(ctx, key)
		if err != nil {
			// Destroyed between list and read.
			continue
		}
		titles = append(titles, types.NoteTitle{Key: note.Key, Title: note.Title})
	}
	respondJSON(w, http.StatusOK, NoteListResponse{Count: len(titles), Notes: titles})
}

func (s *Server) handleReadNote(w http.ResponseWriter, r *http.Request) {
	note, err := s.noteStore.Read(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		storeError(w, "read", err)
		return
	}
	storeOK("read")
	respondJSON(w, http.StatusOK, note)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	note, err := s.noteStore.Update(r.Context(), mux.Vars(r)["key"], req.Title, req.Body)
	if err != nil {
		storeError(w, "update", err)
		return
	}
	storeOK("update")
	respondJSON(w, http.StatusOK, note)
}

func (s *Server) handleDestroyNote(w http.ResponseWriter, r *http.Request) {
	if err := s.noteStore.Destroy(r.Context(), mux.Vars(r)["key"]); err != nil {
		storeError(w, "destroy", err)
		return
	}
	storeOK("destroy")
	s.trackNoteCount(r)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecentMessages(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if _, err := s.noteStore.Read(r.Context(), key); err != nil {
		storeError(w, "read", err)
		return
	}

	recent, err := s.msgStore.Recent(r.Context(), realtime.NamespaceNotes, key)
	if err != nil {
		storeError(w, "recent", err)
		return
	}
	storeOK("recent")
	respondJSON(w, http.StatusOK, recent)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	count, err := s.noteStore.Count(r.Context())
	if err != nil {
		respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "unhealthy",
			Timestamp: time.Now(),
		})
		return
	}
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Notes:     count,
		Timestamp: time.Now(),
	})
}

// trackNoteCount refreshes the note count gauge after a mutation.
func (s *Server) trackNoteCount(r *http.Request) {
	if count, err := s.noteStore.Count(r.Context()); err == nil {
		metrics.NotesTotal.Set(float64(count))
	}
}
