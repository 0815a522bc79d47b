package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// maxCommandBody caps one receive call's payload.
const maxCommandBody = 1 << 20

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthzResponse{
		Status:            "ok",
		UptimeSeconds:     int64(time.Since(s.startedAt).Seconds()),
		Sessions:          s.registry.Count(),
		ConsoleQueueDepth: s.stats.ConsoleDepth(),
		FileQueueDepth:    s.stats.FileDepth(),
	}
	if s.journal != nil {
		if n, err := s.journal.Count(r.Context()); err == nil {
			resp.BatchesRecorded = n
		} else {
			s.logger.Error("failed to count journaled batches", "error", err)
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleCreateSession handles POST /v1/sessions.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	capacity := req.Capacity
	if capacity == 0 {
		capacity = s.config.DefaultCapacity
	}

	handle, err := s.registry.Connect(capacity)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, CreateSessionResponse{
		Handle:   handle,
		Capacity: capacity,
	})
}

// handleCommands handles POST /v1/sessions/{handle}/commands. The raw body
// is the command stream: newline-separated tokens, blanks ignored. An
// unknown handle is the silent-no-op contract surfaced over HTTP: the
// request is accepted and nothing happens.
func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCommandBody))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "command payload too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	s.registry.Receive(handle, body)
	w.WriteHeader(http.StatusAccepted)
}

// handleDisconnect handles DELETE /v1/sessions/{handle}. Idempotent.
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	s.registry.Disconnect(chi.URLParam(r, "handle"))
	w.WriteHeader(http.StatusNoContent)
}

// handleBatches handles GET /v1/batches?limit=n.
func (s *Server) handleBatches(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		s.writeError(w, http.StatusNotFound, "batch journal is disabled")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1000 {
			s.writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 1000")
			return
		}
		limit = n
	}

	entries, err := s.journal.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to query batch journal", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to query batch journal")
		return
	}

	respondJSON(w, http.StatusOK, entries)
}
