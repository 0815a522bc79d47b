package api

import (
	"encoding/json"
	"net/http"
)

// CreateSessionRequest is the body of POST /v1/sessions.
type CreateSessionRequest struct {
	// Capacity is the batch size threshold. Zero means the server default.
	Capacity int `json:"capacity,omitempty"`
}

// CreateSessionResponse returns the opaque session handle.
type CreateSessionResponse struct {
	Handle   string `json:"handle"`
	Capacity int    `json:"capacity"`
}

// HealthzResponse is the body of GET /healthz.
type HealthzResponse struct {
	Status            string `json:"status"`
	UptimeSeconds     int64  `json:"uptime_seconds"`
	Sessions          int    `json:"sessions"`
	ConsoleQueueDepth int    `json:"console_queue_depth"`
	FileQueueDepth    int    `json:"file_queue_depth"`
	BatchesRecorded   int    `json:"batches_recorded,omitempty"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
