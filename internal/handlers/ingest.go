package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"agegate/internal/event"
	"agegate/internal/metrics"
)

// IngestHandler accepts event records over HTTP and queues them for the
// age filter workers.
type IngestHandler struct {
	recordChan  chan<- *event.Record
	maxBodySize int64
	now         func() time.Time
}

// IngestConfig holds configuration for the ingest handler
type IngestConfig struct {
	RecordChan  chan<- *event.Record
	MaxBodySize int64
	Now         func() time.Time // optional, defaults to time.Now
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(cfg IngestConfig) *IngestHandler {
	maxBodySize := cfg.MaxBodySize
	if maxBodySize == 0 {
		maxBodySize = 10 * 1024 * 1024 // 10MB default
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &IngestHandler{
		recordChan:  cfg.RecordChan,
		maxBodySize: maxBodySize,
		now:         now,
	}
}

// IngestResponse is the response returned to clients
type IngestResponse struct {
	Success  bool          `json:"success"`
	Accepted int           `json:"accepted"`
	Rejected int           `json:"rejected"`
	Errors   []IngestError `json:"errors,omitempty"`
}

// IngestError describes a rejection for a specific event
type IngestError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// ServeHTTP handles the ingest HTTP request
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType != "application/json" && contentType != "" {
		h.writeError(w, http.StatusUnsupportedMediaType, "content-type must be application/json")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	events, err := parseBody(body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(events) == 0 {
		h.writeError(w, http.StatusBadRequest, "no events provided")
		return
	}

	response := h.enqueue(events)

	w.Header().Set("Content-Type", "application/json")
	if response.Rejected > 0 && response.Accepted == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(response)
}

// parseBody accepts either a single JSON object or an array of objects.
func parseBody(body []byte) ([]map[string]any, error) {
	var many []map[string]any
	if err := json.Unmarshal(body, &many); err == nil {
		return many, nil
	}

	var single map[string]any
	if err := json.Unmarshal(body, &single); err == nil {
		return []map[string]any{single}, nil
	}

	return nil, fmt.Errorf("invalid JSON: expected event object or array of events")
}

// enqueue stamps each event with a received-at timestamp when it carries
// none and pushes it to the worker channel without blocking.
func (h *IngestHandler) enqueue(events []map[string]any) IngestResponse {
	response := IngestResponse{Success: true}

	for i, fields := range events {
		rec := event.New(fields)
		if _, ok := rec.Timestamp(); !ok {
			rec.SetTimestamp(h.now())
		}

		select {
		case h.recordChan <- rec:
			response.Accepted++
			metrics.IngestEventsTotal.WithLabelValues("accepted").Inc()
		default:
			// Queue full: reject rather than block the request.
			response.Errors = append(response.Errors, IngestError{
				Index: i,
				Error: "internal queue full, try again later",
			})
			response.Rejected++
			metrics.IngestEventsTotal.WithLabelValues("rejected").Inc()
		}
	}

	response.Success = response.Rejected == 0
	return response
}

// writeError writes an error response
func (h *IngestHandler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
	})
}
