/*
handlers.go - HTTP handlers for the webhook and import endpoints

PURPOSE:
  The synchronous side of the bridge. Webhook handlers validate,
  enqueue an outbox task and acknowledge immediately; the outbox worker
  performs the actual synchronization after the response is flushed.
  The webhook sender therefore only ever sees "accepted" or a
  validation error - never the downstream outcome. That asymmetry is
  deliberate: Rework's webhook delivery times out fast.

ENDPOINTS:
  GET  /                        Health + queue depth
  GET  /webhook/rework          Informational (webhook URL checks)
  POST /webhook/rework          Rework event ingestion
  GET  /import/auto-fetch       Pull-based backfill from the Rework API
  POST /import/approved-requests Explicit-batch backfill

EVENT DISPATCH:
  request_created    enqueue create (unless explicitly not approved)
  request_updated    enqueue create only on a transition to approved
  request_destroyed  enqueue destroy
  anything else      acknowledged, no action

ERROR HANDLING:
  - 400: missing required payload fields, malformed JSON
  - 500: enqueue/storage failure (with message and timestamp)
  - 503: import endpoints when the Rework API is not configured

SEE ALSO:
  - dto.go: Payload schemas and validation views
  - bridge/sync.go: What the enqueued tasks end up doing
  - server.go: Routing
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/warp/leave-bridge/bridge"
	"github.com/warp/leave-bridge/machines"
	"github.com/warp/leave-bridge/outbox"
)

// Handler holds all dependencies for HTTP handlers. Importer is nil
// when the Rework API is not configured; the import endpoints then
// answer 503 while everything else keeps working.
type Handler struct {
	Queue    outbox.Store
	Machines machines.Repository
	Importer *bridge.Importer

	validate *validator.Validate
	log      *logrus.Entry
}

// NewHandler creates a handler.
func NewHandler(queue outbox.Store, repo machines.Repository, importer *bridge.Importer, log *logrus.Logger) *Handler {
	return &Handler{
		Queue:    queue,
		Machines: repo,
		Importer: importer,
		validate: validator.New(),
		log:      log.WithField("component", "api"),
	}
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports liveness and queue depth.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Queue.Counts(r.Context())
	if err != nil {
		counts = nil // health stays up even if the store is sick
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "Server is running!",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"queue":     counts,
		"endpoints": map[string]string{
			"webhook": "/webhook/rework (POST only)",
			"import":  "/import/auto-fetch",
		},
	})
}

// WebhookInfo answers GET probes against the webhook URL.
func (h *Handler) WebhookInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "Webhook endpoint is active! Use POST method for actual webhooks.",
		"method":   "GET not supported for webhooks",
		"expected": "POST request with JSON payload",
	})
}

// =============================================================================
// REWORK WEBHOOK
// =============================================================================

// ReworkWebhook ingests one Rework event.
func (h *Handler) ReworkWebhook(w http.ResponseWriter, r *http.Request) {
	var p WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON payload"})
		return
	}

	// Test deliveries never touch downstream systems.
	if p.Test {
		writeJSON(w, http.StatusOK, AckResponse{
			Message:   "Test webhook received",
			Event:     p.Event,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	h.log.WithFields(logrus.Fields{
		"event":   p.Event,
		"request": p.ID,
	}).Info("webhook received")

	switch p.Event {
	case "request_created":
		if !h.validCreation(w, p) {
			return
		}
		if p.Status != "" && p.Status != bridge.StatusApproved {
			h.ack(w, p.Event, "Event accepted, request not approved, no action")
			return
		}
		h.enqueueSync(w, r, bridge.ActionCreate, p)

	case "request_updated":
		if !approvedTransition(p) {
			h.ack(w, p.Event, "Event accepted, no approval transition, no action")
			return
		}
		if !h.validCreation(w, p) {
			return
		}
		h.enqueueSync(w, r, bridge.ActionCreate, p)

	case "request_destroyed":
		h.enqueueSync(w, r, bridge.ActionDestroy, p)

	default:
		// Unknown events are acknowledged so Rework does not retry them.
		h.ack(w, p.Event, "Event accepted, no handler for this event type")
	}
}

// validCreation enforces the creation-path schema; writes the 400 itself.
func (h *Handler) validCreation(w http.ResponseWriter, p WebhookPayload) bool {
	if err := h.validate.Struct(p.creation()); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "missing required fields: " + err.Error(),
		})
		return false
	}
	return true
}

// approvedTransition detects a status change to approved. When the
// payload carries no change set, an approved status is taken at face
// value; senders do not all include changes.
func approvedTransition(p WebhookPayload) bool {
	if len(p.Changes) == 0 {
		return p.Status == bridge.StatusApproved
	}
	raw, ok := p.Changes["status"]
	if !ok {
		return false
	}
	var pair []string
	if err := json.Unmarshal(raw, &pair); err != nil || len(pair) == 0 {
		return false
	}
	return pair[len(pair)-1] == bridge.StatusApproved
}

// enqueueSync queues the work item and acknowledges.
func (h *Handler) enqueueSync(w http.ResponseWriter, r *http.Request, action string, p WebhookPayload) {
	task, err := bridge.NewSyncTask(action, p.Request())
	if err != nil {
		h.serverError(w, err)
		return
	}
	if err := h.Queue.Enqueue(r.Context(), task); err != nil {
		h.serverError(w, err)
		return
	}
	h.ack(w, p.Event, "Webhook accepted for processing")
}

func (h *Handler) ack(w http.ResponseWriter, event, message string) {
	writeJSON(w, http.StatusOK, AckResponse{
		Message:   message,
		Event:     event,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) serverError(w http.ResponseWriter, err error) {
	h.log.WithError(err).Error("request failed")
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:     "Internal server error",
		Message:   err.Error(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// =============================================================================
// IMPORT ENDPOINTS
// =============================================================================

// AutoFetchImport pulls approved requests from the Rework API and
// imports them. Runs synchronously: the summary is the response.
func (h *Handler) AutoFetchImport(w http.ResponseWriter, r *http.Request) {
	if h.Importer == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error: "leave-request API not configured",
		})
		return
	}

	q := r.URL.Query()
	f := bridge.RequestFilter{
		FromDate: q.Get("from_date"),
		ToDate:   q.Get("to_date"),
		UserID:   q.Get("user_id"),
		Page:     atoiDefault(q.Get("page"), 1),
		PerPage:  atoiDefault(q.Get("per_page"), 50),
	}

	summary, err := h.Importer.Run(r.Context(), f)
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ImportApproved imports an explicit batch of requests.
func (h *Handler) ImportApproved(w http.ResponseWriter, r *http.Request) {
	if h.Importer == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error: "leave-request API not configured",
		})
		return
	}

	var body ImportRequestsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON payload"})
		return
	}
	if err := h.validate.Struct(body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "requests list is required"})
		return
	}

	summary := h.Importer.ImportRequests(r.Context(), body.Requests)
	writeJSON(w, http.StatusOK, summary)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func atoiDefault(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
