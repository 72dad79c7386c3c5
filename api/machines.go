/*
machines.go - HTTP handlers for the CNC machine tracker

PURPOSE:
  CRUD over the machine repository plus the machine-event webhook. The
  webhook follows the same ack-then-process pattern as the Rework one:
  the event is queued and the tracker state is updated by the outbox
  worker.

ENDPOINTS:
  GET  /api/machines            List machines
  GET  /api/machines/{id}       Machine detail
  POST /api/machines            Register a machine
  PUT  /api/machines/{id}       Patch a machine
  GET  /api/stats               Fleet statistics
  POST /webhook/machine-event   Machine event ingestion
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/leave-bridge/machines"
)

// ListMachines returns all machines.
func (h *Handler) ListMachines(w http.ResponseWriter, r *http.Request) {
	ms, err := h.Machines.List(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"count":    len(ms),
		"machines": toMachineDTOs(ms),
	})
}

// GetMachine returns one machine.
func (h *Handler) GetMachine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	m, err := h.Machines.Get(r.Context(), id)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if m == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success":   false,
			"error":     "machine not found",
			"machineId": id,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"machine": toMachineDTO(*m),
	})
}

// CreateMachine registers a new machine.
func (h *Handler) CreateMachine(w http.ResponseWriter, r *http.Request) {
	var req CreateMachineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON payload"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "id and name are required"})
		return
	}

	status := req.Status
	if status == "" {
		status = machines.StatusIdle
	}
	m := machines.Machine{
		ID:         req.ID,
		Name:       req.Name,
		Status:     status,
		LastUpdate: time.Now().UTC(),
	}

	if err := h.Machines.Create(r.Context(), m); err != nil {
		if err == machines.ErrExists {
			writeJSON(w, http.StatusConflict, map[string]any{
				"success": false,
				"error":   "machine with this id already exists",
			})
			return
		}
		h.serverError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "machine registered",
		"machine": toMachineDTO(m),
	})
}

// UpdateMachine patches machine fields.
func (h *Handler) UpdateMachine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateMachineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON payload"})
		return
	}

	m, err := h.Machines.Get(r.Context(), id)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if m == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success":   false,
			"error":     "machine not found",
			"machineId": id,
		})
		return
	}

	if req.Status != nil {
		m.Status = *req.Status
	}
	if req.CurrentJob != nil {
		m.CurrentJob = *req.CurrentJob
	}
	if req.Uptime != nil {
		m.Uptime = *req.Uptime
	}
	m.LastUpdate = time.Now().UTC()

	if err := h.Machines.Update(r.Context(), *m); err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "machine updated",
		"machine": toMachineDTO(*m),
	})
}

// MachineStats aggregates the fleet.
func (h *Handler) MachineStats(w http.ResponseWriter, r *http.Request) {
	ms, err := h.Machines.List(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"stats":     machines.ComputeStats(ms),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// MachineEvent ingests one machine webhook event: validate, enqueue,
// acknowledge.
func (h *Handler) MachineEvent(w http.ResponseWriter, r *http.Request) {
	var req MachineEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON payload"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "type and machineId are required"})
		return
	}

	task, err := machines.NewEventTask(machines.Event{
		Type:      req.Type,
		MachineID: req.MachineID,
		Data:      req.Data,
	})
	if err != nil {
		h.serverError(w, err)
		return
	}
	if err := h.Queue.Enqueue(r.Context(), task); err != nil {
		h.serverError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "event received",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
