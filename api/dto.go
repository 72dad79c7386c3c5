/*
dto.go - Request/response shapes for the HTTP layer

PURPOSE:
  Declared, validated input schemas for the webhook and machine APIs.
  Payload access is never duck-typed: a payload either conforms to one
  of these shapes or is rejected before any processing begins.

VALIDATION:
  go-playground/validator struct tags. The webhook's date fields are
  conditional: required only when no slots are present, because the
  slot list supersedes the coarse range.

SEE ALSO:
  - handlers.go, machines.go: Consumers
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/warp/leave-bridge/bridge"
	"github.com/warp/leave-bridge/machines"
)

// =============================================================================
// REWORK WEBHOOK
// =============================================================================

// WebhookPayload is the inbound Rework webhook body. The event kind is
// a sibling of the request fields, not nested.
type WebhookPayload struct {
	Event     string                     `json:"event"`
	Test      bool                       `json:"test,omitempty"`
	ID        bridge.FlexID              `json:"id"`
	User      bridge.RequestUser         `json:"user"`
	FirstDate string                     `json:"first_date"`
	LastDate  string                     `json:"last_date"`
	Type      bridge.RequestType         `json:"request_type"`
	Status    string                     `json:"status"`
	Slots     []bridge.Slot              `json:"slots,omitempty"`
	Changes   map[string]json.RawMessage `json:"changes,omitempty"`
}

// Request extracts the leave request carried by the payload.
func (p WebhookPayload) Request() bridge.LeaveRequest {
	return bridge.LeaveRequest{
		ID:        p.ID,
		User:      p.User,
		FirstDate: p.FirstDate,
		LastDate:  p.LastDate,
		Type:      p.Type,
		Status:    p.Status,
		Slots:     p.Slots,
	}
}

// creationFields is the validation view applied on creation-path
// events. Dates are required only when the payload carries no slots.
type creationFields struct {
	UserName  string        `validate:"required"`
	FirstDate string        `validate:"required_without=Slots"`
	LastDate  string        `validate:"required_without=Slots"`
	Slots     []bridge.Slot `validate:"-"`
}

func (p WebhookPayload) creation() creationFields {
	return creationFields{
		UserName:  p.User.Name,
		FirstDate: p.FirstDate,
		LastDate:  p.LastDate,
		Slots:     p.Slots,
	}
}

// AckResponse acknowledges a webhook. It never reflects downstream
// synchronization success; the sync runs after this response is gone.
type AckResponse struct {
	Message   string `json:"message"`
	Event     string `json:"event,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ImportRequestsBody is the explicit-batch import body.
type ImportRequestsBody struct {
	Requests []bridge.LeaveRequest `json:"requests" validate:"required,min=1"`
}

// =============================================================================
// MACHINES
// =============================================================================

// MachineDTO is a machine in API responses. CurrentJob serializes as
// null when no job is loaded, matching the tracker's consumers.
type MachineDTO struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	CurrentJob *string `json:"currentJob"`
	Uptime     float64 `json:"uptime"`
	LastUpdate string  `json:"lastUpdate"`
}

func toMachineDTO(m machines.Machine) MachineDTO {
	dto := MachineDTO{
		ID:         m.ID,
		Name:       m.Name,
		Status:     m.Status,
		Uptime:     m.Uptime,
		LastUpdate: m.LastUpdate.Format(time.RFC3339),
	}
	if m.CurrentJob != "" {
		job := m.CurrentJob
		dto.CurrentJob = &job
	}
	return dto
}

func toMachineDTOs(ms []machines.Machine) []MachineDTO {
	dtos := make([]MachineDTO, len(ms))
	for i, m := range ms {
		dtos[i] = toMachineDTO(m)
	}
	return dtos
}

// CreateMachineRequest registers a machine.
type CreateMachineRequest struct {
	ID     string `json:"id" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Status string `json:"status" validate:"omitempty,oneof=running idle maintenance"`
}

// UpdateMachineRequest patches a machine. Nil fields are untouched.
type UpdateMachineRequest struct {
	Status     *string  `json:"status,omitempty"`
	CurrentJob *string  `json:"currentJob,omitempty"`
	Uptime     *float64 `json:"uptime,omitempty"`
}

// MachineEventRequest is the machine webhook body.
type MachineEventRequest struct {
	Type      string             `json:"type" validate:"required"`
	MachineID string             `json:"machineId" validate:"required"`
	Data      machines.EventData `json:"data"`
}
