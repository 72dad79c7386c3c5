/*
types.go - Core domain types for the Rework to vPlan bridge

PURPOSE:
  Defines the shapes exchanged between the leave-request system (Rework),
  this bridge, and the scheduling system (vPlan). The bridge never owns
  these records: Rework owns requests, vPlan owns resources and schedule
  deviations. The only linkage between the two worlds is the external
  reference tag carried on each deviation (see reftag.go).

TYPES:
  LeaveRequest:  An approved (or pending) leave request from Rework.
  Slot:          A single dated time slot within a request.
  Resource:      An employee record in vPlan. Read-only here.
  Deviation:     A one-day absence record in vPlan, tagged with a RefTag.

INTERFACES:
  Directory:     Lists vPlan resources (implemented by vplan.Client).
  Deviations:    Lists/creates/deletes schedule deviations.
  RequestSource: Pulls approved requests from Rework (rework.Client).

SEE ALSO:
  - sync.go: Synchronizer using these types
  - vplan/client.go, rework/client.go: Concrete API clients
*/
package bridge

import (
	"bytes"
	"context"

	"github.com/shopspring/decimal"
)

// StatusApproved is the only request status that triggers synchronization.
const StatusApproved = "approved"

// DeviationTypeLeave is the category tag written on every deviation we create.
const DeviationTypeLeave = "leave"

// DefaultTypeName is used when a request carries no request_type.
const DefaultTypeName = "Leave request"

// =============================================================================
// REWORK SIDE
// =============================================================================

// FlexID is an identifier that Rework serializes as either a JSON number
// or a JSON string. Stored as its textual form; comparison is exact.
type FlexID string

// UnmarshalJSON accepts "42", 42 and null.
func (id *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*id = ""
		return nil
	}
	b = bytes.Trim(b, `"`)
	*id = FlexID(b)
	return nil
}

func (id FlexID) String() string { return string(id) }

// RequestUser is the user block of a leave request. Name is a display
// name used for matching - NOT a stable key. Reference is Rework's
// internal reference and is not used by the synchronizer.
type RequestUser struct {
	Name      string `json:"name"`
	Reference string `json:"reference,omitempty"`
}

// RequestType is the free-text category of a leave request.
type RequestType struct {
	Name string `json:"name"`
}

// Slot is one dated time slot of a leave request. Date is an ISO
// datetime string; only its calendar-day prefix matters to the bridge.
type Slot struct {
	Date   string          `json:"date"`
	Hours  decimal.Decimal `json:"hours"`
	AllDay bool            `json:"all_day"`
}

// LeaveRequest is a leave request as delivered by Rework, either via
// webhook or via the list API. FirstDate/LastDate form an inclusive
// range; Slots, when present, are the authoritative per-day breakdown.
type LeaveRequest struct {
	ID        FlexID      `json:"id"`
	User      RequestUser `json:"user"`
	FirstDate string      `json:"first_date"`
	LastDate  string      `json:"last_date"`
	Type      RequestType `json:"request_type"`
	Status    string      `json:"status"`
	Slots     []Slot      `json:"slots,omitempty"`
}

// TypeName returns the request category, defaulting when absent.
func (r LeaveRequest) TypeName() string {
	if r.Type.Name == "" {
		return DefaultTypeName
	}
	return r.Type.Name
}

// =============================================================================
// VPLAN SIDE
// =============================================================================

// Resource is an employee record in vPlan. The bridge only ever reads
// resources, never creates or mutates them.
type Resource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Deviation is a one-day absence record in vPlan. StartDate and EndDate
// are always equal: one deviation per calendar day. Minutes is the
// absence duration. ExternalRef carries the RefTag linking the
// deviation back to its owning Rework request.
type Deviation struct {
	ID          string `json:"id,omitempty"`
	Description string `json:"description"`
	Type        string `json:"type"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Minutes     int    `json:"time"`
	ExternalRef string `json:"external_ref"`
}

// =============================================================================
// OUTBOUND INTERFACES - implemented by the vplan and rework clients
// =============================================================================

// Directory lists the resources known to the scheduling system.
type Directory interface {
	ListResources(ctx context.Context) ([]Resource, error)
}

// Deviations manages per-day absence records scoped to a resource.
type Deviations interface {
	ListDeviations(ctx context.Context, resourceID string) ([]Deviation, error)
	CreateDeviation(ctx context.Context, resourceID string, d Deviation) (Deviation, error)
	DeleteDeviation(ctx context.Context, resourceID, deviationID string) error
}

// Planner is the full scheduling-API surface the synchronizer needs.
type Planner interface {
	Directory
	Deviations
}

// RequestFilter narrows a pull of leave requests from Rework.
type RequestFilter struct {
	FromDate string
	ToDate   string
	UserID   string
	Page     int
	PerPage  int
}

// RequestPage is one page of leave requests from Rework.
type RequestPage struct {
	Requests []LeaveRequest
	Total    int
	HasMore  bool
}

// RequestSource pulls approved leave requests from Rework.
type RequestSource interface {
	ListApproved(ctx context.Context, f RequestFilter) (RequestPage, error)
}

// HolidaySource lists company-wide holidays as YYYY-MM-DD dates. Used
// to keep the slotless range fallback from writing deviations on days
// the schedule is closed anyway.
type HolidaySource interface {
	HolidayDates(ctx context.Context) ([]string, error)
}
