/*
machines.go - CNC machine status tracker

PURPOSE:
  Tracks the live status of CNC machines: id, state, current job and
  accumulated uptime. State lives behind the Repository interface so the
  in-memory implementation (memory.go) is swappable for the sqlite one
  (store/sqlite) without touching handlers.

EVENTS:
  Machines report through a webhook (status_change, job_start,
  job_complete, alert). Apply folds one event into the repository;
  unknown event types and unknown machines are logged and dropped.
*/
package machines

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// Machine statuses. Free-form strings on the wire; these are the ones
// the trackers actually send.
const (
	StatusRunning     = "running"
	StatusIdle        = "idle"
	StatusMaintenance = "maintenance"
)

var (
	// ErrNotFound is returned when a machine id is unknown.
	ErrNotFound = errors.New("machine not found")

	// ErrExists is returned when creating a machine whose id is taken.
	ErrExists = errors.New("machine already exists")
)

// Machine is one tracked CNC machine.
type Machine struct {
	ID         string
	Name       string
	Status     string
	CurrentJob string // empty when no job is loaded
	Uptime     float64
	LastUpdate time.Time
}

// Stats aggregates the fleet.
type Stats struct {
	Total       int     `json:"totalMachines"`
	Running     int     `json:"running"`
	Idle        int     `json:"idle"`
	Maintenance int     `json:"maintenance"`
	TotalUptime float64 `json:"totalUptime"`
}

// Repository persists machines.
type Repository interface {
	List(ctx context.Context) ([]Machine, error)
	Get(ctx context.Context, id string) (*Machine, error)
	Create(ctx context.Context, m Machine) error
	Update(ctx context.Context, m Machine) error
}

// ComputeStats folds a machine list into fleet statistics.
func ComputeStats(ms []Machine) Stats {
	s := Stats{Total: len(ms)}
	for _, m := range ms {
		switch m.Status {
		case StatusRunning:
			s.Running++
		case StatusIdle:
			s.Idle++
		case StatusMaintenance:
			s.Maintenance++
		}
		s.TotalUptime += m.Uptime
	}
	return s
}

// =============================================================================
// EVENTS
// =============================================================================

// Event types delivered to the machine webhook.
const (
	EventStatusChange = "status_change"
	EventJobStart     = "job_start"
	EventJobComplete  = "job_complete"
	EventAlert        = "alert"
)

// EventData is the type-specific payload of a machine event.
type EventData struct {
	Status  string `json:"status,omitempty"`
	JobID   string `json:"jobId,omitempty"`
	Message string `json:"message,omitempty"`
}

// Event is one machine webhook event.
type Event struct {
	Type      string    `json:"type"`
	MachineID string    `json:"machineId"`
	Data      EventData `json:"data"`
}

// Apply folds an event into the repository. Unknown machines and
// unknown event types are logged, never errors: the webhook was already
// acknowledged.
func Apply(ctx context.Context, repo Repository, ev Event, log *logrus.Logger) error {
	l := log.WithFields(logrus.Fields{
		"component": "machines",
		"machine":   ev.MachineID,
		"type":      ev.Type,
	})

	if ev.Type == EventAlert {
		l.WithField("message", ev.Data.Message).Warn("machine alert")
		return nil
	}

	m, err := repo.Get(ctx, ev.MachineID)
	if err != nil {
		return err
	}
	if m == nil {
		l.Warn("event for unknown machine, dropped")
		return nil
	}

	switch ev.Type {
	case EventStatusChange:
		if ev.Data.Status == "" {
			l.Warn("status_change without a status, dropped")
			return nil
		}
		m.Status = ev.Data.Status
	case EventJobStart:
		m.CurrentJob = ev.Data.JobID
		m.Status = StatusRunning
	case EventJobComplete:
		m.CurrentJob = ""
		m.Status = StatusIdle
	default:
		l.Warn("unknown event type, dropped")
		return nil
	}

	m.LastUpdate = time.Now().UTC()
	if err := repo.Update(ctx, *m); err != nil {
		return err
	}
	l.Info("machine updated")
	return nil
}
