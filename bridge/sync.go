/*
sync.go - Absence record synchronizer

PURPOSE:
  Mirrors one leave request into vPlan as per-day schedule deviations,
  and removes them again when the request is destroyed. Each deviation
  carries a RefTag; no other linkage exists.

FAILURE ISOLATION:
  Each day is created or deleted independently. A failed day never
  aborts its siblings; outcomes are collected into a summary with
  per-day detail and aggregate counts. Remote failures are logged and
  counted, never retried here (the outbox worker owns retries).

IDEMPOTENCE:
  Before creating, the resource's existing deviations are fetched once
  (best effort) and days whose exact (request, date) tag already exists
  are skipped. Bulk imports additionally skip a request outright when
  any of its tags is already present - see importer.go.

SEE ALSO:
  - api/handlers.go: Webhook entry points feeding the outbox
  - outbox/worker.go: Executes Create/Destroy asynchronously
*/
package bridge

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Synchronizer owns the create/destroy paths against the scheduling API.
type Synchronizer struct {
	plan     Planner
	holidays HolidaySource
	log      *logrus.Entry
}

// NewSynchronizer wires a synchronizer to a scheduling API client.
func NewSynchronizer(plan Planner, log *logrus.Logger) *Synchronizer {
	return &Synchronizer{
		plan: plan,
		log:  log.WithField("component", "sync"),
	}
}

// =============================================================================
// SUMMARIES
// =============================================================================

// DayOutcome records one day's create attempt.
type DayOutcome struct {
	Date    string `json:"date"`
	Minutes int    `json:"minutes"`
	Created bool   `json:"created"`
	Skipped bool   `json:"skipped,omitempty"` // already tagged
	Error   string `json:"error,omitempty"`
}

// CreateSummary reports the outcome of mirroring one request.
type CreateSummary struct {
	RequestID    string       `json:"request_id"`
	Matched      bool         `json:"matched"`
	ResourceID   string       `json:"resource_id,omitempty"`
	ResourceName string       `json:"resource_name,omitempty"`
	Created      int          `json:"created"`
	Skipped      int          `json:"skipped"`
	Failed       int          `json:"failed"`
	TotalMinutes int          `json:"total_minutes"`
	Days         []DayOutcome `json:"days,omitempty"`
}

// DestroySummary reports the outcome of removing a request's deviations.
type DestroySummary struct {
	RequestID string `json:"request_id"`
	Matched   bool   `json:"matched"`
	Attempted int    `json:"attempted"`
	Deleted   int    `json:"deleted"`
	Failed    int    `json:"failed"`
}

// =============================================================================
// CREATE PATH
// =============================================================================

// Create mirrors a request into vPlan, one deviation per day.
// An unmatched user name is a normal terminal outcome: the summary has
// Matched=false and no error is returned.
func (s *Synchronizer) Create(ctx context.Context, req LeaveRequest) (CreateSummary, error) {
	summary := CreateSummary{RequestID: string(req.ID)}

	if req.ID == "" {
		return summary, ErrMissingRequestID
	}

	resource, ok, err := s.resolve(ctx, req.User.Name)
	if err != nil {
		return summary, err
	}
	if !ok {
		s.log.WithFields(logrus.Fields{
			"request": req.ID,
			"name":    req.User.Name,
		}).Warn("no matching resource, skipping synchronization")
		return summary, nil
	}
	summary.Matched = true
	summary.ResourceID = resource.ID
	summary.ResourceName = resource.Name

	days, err := Decompose(req)
	if err != nil {
		return summary, err
	}
	if len(req.Slots) == 0 {
		// Explicit slots are taken as sent; only the coarse range
		// fallback is thinned by company holidays.
		days = s.dropHolidays(ctx, req.ID, days)
	}

	existing := s.existingTags(ctx, resource.ID)

	for _, day := range days {
		tag := NewRefTag(req.ID, day.Date)
		outcome := DayOutcome{Date: day.Date, Minutes: day.Minutes}

		if existing[tag] {
			outcome.Skipped = true
			summary.Skipped++
			summary.Days = append(summary.Days, outcome)
			continue
		}

		dev := Deviation{
			Description: fmt.Sprintf("%s - %s", req.TypeName(), req.User.Name),
			Type:        DeviationTypeLeave,
			StartDate:   day.Date,
			EndDate:     day.Date,
			Minutes:     day.Minutes,
			ExternalRef: tag.String(),
		}

		if _, err := s.plan.CreateDeviation(ctx, resource.ID, dev); err != nil {
			dayErr := &DayError{Date: day.Date, Err: err}
			outcome.Error = dayErr.Error()
			summary.Failed++
			s.log.WithError(dayErr).WithField("request", req.ID).
				Error("deviation create failed")
		} else {
			outcome.Created = true
			summary.Created++
			summary.TotalMinutes += day.Minutes
		}
		summary.Days = append(summary.Days, outcome)
	}

	s.log.WithFields(logrus.Fields{
		"request": req.ID,
		"created": summary.Created,
		"skipped": summary.Skipped,
		"failed":  summary.Failed,
		"minutes": summary.TotalMinutes,
	}).Info("create synchronization finished")
	return summary, nil
}

// =============================================================================
// DESTROY PATH
// =============================================================================

// Destroy deletes every deviation tagged with the request's id.
// Zero matches is normal: already deleted, or never created because the
// name was unmatched at create time.
func (s *Synchronizer) Destroy(ctx context.Context, req LeaveRequest) (DestroySummary, error) {
	summary := DestroySummary{RequestID: string(req.ID)}

	if req.ID == "" {
		return summary, ErrMissingRequestID
	}

	resource, ok, err := s.resolve(ctx, req.User.Name)
	if err != nil {
		return summary, err
	}
	if !ok {
		s.log.WithFields(logrus.Fields{
			"request": req.ID,
			"name":    req.User.Name,
		}).Warn("no matching resource, nothing to delete")
		return summary, nil
	}
	summary.Matched = true

	devs, err := s.plan.ListDeviations(ctx, resource.ID)
	if err != nil {
		return summary, fmt.Errorf("list deviations: %w", err)
	}

	for _, dev := range devs {
		tag, ok := ParseRefTag(dev.ExternalRef)
		if !ok || !tag.BelongsTo(req.ID) {
			continue
		}
		summary.Attempted++
		if err := s.plan.DeleteDeviation(ctx, resource.ID, dev.ID); err != nil {
			summary.Failed++
			s.log.WithError(err).WithFields(logrus.Fields{
				"request":   req.ID,
				"deviation": dev.ID,
			}).Error("deviation delete failed")
			continue
		}
		summary.Deleted++
	}

	s.log.WithFields(logrus.Fields{
		"request":   req.ID,
		"attempted": summary.Attempted,
		"deleted":   summary.Deleted,
		"failed":    summary.Failed,
	}).Info("destroy synchronization finished")
	return summary, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// AlreadyImported reports whether any deviation on the resource carries
// a tag belonging to the request. Used by the bulk importer's
// skip-if-already-imported guard.
func (s *Synchronizer) AlreadyImported(ctx context.Context, req LeaveRequest) (bool, error) {
	resource, ok, err := s.resolve(ctx, req.User.Name)
	if err != nil || !ok {
		return false, err
	}
	devs, err := s.plan.ListDeviations(ctx, resource.ID)
	if err != nil {
		return false, err
	}
	for _, dev := range devs {
		if tag, ok := ParseRefTag(dev.ExternalRef); ok && tag.BelongsTo(req.ID) {
			return true, nil
		}
	}
	return false, nil
}

// UseHolidays wires a company-day source. Days of a slotless range
// that land on a company holiday are not mirrored.
func (s *Synchronizer) UseHolidays(h HolidaySource) {
	s.holidays = h
}

// dropHolidays filters company holidays out of an enumerated range.
// Best effort: a fetch failure keeps every day.
func (s *Synchronizer) dropHolidays(ctx context.Context, requestID FlexID, days []DaySlot) []DaySlot {
	if s.holidays == nil || len(days) == 0 {
		return days
	}
	dates, err := s.holidays.HolidayDates(ctx)
	if err != nil {
		s.log.WithError(err).Warn("could not list company days, keeping full range")
		return days
	}
	closed := make(map[string]bool, len(dates))
	for _, d := range dates {
		closed[d] = true
	}

	kept := days[:0]
	for _, day := range days {
		if closed[day.Date] {
			s.log.WithFields(logrus.Fields{
				"request": requestID,
				"date":    day.Date,
			}).Info("company holiday, day not mirrored")
			continue
		}
		kept = append(kept, day)
	}
	return kept
}

// resolve fetches the full resource list and matches the name. No
// caching: a fresh fetch per call, so renames show up immediately.
func (s *Synchronizer) resolve(ctx context.Context, name string) (Resource, bool, error) {
	resources, err := s.plan.ListResources(ctx)
	if err != nil {
		return Resource{}, false, fmt.Errorf("list resources: %w", err)
	}
	r, ok := MatchResource(name, resources)
	return r, ok, nil
}

// existingTags fetches tags already present on the resource. Best
// effort: a list failure yields an empty set and creation proceeds, at
// worst duplicating work the remote side tolerates.
func (s *Synchronizer) existingTags(ctx context.Context, resourceID string) map[RefTag]bool {
	devs, err := s.plan.ListDeviations(ctx, resourceID)
	if err != nil {
		s.log.WithError(err).Warn("could not list existing deviations, skipping duplicate check")
		return nil
	}
	tags := make(map[RefTag]bool, len(devs))
	for _, dev := range devs {
		if tag, ok := ParseRefTag(dev.ExternalRef); ok {
			tags[tag] = true
		}
	}
	return tags
}
