/*
importer.go - Bulk/backfill importer

PURPOSE:
  Replays already-approved requests from the Rework list API through the
  same synchronizer the webhook path uses. Used for the initial backfill
  and for recovering from missed webhooks.

SKIP RULES:
  - A request whose status is not approved is skipped with a reason.
  - A request with any deviation already tagged for it is skipped as a
    duplicate (the second run of an import reports it skipped, never
    failed).
*/
package bridge

import (
	"context"

	"github.com/sirupsen/logrus"
)

// ImportResult is the per-request line of an import summary.
type ImportResult struct {
	RequestID string `json:"request_id"`
	Outcome   string `json:"outcome"` // imported, skipped, failed
	Reason    string `json:"reason,omitempty"`
	Created   int    `json:"created,omitempty"`
}

// ImportSummary aggregates one import run.
type ImportSummary struct {
	Fetched  int            `json:"fetched"`
	Imported int            `json:"imported"`
	Skipped  int            `json:"skipped"`
	Failed   int            `json:"failed"`
	Results  []ImportResult `json:"results,omitempty"`
}

// Importer pulls approved requests and feeds them to the synchronizer.
type Importer struct {
	src  RequestSource
	sync *Synchronizer
	log  *logrus.Entry
}

// NewImporter wires an importer.
func NewImporter(src RequestSource, sync *Synchronizer, log *logrus.Logger) *Importer {
	return &Importer{
		src:  src,
		sync: sync,
		log:  log.WithField("component", "importer"),
	}
}

// Run pages through the Rework list API from the filter's page onward
// and imports everything approved. Page 0 means start at page 1.
func (im *Importer) Run(ctx context.Context, f RequestFilter) (ImportSummary, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PerPage <= 0 {
		f.PerPage = 50
	}

	var summary ImportSummary
	for {
		page, err := im.src.ListApproved(ctx, f)
		if err != nil {
			return summary, err
		}
		im.importBatch(ctx, page.Requests, &summary)
		if !page.HasMore || len(page.Requests) == 0 {
			break
		}
		f.Page++
	}

	im.log.WithFields(logrus.Fields{
		"fetched":  summary.Fetched,
		"imported": summary.Imported,
		"skipped":  summary.Skipped,
		"failed":   summary.Failed,
	}).Info("import run finished")
	return summary, nil
}

// ImportRequests imports an explicit batch, as posted to the import
// endpoint. Same skip rules as Run.
func (im *Importer) ImportRequests(ctx context.Context, reqs []LeaveRequest) ImportSummary {
	var summary ImportSummary
	im.importBatch(ctx, reqs, &summary)
	return summary
}

func (im *Importer) importBatch(ctx context.Context, reqs []LeaveRequest, summary *ImportSummary) {
	for _, req := range reqs {
		summary.Fetched++
		summary.Results = append(summary.Results, im.importOne(ctx, req, summary))
	}
}

func (im *Importer) importOne(ctx context.Context, req LeaveRequest, summary *ImportSummary) ImportResult {
	result := ImportResult{RequestID: string(req.ID)}

	if req.Status != StatusApproved {
		summary.Skipped++
		result.Outcome = "skipped"
		result.Reason = "status is not approved: " + req.Status
		return result
	}

	done, err := im.sync.AlreadyImported(ctx, req)
	if err != nil {
		summary.Failed++
		result.Outcome = "failed"
		result.Reason = err.Error()
		return result
	}
	if done {
		summary.Skipped++
		result.Outcome = "skipped"
		result.Reason = "already imported"
		return result
	}

	created, err := im.sync.Create(ctx, req)
	if err != nil {
		summary.Failed++
		result.Outcome = "failed"
		result.Reason = err.Error()
		return result
	}
	if !created.Matched {
		summary.Skipped++
		result.Outcome = "skipped"
		result.Reason = "no matching resource for " + req.User.Name
		return result
	}

	summary.Imported++
	result.Outcome = "imported"
	result.Created = created.Created
	return result
}
