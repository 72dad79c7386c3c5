package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves canned pages of the Rework list API.
type fakeSource struct {
	pages   map[int]RequestPage
	listErr error
	calls   int
}

func (f *fakeSource) ListApproved(_ context.Context, filter RequestFilter) (RequestPage, error) {
	f.calls++
	if f.listErr != nil {
		return RequestPage{}, f.listErr
	}
	return f.pages[filter.Page], nil
}

func approvedRequest(id, name, date string) LeaveRequest {
	return LeaveRequest{
		ID:     FlexID(id),
		Status: StatusApproved,
		User:   RequestUser{Name: name},
		Slots: []Slot{
			{Date: date, Hours: decimal.NewFromInt(8)},
		},
	}
}

func TestImportRequestsSkipsNonApproved(t *testing.T) {
	plan := newFakePlanner(Resource{ID: "r1", Name: "Jan Jansen"})
	sync := NewSynchronizer(plan, testLogger())
	im := NewImporter(&fakeSource{}, sync, testLogger())

	pending := approvedRequest("7", "Jan Jansen", "2025-06-02")
	pending.Status = "pending"

	summary := im.ImportRequests(context.Background(), []LeaveRequest{
		approvedRequest("42", "Jan Jansen", "2025-06-02"),
		pending,
	})

	assert.Equal(t, 2, summary.Fetched)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)

	require.Len(t, summary.Results, 2)
	assert.Equal(t, "skipped", summary.Results[1].Outcome)
	assert.Contains(t, summary.Results[1].Reason, "pending")
}

func TestImportSecondRunIsSkippedNotFailed(t *testing.T) {
	// GIVEN a request imported once
	plan := newFakePlanner(Resource{ID: "r1", Name: "Jan Jansen"})
	sync := NewSynchronizer(plan, testLogger())
	im := NewImporter(&fakeSource{}, sync, testLogger())

	batch := []LeaveRequest{approvedRequest("42", "Jan Jansen", "2025-06-02")}
	first := im.ImportRequests(context.Background(), batch)
	require.Equal(t, 1, first.Imported)

	// WHEN the same batch is imported again
	second := im.ImportRequests(context.Background(), batch)

	// THEN it is reported skipped, never failed
	assert.Equal(t, 0, second.Imported)
	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, 0, second.Failed)
	assert.Equal(t, "already imported", second.Results[0].Reason)

	// And no duplicate deviations exist
	assert.Len(t, plan.devs["r1"], 1)
}

func TestImportUnmatchedNameIsSkipped(t *testing.T) {
	plan := newFakePlanner(Resource{ID: "r1", Name: "Pieter de Boer"})
	sync := NewSynchronizer(plan, testLogger())
	im := NewImporter(&fakeSource{}, sync, testLogger())

	summary := im.ImportRequests(context.Background(), []LeaveRequest{
		approvedRequest("42", "Jan Jansen", "2025-06-02"),
	})

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
	assert.Contains(t, summary.Results[0].Reason, "Jan Jansen")
}

func TestRunPagesUntilExhausted(t *testing.T) {
	plan := newFakePlanner(Resource{ID: "r1", Name: "Jan Jansen"})
	sync := NewSynchronizer(plan, testLogger())

	src := &fakeSource{pages: map[int]RequestPage{
		1: {
			Requests: []LeaveRequest{approvedRequest("1", "Jan Jansen", "2025-06-02")},
			HasMore:  true,
		},
		2: {
			Requests: []LeaveRequest{approvedRequest("2", "Jan Jansen", "2025-06-03")},
			HasMore:  false,
		},
	}}
	im := NewImporter(src, sync, testLogger())

	summary, err := im.Run(context.Background(), RequestFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, 2, summary.Fetched)
	assert.Equal(t, 2, summary.Imported)
}

func TestRunSourceError(t *testing.T) {
	plan := newFakePlanner()
	sync := NewSynchronizer(plan, testLogger())
	src := &fakeSource{listErr: errors.New("rework unavailable")}
	im := NewImporter(src, sync, testLogger())

	_, err := im.Run(context.Background(), RequestFilter{})
	assert.Error(t, err)
}
