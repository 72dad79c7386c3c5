package rework

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-bridge/bridge"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestListApproved(t *testing.T) {
	var gotQuery map[string]string
	var gotAuth, gotCompany string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/requests", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotCompany = r.Header.Get("X-Company-Id")
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"id": 42, "status": "approved", "user": map[string]string{"name": "Jan Jansen"}},
			},
			"meta": map[string]int{"page": 1, "per_page": 50, "total": 120},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", "comp-1", testLogger())
	page, err := c.ListApproved(context.Background(), bridge.RequestFilter{
		FromDate: "2025-01-01",
		ToDate:   "2025-12-31",
		UserID:   "u7",
		Page:     1,
		PerPage:  50,
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "comp-1", gotCompany)
	assert.Equal(t, "approved", gotQuery["status"])
	assert.Equal(t, "2025-01-01", gotQuery["from"])
	assert.Equal(t, "2025-12-31", gotQuery["to"])
	assert.Equal(t, "u7", gotQuery["user_id"])
	assert.Equal(t, "1", gotQuery["page"])

	require.Len(t, page.Requests, 1)
	assert.Equal(t, bridge.FlexID("42"), page.Requests[0].ID)
	assert.Equal(t, 120, page.Total)
	assert.True(t, page.HasMore) // 1*50 < 120
}

func TestListApprovedLastPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{},
			"meta": map[string]int{"page": 3, "per_page": 50, "total": 120},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", "comp-1", testLogger())
	page, err := c.ListApproved(context.Background(), bridge.RequestFilter{Page: 3, PerPage: 50})
	require.NoError(t, err)
	assert.False(t, page.HasMore) // 3*50 >= 120
}

func TestCompanyDays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/company_days", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{
				{"date": "2025-12-25", "name": "Christmas"},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", "comp-1", testLogger())
	days, err := c.CompanyDays(context.Background())
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, CompanyDay{Date: "2025-12-25", Name: "Christmas"}, days[0])
}

func TestHolidayDatesTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{
				{"date": "2025-12-25T00:00:00.000Z", "name": "Christmas"},
				{"date": "2025-12-26", "name": "Boxing Day"},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", "comp-1", testLogger())
	dates, err := c.HolidayDates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-12-25", "2025-12-26"}, dates)
}

func TestNonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("token expired"))
	}))
	defer srv.Close()

	c := New(srv.URL, "old", "comp-1", testLogger())
	_, err := c.ListApproved(context.Background(), bridge.RequestFilter{Page: 1, PerPage: 50})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "token expired")
}
