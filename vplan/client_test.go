package vplan

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

func TestListResources(t *testing.T) {
	var gotPath, gotKey, gotEnv string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		gotEnv = r.Header.Get("X-Env-Id")
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{
				{"id": "r1", "name": "Jan Jansen"},
				{"id": "r2", "name": "Piet de Boer"},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "key-123", "env-456", testLogger())
	resources, err := c.ListResources(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/resource", gotPath)
	assert.Equal(t, "key-123", gotKey)
	assert.Equal(t, "env-456", gotEnv)
	require.Len(t, resources, 2)
	assert.Equal(t, bridge.Resource{ID: "r1", Name: "Jan Jansen"}, resources[0])
}

func TestCreateDeviation(t *testing.T) {
	var gotBody bridge.Deviation
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/resource/r1/schedule_deviation", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		gotBody.ID = "dev-1"
		json.NewEncoder(w).Encode(map[string]any{"data": gotBody})
	}))
	defer srv.Close()

	c := New(srv.URL, "k", "e", testLogger())
	created, err := c.CreateDeviation(context.Background(), "r1", bridge.Deviation{
		Description: "Vacation - Jan Jansen",
		Type:        "leave",
		StartDate:   "2025-06-02",
		EndDate:     "2025-06-02",
		Minutes:     480,
		ExternalRef: "rework_42_2025-06-02",
	})
	require.NoError(t, err)

	assert.Equal(t, "dev-1", created.ID)
	assert.Equal(t, 480, gotBody.Minutes)
	assert.Equal(t, "rework_42_2025-06-02", gotBody.ExternalRef)
}

func TestDeleteDeviation(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, "k", "e", testLogger())
	err := c.DeleteDeviation(context.Background(), "r1", "dev-1")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/resource/r1/schedule_deviation/dev-1", gotPath)
}

func TestErrorCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "bad", "e", testLogger())
	_, err := c.ListResources(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestMinutesSerializeAsTime(t *testing.T) {
	// The scheduling API calls the minutes field "time".
	buf, err := json.Marshal(bridge.Deviation{Minutes: 480})
	require.NoError(t, err)
	assert.Contains(t, string(buf), `"time":480`)
}
