/*
Package vplan is the client for the vPlan scheduling API.

PURPOSE:
  Implements the bridge.Planner interface against vPlan's REST API:
  list resources, and list/create/delete schedule deviations scoped to
  a resource.

AUTH:
  One scheme only: the X-Api-Key / X-Env-Id header pair. Earlier
  deployments used a bearer token against the card endpoints; that
  variant is gone along with the card model.

ERRORS:
  Any non-2xx response is an error carrying the status and a body
  excerpt. Failures are never retried here; the outbox worker owns
  retries, and the synchronizer isolates failures per day.
*/
package vplan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/leave-bridge/bridge"
)

// DefaultBaseURL is vPlan's production API.
const DefaultBaseURL = "https://api.vplan.com/v1"

// Client talks to the vPlan API. Implements bridge.Planner.
type Client struct {
	baseURL string
	apiKey  string
	envID   string
	http    *http.Client
	log     *logrus.Entry
}

// New creates a client. An empty baseURL selects DefaultBaseURL.
func New(baseURL, apiKey, envID string, log *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		envID:   envID,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log.WithField("component", "vplan"),
	}
}

// listEnvelope is vPlan's collection response wrapper.
type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

// ListResources fetches the full resource list.
func (c *Client) ListResources(ctx context.Context) ([]bridge.Resource, error) {
	var env listEnvelope[bridge.Resource]
	if err := c.do(ctx, http.MethodGet, "/resource", nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// ListDeviations fetches all schedule deviations for a resource.
func (c *Client) ListDeviations(ctx context.Context, resourceID string) ([]bridge.Deviation, error) {
	var env listEnvelope[bridge.Deviation]
	path := "/resource/" + resourceID + "/schedule_deviation"
	if err := c.do(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// CreateDeviation creates one per-day deviation on a resource.
func (c *Client) CreateDeviation(ctx context.Context, resourceID string, d bridge.Deviation) (bridge.Deviation, error) {
	var created struct {
		Data bridge.Deviation `json:"data"`
	}
	path := "/resource/" + resourceID + "/schedule_deviation"
	if err := c.do(ctx, http.MethodPost, path, d, &created); err != nil {
		return bridge.Deviation{}, err
	}
	return created.Data, nil
}

// DeleteDeviation removes one deviation.
func (c *Client) DeleteDeviation(ctx context.Context, resourceID, deviationID string) error {
	path := "/resource/" + resourceID + "/schedule_deviation/" + deviationID
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// do issues one request with auth headers and decodes the response.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("X-Env-Id", c.envID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("vplan %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("vplan %s %s: status %d: %s", method, path, resp.StatusCode, excerpt)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("vplan %s %s: decode: %w", method, path, err)
	}
	return nil
}
