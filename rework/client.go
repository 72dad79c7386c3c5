/*
Package rework is the client for the Rework leave-request API.

PURPOSE:
  Pulls already-approved leave requests (paginated, date/user filtered)
  for the bulk importer, and lists company days (holidays) so the
  synchronizer's range fallback skips them. The webhook path never uses
  this client; it gets its data pushed.

AUTH:
  Bearer token plus a company id header.
*/
package rework

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/leave-bridge/bridge"
)

// Client talks to the Rework API. Implements bridge.RequestSource.
type Client struct {
	baseURL   string
	token     string
	companyID string
	http      *http.Client
	log       *logrus.Entry
}

// New creates a client.
func New(baseURL, token, companyID string, log *logrus.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		token:     token,
		companyID: companyID,
		http:      &http.Client{Timeout: 15 * time.Second},
		log:       log.WithField("component", "rework"),
	}
}

// listMeta is Rework's pagination block.
type listMeta struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
}

// ListApproved fetches one page of approved requests.
func (c *Client) ListApproved(ctx context.Context, f bridge.RequestFilter) (bridge.RequestPage, error) {
	q := url.Values{}
	q.Set("status", bridge.StatusApproved)
	q.Set("page", strconv.Itoa(f.Page))
	q.Set("per_page", strconv.Itoa(f.PerPage))
	if f.FromDate != "" {
		q.Set("from", f.FromDate)
	}
	if f.ToDate != "" {
		q.Set("to", f.ToDate)
	}
	if f.UserID != "" {
		q.Set("user_id", f.UserID)
	}

	var env struct {
		Data []bridge.LeaveRequest `json:"data"`
		Meta listMeta              `json:"meta"`
	}
	if err := c.get(ctx, "/requests?"+q.Encode(), &env); err != nil {
		return bridge.RequestPage{}, err
	}

	return bridge.RequestPage{
		Requests: env.Data,
		Total:    env.Meta.Total,
		HasMore:  env.Meta.Page*env.Meta.PerPage < env.Meta.Total,
	}, nil
}

// CompanyDay is a company-wide holiday.
type CompanyDay struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// CompanyDays lists company holidays.
func (c *Client) CompanyDays(ctx context.Context) ([]CompanyDay, error) {
	var env struct {
		Data []CompanyDay `json:"data"`
	}
	if err := c.get(ctx, "/company_days", &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// HolidayDates returns company days as bare calendar dates. Implements
// bridge.HolidaySource for the synchronizer's range fallback.
func (c *Client) HolidayDates(ctx context.Context) ([]string, error) {
	days, err := c.CompanyDays(ctx)
	if err != nil {
		return nil, err
	}
	dates := make([]string, len(days))
	for i, d := range days {
		dates[i] = bridge.TruncateDate(d.Date)
	}
	return dates, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Company-Id", c.companyID)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("rework GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("rework GET %s: status %d: %s", path, resp.StatusCode, excerpt)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("rework GET %s: decode: %w", path, err)
	}
	return nil
}
