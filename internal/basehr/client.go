// Package basehr reads HR data from the Base platform. The portal is a
// read-only consumer: records are fetched wholesale and rendered, never
// mutated.
package basehr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/zensoft-hr/basegate/domain"
	"github.com/zensoft-hr/basegate/log"
	"github.com/zensoft-hr/basegate/tracing"
)

const timeoffListPath = "/api/timeoff/list"

// Query narrows and orders a timeoff listing. Zero values mean "all,
// newest first".
type Query struct {
	Status string // filter: exact status match, case-insensitive
	SortBy string // one of: startDate (default), endDate, requester, status
	Order  string // asc or desc (default desc)
}

// Client calls Base's read API with a bearer credential.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     log.Logger
}

// NewClient creates a Base HR read client for the configured domain.
func NewClient(baseURL string, timeout time.Duration, logger log.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// listResponse is the JSON body of the timeoff list endpoint.
type listResponse struct {
	Data []json.RawMessage `json:"data"`
}

// ListTimeoff fetches the timeoff records visible to the credential. The
// query is forwarded to Base and also applied locally, so the dashboard
// behaves the same whether or not Base honors the parameters.
func (c *Client) ListTimeoff(ctx context.Context, accessToken string, q Query) ([]domain.TimeoffRecord, error) {
	ctx, span := tracing.Tracer.Start(ctx, "base.timeoff_list")
	defer span.End()

	records, err := c.listTimeoff(ctx, accessToken, q)
	if err != nil {
		span.RecordError(err)
	}
	return records, err
}

func (c *Client) listTimeoff(ctx context.Context, accessToken string, q Query) ([]domain.TimeoffRecord, error) {
	endpoint, err := url.Parse(c.baseURL + timeoffListPath)
	if err != nil {
		return nil, fmt.Errorf("building list url: %w", err)
	}
	params := endpoint.Query()
	if q.Status != "" {
		params.Set("status", q.Status)
	}
	if q.SortBy != "" {
		params.Set("sort", q.SortBy)
		params.Set("order", q.Order)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling timeoff list: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading timeoff list response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: status %d", domain.ErrNoCredential, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("timeoff list returned status %d", resp.StatusCode)
	}

	var list listResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decoding timeoff list: %w", err)
	}

	records := make([]domain.TimeoffRecord, 0, len(list.Data))
	for _, raw := range list.Data {
		var rec domain.TimeoffRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			c.logger.Warn(ctx, "skipping undecodable timeoff record", map[string]any{"cause": err.Error()})
			continue
		}
		// Keep unmodeled fields so the dashboard can render them opaquely.
		_ = json.Unmarshal(raw, &rec.Raw)
		records = append(records, rec)
	}

	return applyQuery(records, q), nil
}

// applyQuery filters and sorts locally.
func applyQuery(records []domain.TimeoffRecord, q Query) []domain.TimeoffRecord {
	out := records
	if q.Status != "" {
		filtered := make([]domain.TimeoffRecord, 0, len(records))
		for _, rec := range records {
			if strings.EqualFold(rec.Status, q.Status) {
				filtered = append(filtered, rec)
			}
		}
		out = filtered
	}

	key := q.SortBy
	if key == "" {
		key = "startDate"
	}
	desc := q.Order != "asc" // default: newest first

	sort.SliceStable(out, func(i, j int) bool {
		var less bool
		switch key {
		case "endDate":
			less = out[i].EndDate < out[j].EndDate
		case "requester":
			less = strings.ToLower(out[i].Requester) < strings.ToLower(out[j].Requester)
		case "status":
			less = strings.ToLower(out[i].Status) < strings.ToLower(out[j].Status)
		default:
			less = out[i].StartDate < out[j].StartDate
		}
		if desc {
			return !less && !equalKey(out[i], out[j], key)
		}
		return less
	})

	return out
}

func equalKey(a, b domain.TimeoffRecord, key string) bool {
	switch key {
	case "endDate":
		return a.EndDate == b.EndDate
	case "requester":
		return strings.EqualFold(a.Requester, b.Requester)
	case "status":
		return strings.EqualFold(a.Status, b.Status)
	default:
		return a.StartDate == b.StartDate
	}
}
