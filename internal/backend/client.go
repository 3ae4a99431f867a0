// Package backend talks to the GEMEX REST API that owns the records being
// searched. Only the three operations the search engine needs are exposed.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gemexbase/gemex/internal/metrics"
	"github.com/gemexbase/gemex/internal/searchconf"
	"github.com/gemexbase/gemex/pkg/model"
)

// Service is the backend search collaborator.
type Service interface {
	Search(ctx context.Context, entity string, query url.Values, page Pagination) ([]model.Record, error)
	CountSearch(ctx context.Context, entity string, query url.Values) (int, error)
	GetByID(ctx context.Context, entity string, id int64) (model.Record, error)
}

// Pagination selects one page of search results. It travels next to the
// encoded filters and is never part of a filter state.
type Pagination struct {
	Page     int    `schema:"page" json:"page"`
	PageSize int    `schema:"page_size" json:"page_size"`
	Ordering string `schema:"ordering" json:"ordering,omitempty"`
}

func (p Pagination) apply(q url.Values) {
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(p.PageSize))
	}
	if p.Ordering != "" {
		q.Set("ordering", p.Ordering)
	}
}

// Client implements Service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	registry   *searchconf.Registry
}

var _ Service = (*Client)(nil)

// NewClient creates a backend client. Resource paths of registered entity
// types come from registry; other types use their name as path.
func NewClient(cfg Config, registry *searchconf.Registry) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/") + "/" + strings.Trim(cfg.APIPrefix, "/")

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        cfg.MaxIdleConns,
				MaxIdleConnsPerHost: cfg.MaxIdleConns,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		token:    cfg.Token,
		registry: registry,
	}, nil
}

// Search returns one page of records of entity matching query.
func (c *Client) Search(ctx context.Context, entity string, query url.Values, page Pagination) ([]model.Record, error) {
	q := cloneValues(query)
	page.apply(q)

	var body json.RawMessage
	if err := c.doRequest(ctx, "search", c.resourceURL(entity, "search/", q), &body); err != nil {
		return nil, err
	}
	return decodeRecords(body)
}

// CountSearch returns the number of records of entity matching query.
func (c *Client) CountSearch(ctx context.Context, entity string, query url.Values) (int, error) {
	var body json.RawMessage
	if err := c.doRequest(ctx, "count", c.resourceURL(entity, "search/count/", cloneValues(query)), &body); err != nil {
		return 0, err
	}
	return decodeCount(body)
}

// GetByID returns one record. A missing record yields an error wrapping
// model.ErrNotFound.
func (c *Client) GetByID(ctx context.Context, entity string, id int64) (model.Record, error) {
	var body json.RawMessage
	path := strconv.FormatInt(id, 10) + "/"
	if err := c.doRequest(ctx, "get", c.resourceURL(entity, path, nil), &body); err != nil {
		return nil, err
	}
	var rec model.Record
	if err := unmarshalNumbers(body, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return rec, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) resourceURL(entity, suffix string, q url.Values) string {
	resource := entity
	if c.registry != nil {
		if conf, err := c.registry.Entity(entity); err == nil && conf.URL != "" {
			resource = conf.URL
		}
	}
	u := fmt.Sprintf("%s/%s/%s", c.baseURL, strings.Trim(resource, "/"), suffix)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// doRequest performs a GET request and decodes a JSON response into result.
func (c *Client) doRequest(ctx context.Context, operation, urlStr string, result interface{}) error {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.BackendRequests.WithLabelValues(operation, status).Inc()
		metrics.BackendLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			status = "canceled"
			return model.ErrCanceled
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	status = strconv.Itoa(resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			status = "canceled"
			return model.ErrCanceled
		}
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(respBody),
		}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(respBody))
		}
	}
	return nil
}

// decodeRecords accepts a bare JSON array or a paginated {"results": [...]} envelope.
func decodeRecords(body json.RawMessage) ([]model.Record, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return []model.Record{}, nil
	}
	var records []model.Record
	if body[0] == '[' {
		if err := unmarshalNumbers(body, &records); err != nil {
			return nil, fmt.Errorf("failed to unmarshal records: %w", err)
		}
		return records, nil
	}
	var page struct {
		Results []model.Record `json:"results"`
	}
	if err := unmarshalNumbers(body, &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal records: %w", err)
	}
	if page.Results == nil {
		return []model.Record{}, nil
	}
	return page.Results, nil
}

// decodeCount accepts a bare number or a {"count": n} object.
func decodeCount(body json.RawMessage) (int, error) {
	body = bytes.TrimSpace(body)
	var n int
	if err := json.Unmarshal(body, &n); err == nil {
		return n, nil
	}
	var wrapped struct {
		Count *int `json:"count"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil || wrapped.Count == nil {
		return 0, fmt.Errorf("unexpected count response: %s", string(body))
	}
	return *wrapped.Count, nil
}

func unmarshalNumbers(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func cloneValues(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// HTTPError represents a non-2xx backend response.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// Unwrap maps 404 responses to model.ErrNotFound.
func (e *HTTPError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return model.ErrNotFound
	}
	return nil
}

// GetHTTPError returns the HTTPError from an error chain if it exists.
func GetHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	ok := errors.As(err, &httpErr)
	return httpErr, ok
}
