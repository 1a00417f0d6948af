// Package notion is a thin client for the pieces of the Notion REST API
// the engine uses: creating database rows, duplicate lookups, status
// updates and reading page blocks for the link monitor.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.notion.com"

type Client struct {
	hc         *http.Client
	baseURL    string
	token      string
	version    string
	databaseID string
	limiter    *rate.Limiter
}

type Option func(*Client)

// WithBaseURL points the client at a different endpoint. Tests use it with
// httptest servers.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

func NewClient(token, version, databaseID string, reqPerSec float64, opts ...Option) *Client {
	if reqPerSec <= 0 {
		reqPerSec = 3
	}
	c := &Client{
		hc:         &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		token:      token,
		version:    version,
		databaseID: databaseID,
		limiter:    rate.NewLimiter(rate.Limit(reqPerSec), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// APIError is a non-2xx answer from Notion with the decoded error body.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion: status %d %s: %s", e.Status, e.Code, e.Message)
}

// CreatePage inserts one row into the configured database and returns the
// new page ID.
func (c *Client) CreatePage(ctx context.Context, page Page) (string, error) {
	body := map[string]any{
		"parent":     map[string]any{"database_id": c.databaseID},
		"properties": page.Properties,
	}
	if len(page.Children) > 0 {
		body["children"] = page.Children
	}

	var out createResponse
	if err := c.do(ctx, http.MethodPost, "/v1/pages", body, &out); err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	return out.ID, nil
}

// IsDuplicate checks whether a row for this listing URL already exists.
// Both link columns are checked since older rows only filled one of them.
func (c *Client) IsDuplicate(ctx context.Context, url string) (bool, error) {
	body := map[string]any{
		"filter": map[string]any{
			"or": []any{
				map[string]any{"property": "網頁連結", "url": map[string]any{"equals": url}},
				map[string]any{"property": "網址", "url": map[string]any{"equals": url}},
			},
		},
		"page_size": 1,
	}

	var out queryResponse
	path := "/v1/databases/" + c.databaseID + "/query"
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return false, fmt.Errorf("duplicate query: %w", err)
	}
	return len(out.Results) > 0, nil
}

// UpdateStatus sets the 看房狀態 select and bumps the update date.
func (c *Client) UpdateStatus(ctx context.Context, pageID, status string) error {
	body := map[string]any{
		"properties": Properties{
			"看房狀態": Select(status),
			"更新日期": Date(time.Now().UTC().Format(time.RFC3339)),
		},
	}
	if err := c.do(ctx, http.MethodPatch, "/v1/pages/"+pageID, body, nil); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

// ListBlockChildren returns every child block of a page or block, following
// pagination to the end.
func (c *Client) ListBlockChildren(ctx context.Context, blockID string) ([]Block, error) {
	var blocks []Block
	cursor := ""
	for {
		path := "/v1/blocks/" + blockID + "/children?page_size=100"
		if cursor != "" {
			path += "&start_cursor=" + cursor
		}

		var out blockListResponse
		if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
			return nil, fmt.Errorf("list blocks: %w", err)
		}
		blocks = append(blocks, out.Results...)
		if !out.HasMore || out.NextCursor == "" {
			return blocks, nil
		}
		cursor = out.NextCursor
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		var eb apiErrorBody
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
		_ = json.Unmarshal(raw, &eb)
		return &APIError{Status: res.StatusCode, Code: eb.Code, Message: eb.Message}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
