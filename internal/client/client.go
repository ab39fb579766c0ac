// Package client is a typed HTTP client for the transmem server.
package client

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

	"github.com/iammorganparry/transmem/internal/models"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a client. apiKey may be empty when the server has auth disabled.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var out models.HealthResponse
	// A degraded server answers 503 with a full body; surface it as-is.
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusServiceUnavailable && out.Status != "" {
		return &out, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Commit(ctx context.Context, req *models.CommitRequest) (*models.CommitResponse, error) {
	var out models.CommitResponse
	if err := c.do(ctx, http.MethodPost, "/entries", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	var out models.SearchResponse
	if err := c.do(ctx, http.MethodPost, "/entries/search", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) List(ctx context.Context, page, limit int, workID string) (*models.ListResponse, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if workID != "" {
		q.Set("workId", workID)
	}
	path := "/entries"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out models.ListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateContext(ctx context.Context, id string, entryCtx *models.Context) (*models.Entry, error) {
	var out models.Entry
	body := models.UpdateContextRequest{Context: entryCtx}
	if err := c.do(ctx, http.MethodPatch, "/entries/"+url.PathEscape(id)+"/context", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	var out models.Stats
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Compact(ctx context.Context) (*models.CompactResponse, error) {
	var out models.CompactResponse
	if err := c.do(ctx, http.MethodPost, "/compact", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListWorks(ctx context.Context) ([]string, error) {
	var out struct {
		Works []string `json:"works"`
	}
	if err := c.do(ctx, http.MethodGet, "/works", nil, &out); err != nil {
		return nil, err
	}
	return out.Works, nil
}

func (c *Client) GetWork(ctx context.Context, title string) (*models.WorkContext, error) {
	var out models.WorkContext
	if err := c.do(ctx, http.MethodGet, "/works/"+url.PathEscape(title), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PutWork(ctx context.Context, req *models.WorkContextRequest) (*models.WorkContext, error) {
	var out models.WorkContext
	if err := c.do(ctx, http.MethodPut, "/works/"+url.PathEscape(req.Title), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Characters(ctx context.Context, title string) ([]models.Character, error) {
	var out struct {
		Characters []models.Character `json:"characters"`
	}
	if err := c.do(ctx, http.MethodGet, "/works/"+url.PathEscape(title)+"/characters", nil, &out); err != nil {
		return nil, err
	}
	return out.Characters, nil
}

func (c *Client) SyncWorks(ctx context.Context, dirs []string) (*models.WorkSyncResult, error) {
	var out models.WorkSyncResult
	body := map[string][]string{"dirs": dirs}
	if err := c.do(ctx, http.MethodPost, "/works/sync", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Translate(ctx context.Context, req *models.TranslateRequest) (*models.TranslateResponse, error) {
	var out models.TranslateResponse
	if err := c.do(ctx, http.MethodPost, "/translate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends a JSON request and decodes the JSON response into out. On a
// non-2xx status out is still decoded when possible and an *APIError returned.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		if out != nil {
			_ = json.Unmarshal(raw, out)
		}
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
