// Package upstream is the HTTP client for the bike backend API. The backend
// owns product storage, pricing and the compare session; this package only
// speaks its wire formats, tolerating the two historical response shapes.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Session holds the backend's session cookies for one logical browser
// session. The compare list lives server-side keyed by these cookies.
type Session struct {
	mu      sync.Mutex
	cookies []*http.Cookie
}

func (s *Session) attach(req *http.Request) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cookies {
		req.AddCookie(c)
	}
}

func (s *Session) capture(resp *http.Response) {
	if s == nil {
		return
	}
	fresh := resp.Cookies()
	if len(fresh) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range fresh {
		replaced := false
		for i, old := range s.cookies {
			if old.Name == c.Name {
				s.cookies[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			s.cookies = append(s.cookies, c)
		}
	}
}

// FilterBikes queries /api/filter_bikes. Depending on the page generation the
// backend answers with a bare array or a {"bikes": [...]} envelope; both are
// accepted.
func (c *Client) FilterBikes(ctx context.Context, params url.Values) ([]map[string]any, error) {
	body, err := c.get(ctx, nil, "/api/filter_bikes", params)
	if err != nil {
		return nil, err
	}
	return decodeProductList(body, "bikes")
}

// SearchBikes queries the legacy free-text endpoint. Records come back in the
// old flat shape with capitalized field names.
func (c *Client) SearchBikes(ctx context.Context, query string) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("q", query)
	body, err := c.get(ctx, nil, "/api/search_bikes", params)
	if err != nil {
		return nil, err
	}
	return decodeProductList(body, "bikes")
}

// GetBike fetches one product record, legacy or canonical shape.
func (c *Client) GetBike(ctx context.Context, id string) (map[string]any, error) {
	body, err := c.get(ctx, nil, "/api/bike/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var record map[string]any
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("invalid bike payload: %w", err)
	}
	if errMsg, ok := record["error"].(string); ok && errMsg != "" {
		return nil, fmt.Errorf("backend error: %s", errMsg)
	}
	return record, nil
}

// SimilarBikes fetches the similar-models list for a product.
func (c *Client) SimilarBikes(ctx context.Context, id string) ([]map[string]any, error) {
	body, err := c.get(ctx, nil, "/similar_bikes/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeProductList(body, "similar_bikes")
}

func (c *Client) get(ctx context.Context, session *Session, path string, params url.Values) ([]byte, error) {
	target := c.BaseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	session.attach(req)
	return c.do(req, session)
}

func (c *Client) postJSON(ctx context.Context, session *Session, path string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	session.attach(req)
	return c.do(req, session)
}

func (c *Client) do(req *http.Request, session *Session) ([]byte, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	session.capture(resp)

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// Error statuses may still carry a JSON payload the caller needs (the
	// compare cap answers 400 with an error message). Callers decode first
	// and fall back to the status error.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, &StatusError{Code: resp.StatusCode}
	}
	return body, nil
}

// StatusError reports a non-2xx backend answer.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

// decodeProductList accepts either a bare JSON array of records or an object
// envelope holding the array under the given key.
func decodeProductList(body []byte, envelopeKey string) ([]map[string]any, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	if trimmed[0] == '[' {
		var records []map[string]any
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("invalid product list: %w", err)
		}
		return records, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("invalid product envelope: %w", err)
	}
	raw, ok := envelope[envelopeKey]
	if !ok {
		if errRaw, ok := envelope["error"]; ok {
			var msg string
			_ = json.Unmarshal(errRaw, &msg)
			return nil, fmt.Errorf("backend error: %s", msg)
		}
		return nil, fmt.Errorf("response missing %q key", envelopeKey)
	}
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("invalid product list: %w", err)
	}
	return records, nil
}
