// Package client is the Go SDK for the progress service. It mirrors the
// browser client's behavior: a thin REST surface plus a local-first cache
// that keeps today's record usable offline and flushes it opportunistically.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a REST client for the progress service. A zero API key is
// valid: the server treats such callers as anonymous.
type Client struct {
	baseURL string
	http    *http.Client
	apiKey  string
}

// New constructs a Client for the given base URL. Pass an empty apiKey to
// operate anonymously.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL cannot be empty")
	}

	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.wrapTransportWithAPIKey()
	return c, nil
}

// wrapTransportWithAPIKey installs a transport that adds the Authorization
// header to every request when an API key is configured.
func (c *Client) wrapTransportWithAPIKey() {
	if c.apiKey == "" {
		return
	}
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.http.Transport = &apiKeyTransport{base: base, apiKey: c.apiKey}
}

// apiKeyTransport wraps an http.RoundTripper to add the Authorization header.
type apiKeyTransport struct {
	base   http.RoundTripper
	apiKey string
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	cloned.Header.Set("Authorization", "Bearer "+t.apiKey)
	return t.base.RoundTrip(cloned)
}

// Replace overwrites the record for (projectID, date) with the full
// snapshot in patch. Omitted fields are zeroed server-side.
func (c *Client) Replace(ctx context.Context, projectID, date string, patch Patch) (*Record, error) {
	var out Record
	url := fmt.Sprintf("%s/api/projects/%s/progress/%s", c.baseURL, projectID, date)
	if err := c.do(ctx, http.MethodPut, url, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Merge accumulates patch into the record for (projectID, date). The server
// decides between accumulate and reset from its own calendar date.
func (c *Client) Merge(ctx context.Context, projectID, date string, patch Patch) (*Record, error) {
	var out Record
	url := fmt.Sprintf("%s/api/projects/%s/progress/%s", c.baseURL, projectID, date)
	if err := c.do(ctx, http.MethodPatch, url, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the caller's record for the given date, or every record
// for the project when date is empty. Deleting nothing is not an error.
func (c *Client) Delete(ctx context.Context, projectID, date string) error {
	url := fmt.Sprintf("%s/api/projects/%s/progress", c.baseURL, projectID)
	if date == "" {
		url += "?all=true"
	} else {
		url += "?date=" + date
	}
	return c.do(ctx, http.MethodDelete, url, nil, nil)
}

// Daily returns the gap-filled trailing week, oldest entry first.
func (c *Client) Daily(ctx context.Context, projectID string) (*DailyResponse, error) {
	var out DailyResponse
	url := fmt.Sprintf("%s/api/projects/%s/progress?granularity=daily", c.baseURL, projectID)
	if err := c.do(ctx, http.MethodGet, url, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Aggregate returns a single rollup for granularity "weekly", "monthly" or
// "yearly".
func (c *Client) Aggregate(ctx context.Context, projectID, granularity string) (*Rollup, error) {
	var out Rollup
	url := fmt.Sprintf("%s/api/projects/%s/progress?granularity=%s", c.baseURL, projectID, granularity)
	if err := c.do(ctx, http.MethodGet, url, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AppendSessions appends session-log rows for the given date.
func (c *Client) AppendSessions(ctx context.Context, projectID, date string, entries []SessionEntry) error {
	url := fmt.Sprintf("%s/api/projects/%s/sessions", c.baseURL, projectID)
	body := map[string]interface{}{"date": date, "sessions": entries}
	return c.do(ctx, http.MethodPost, url, body, nil)
}

func (c *Client) do(ctx context.Context, method, url string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%s %s: %w", method, url, ErrNotFound)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(raw)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
