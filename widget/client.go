// Package widget implements the leaderboard client: endpoint access, local
// caching, the submit/refresh/sync session and text rendering.
package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/viant/leaderboard/auth"
	"github.com/viant/leaderboard/score"
)

const defaultTimeout = 15 * time.Second

// PushError is returned for a non-2xx push response.
type PushError struct {
	Status  int
	Message string
}

func (e *PushError) Error() string { return e.Message }

// Client talks to the score sync endpoint.
type Client struct {
	URL    string
	APIKey string
	Header string
	http   *http.Client
}

// ClientOption customises a Client.
type ClientOption func(c *Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithHeader sets the request header carrying the key.
func WithHeader(header string) ClientOption {
	return func(c *Client) { c.Header = header }
}

// NewClient creates a client of the endpoint at URL.
func NewClient(URL, apiKey string, opts ...ClientOption) *Client {
	ret := &Client{URL: strings.TrimSpace(URL), APIKey: apiKey, Header: auth.DefaultHeader, http: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (c *Client) newRequest(ctx context.Context, method string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.URL, body)
	if err != nil {
		return nil, err
	}
	if c.APIKey != "" {
		req.Header.Set(c.Header, c.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Fetch reads the shared scores. A non-array payload yields no entries.
func (c *Client) Fetch(ctx context.Context) ([]score.Entry, error) {
	req, err := c.newRequest(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, &PushError{Status: resp.StatusCode, Message: responseMessage(resp, data)}
	}
	return score.Decode(data)
}

// Push sends entries. An empty mode posts a bare array; otherwise the
// {"scores","mode"} envelope is used.
func (c *Client) Push(ctx context.Context, entries []score.Entry, mode score.Mode) error {
	var payload any = nonNil(entries)
	if mode != "" {
		payload = struct {
			Scores []score.Entry `json:"scores"`
			Mode   score.Mode    `json:"mode"`
		}{Scores: nonNil(entries), Mode: mode}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, bytes.NewReader(data))
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 == 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	return &PushError{Status: resp.StatusCode, Message: responseMessage(resp, body)}
}

// Probe checks that the endpoint answers at all; any HTTP response counts.
func (c *Client) Probe(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// responseMessage is the response text, or the status text when empty.
func responseMessage(resp *http.Response, body []byte) string {
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}

func nonNil(entries []score.Entry) []score.Entry {
	if entries == nil {
		return []score.Entry{}
	}
	return entries
}
