// Package adapter is a minimal Cloudflare Workers KV REST client.
package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
)

// DefaultBaseURL is the Cloudflare v4 API root.
const DefaultBaseURL = "https://api.cloudflare.com/client/v4"

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not_found")
)

// APIError is a single entry of the Cloudflare error envelope.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// StatusError carries a failed KV call.
type StatusError struct {
	Op       string
	Status   int
	Messages []string
	Err      error
}

func (e *StatusError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("%s failed: %d %s", e.Op, e.Status, strings.Join(e.Messages, "; "))
	}
	return fmt.Sprintf("%s failed: %d", e.Op, e.Status)
}

func (e *StatusError) Unwrap() error { return e.Err }

type envelope struct {
	Success bool       `json:"success"`
	Errors  []APIError `json:"errors"`
}

func classify(resp *http.Response, op string) error {
	if resp.StatusCode < 300 {
		return nil
	}
	ret := &StatusError{Op: op, Status: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		for _, e := range env.Errors {
			ret.Messages = append(ret.Messages, e.Message)
		}
	} else if text := strings.TrimSpace(string(body)); text != "" {
		ret.Messages = []string{text}
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		ret.Err = ErrUnauthorized
	case http.StatusNotFound:
		ret.Err = ErrNotFound
	}
	return ret
}

// Client reads and writes values of one KV namespace.
type Client struct {
	base        string
	accountID   string
	namespaceID string
	token       string
	http        *http.Client
}

// New creates a client for the namespace using an API token.
func New(accountID, namespaceID, token string) *Client {
	return NewWithBase(DefaultBaseURL, accountID, namespaceID, token, nil)
}

// NewWithBase creates a client against an explicit API root.
func NewWithBase(base, accountID, namespaceID, token string, client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{base: strings.TrimRight(base, "/"), accountID: accountID, namespaceID: namespaceID, token: token, http: client}
}

func (c *Client) valueURL(key string) string {
	return fmt.Sprintf("%s/accounts/%s/storage/kv/namespaces/%s/values/%s", c.base,
		neturl.PathEscape(c.accountID), neturl.PathEscape(c.namespaceID), neturl.PathEscape(key))
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "text/plain")
	}
	return c.http.Do(req)
}

// Get returns the raw value stored under key; ErrNotFound when absent.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, c.valueURL(key), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err2 := classify(resp, "kv get"); err2 != nil {
		return nil, err2
	}
	return io.ReadAll(resp.Body)
}

// Put stores value under key.
func (c *Client) Put(ctx context.Context, key string, value []byte) error {
	resp, err := c.do(ctx, http.MethodPut, c.valueURL(key), bytes.NewReader(value))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err2 := classify(resp, "kv put"); err2 != nil {
		return err2
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("kv put: decode response: %w", err)
	}
	if !env.Success {
		ret := &StatusError{Op: "kv put", Status: resp.StatusCode}
		for _, e := range env.Errors {
			ret.Messages = append(ret.Messages, e.Message)
		}
		return ret
	}
	return nil
}
