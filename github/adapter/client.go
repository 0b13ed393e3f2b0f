package adapter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
)

var (
	ErrBadCredentials = errors.New("bad_credentials")
	ErrRateLimited    = errors.New("rate_limited")
	ErrForbidden      = errors.New("forbidden")
	ErrSSORequired    = errors.New("sso_required")
	ErrNotFound       = errors.New("not_found")
	// ErrConflict is returned when a PUT carries a stale or missing sha.
	ErrConflict = errors.New("conflict")
)

// StatusError carries a non-2xx GitHub response.
type StatusError struct {
	Op     string
	Status int
	Detail string
	Err    error
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s failed: %d %s", e.Op, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s failed: %d", e.Op, e.Status)
}

func (e *StatusError) Unwrap() error { return e.Err }

func classify(resp *http.Response, op string) error {
	if resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := strings.TrimSpace(string(body))
	ret := &StatusError{Op: op, Status: resp.StatusCode, Detail: detail}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		ret.Err = ErrBadCredentials
	case http.StatusForbidden:
		switch {
		case strings.Contains(strings.ToLower(resp.Header.Get("X-GitHub-SSO")), "required"):
			ret.Err = ErrSSORequired
		case strings.TrimSpace(resp.Header.Get("X-RateLimit-Remaining")) == "0":
			ret.Err = ErrRateLimited
		default:
			ret.Err = ErrForbidden
		}
	case http.StatusNotFound:
		ret.Err = ErrNotFound
	case http.StatusConflict:
		ret.Err = ErrConflict
	case http.StatusUnprocessableEntity:
		// GitHub reports a missing sha for an existing file as 422.
		if strings.Contains(strings.ToLower(detail), "sha") {
			ret.Err = ErrConflict
		}
	}
	return ret
}

// Client talks to the GitHub REST Contents API.
type Client struct {
	apiBase   string
	userAgent string
	http      *http.Client
}

// New creates a client for github.com or a GitHub Enterprise domain.
func New(domain string) *Client {
	if domain == "" || domain == "github.com" {
		return NewWithBase("https://api.github.com", nil)
	}
	return NewWithBase("https://"+domain+"/api/v3", nil)
}

// NewWithBase creates a client for an explicit API base URL.
func NewWithBase(base string, client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{apiBase: strings.TrimRight(base, "/"), userAgent: "yeti-sync-worker", http: client}
}

// SetUserAgent overrides the User-Agent header sent with every call.
func (c *Client) SetUserAgent(ua string) {
	if strings.TrimSpace(ua) != "" {
		c.userAgent = ua
	}
}

func (c *Client) newRequest(ctx context.Context, method, url, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", authHeader(token))
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) contentsURL(owner, name, path string) string {
	path = strings.TrimPrefix(path, "/")
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.apiBase, neturl.PathEscape(owner), neturl.PathEscape(name), path)
}

// File is a decoded Contents API file.
type File struct {
	Path    string
	Sha     string
	Content []byte
}

// GetFile fetches a file and its blob sha. Returns ErrNotFound when the file is absent.
func (c *Client) GetFile(ctx context.Context, token, owner, name, path, ref string) (*File, error) {
	url := c.contentsURL(owner, name, path)
	if ref != "" {
		url += "?ref=" + neturl.QueryEscape(ref)
	}
	req, err := c.newRequest(ctx, http.MethodGet, url, token, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err2 := classify(resp, "get content"); err2 != nil {
		return nil, err2
	}
	var obj struct {
		Type     string `json:"type"`
		Path     string `json:"path"`
		Sha      string `json:"sha"`
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&obj); err != nil {
		return nil, err
	}
	if obj.Type != "" && obj.Type != "file" {
		return nil, fmt.Errorf("get content failed: %s is a %s", path, obj.Type)
	}
	// GitHub may include newlines in base64 content
	b64 := strings.ReplaceAll(obj.Content, "\n", "")
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	return &File{Path: obj.Path, Sha: obj.Sha, Content: data}, nil
}

// PutRequest describes a create-or-update of a single file.
type PutRequest struct {
	Message string
	Content []byte
	Branch  string
	// Sha of the blob being replaced; empty creates the file.
	Sha string
}

// PutResult reports the new blob and commit shas.
type PutResult struct {
	ContentSha string
	CommitSha  string
}

// PutFile creates or updates a file. A stale sha yields ErrConflict.
func (c *Client) PutFile(ctx context.Context, token, owner, name, path string, in *PutRequest) (*PutResult, error) {
	if in == nil {
		return nil, fmt.Errorf("put request is nil")
	}
	payload := map[string]any{
		"message": in.Message,
		"content": base64.StdEncoding.EncodeToString(in.Content),
	}
	if in.Branch != "" {
		payload["branch"] = in.Branch
	}
	if in.Sha != "" {
		payload["sha"] = in.Sha
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPut, c.contentsURL(owner, name, path), token, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err2 := classify(resp, "put content"); err2 != nil {
		return nil, err2
	}
	var out struct {
		Content struct {
			Sha string `json:"sha"`
		} `json:"content"`
		Commit struct {
			Sha string `json:"sha"`
		} `json:"commit"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &PutResult{ContentSha: out.Content.Sha, CommitSha: out.Commit.Sha}, nil
}

// GetRepoDefaultBranch returns the default branch name (e.g., "main" or "master").
func (c *Client) GetRepoDefaultBranch(ctx context.Context, token, owner, name string) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s", c.apiBase, neturl.PathEscape(owner), neturl.PathEscape(name))
	req, err := c.newRequest(ctx, http.MethodGet, url, token, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err2 := classify(resp, "get repo"); err2 != nil {
		return "", err2
	}
	var payload struct {
		DefaultBranch string `json:"default_branch"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.DefaultBranch == "" {
		return "", fmt.Errorf("default_branch not found")
	}
	return payload.DefaultBranch, nil
}

// ValidateToken performs a lightweight call to verify that provided credentials are valid.
func (c *Client) ValidateToken(ctx context.Context, token string) error {
	req, err := c.newRequest(ctx, http.MethodGet, c.apiBase+"/user", token, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return classify(resp, "validate token")
}

func authHeader(token string) string {
	// If token looks like "username:password", use basic auth; else treat as PAT.
	if strings.Contains(token, ":") {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(token))
	}
	return "Bearer " + token
}
