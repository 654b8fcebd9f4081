// Package client talks to the LMS API. It owns the session, caches list
// queries per key, gates workflow commands on confirmation and reasons, and
// drives paginated lists.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/afzalm/cclms/internal/dto"
	"github.com/afzalm/cclms/internal/guard"
)

// SessionExpiredError is returned after a 401. The stored session has been
// cleared and the caller should go to Redirect.
type SessionExpiredError struct {
	Redirect string
}

func (e *SessionExpiredError) Error() string {
	return "session expired, sign in again"
}

var ErrSessionExpired = &SessionExpiredError{Redirect: guard.LoginPath}

// ErrNotSignedIn is returned before any request when no session is stored.
var ErrNotSignedIn = errors.New("not signed in")

// APIError is a non-2xx response outside of workflow commands.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed (%d): %s", e.Status, e.Message)
}

type Client struct {
	baseURL  string
	http     *http.Client
	sessions SessionStore
	queries  *queryCache
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithQueryTTL sets how long list results are cached. Zero or less turns
// caching off.
func WithQueryTTL(d time.Duration) Option {
	return func(c *Client) { c.queries.ttl = d }
}

func New(baseURL string, sessions SessionStore, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 15 * time.Second},
		sessions: sessions,
		queries:  newQueryCache(DefaultQueryTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the stored session or nil.
func (c *Client) Session() (*Session, error) {
	return c.sessions.Get()
}

func (c *Client) token() (string, error) {
	s, err := c.sessions.Get()
	if err != nil {
		return "", err
	}
	if s == nil || s.Token == "" {
		return "", ErrNotSignedIn
	}
	return s.Token, nil
}

// do sends a request and decodes a 2xx body into out. authed requests carry
// the stored bearer token; a 401 on them ends the session.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}, authed bool) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := newJSONRequest(ctx, method, target, body)
	if err != nil {
		return err
	}
	if authed {
		tok, err := c.token()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && authed {
		if err := c.sessions.Clear(); err != nil {
			slog.Warn("failed to clear session", "error", err)
		}
		c.queries.clear()
		return ErrSessionExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: readMessage(resp.Body)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func newJSONRequest(ctx context.Context, method, target string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func readMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 64<<10))
	var e dto.ErrorResponse
	if err := json.Unmarshal(raw, &e); err == nil && e.Message != "" {
		return e.Message
	}
	return strings.TrimSpace(string(raw))
}
