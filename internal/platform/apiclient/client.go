// Package apiclient is the single HTTP doorway to the upstream hospital API.
// Every screen talks to the backend through one Client, which attaches the
// session's bearer token, normalizes failures into *Error values, and never
// retries on its own — retry policy belongs to the caller.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/careview/careview/internal/record"
)

// Error is the normalized failure for any upstream call. Status 0 means no
// response was received at all (DNS failure, refused connection, cancelled
// context); any other value is the upstream HTTP status with the server's
// own message when one was provided.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream unreachable: %s", e.Message)
	}
	return fmt.Sprintf("upstream %d: %s", e.Status, e.Message)
}

// IsNetwork reports whether the error represents a failure to reach the
// upstream at all.
func (e *Error) IsNetwork() bool { return e.Status == 0 }

// AsError extracts an *Error from err, or wraps an unknown error as a
// network-class failure so callers always have a Status to branch on.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &Error{Status: 0, Message: "network"}
}

// TokenSource supplies the current bearer token, or "" when no session is
// active. Kept as a function so the client never caches a stale token.
type TokenSource func() string

// Client issues JSON requests against one upstream base URL.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
	logger  zerolog.Logger

	// onUnauthorized fires once per 401 response before the error is
	// returned. The session layer hooks this to clear itself.
	onUnauthorized func()
}

// New creates a Client. A zero timeout means requests run until their
// context is done, matching the upstream's own behavior.
func New(baseURL string, timeout time.Duration, token TokenSource, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		token:   token,
		logger:  logger,
	}
}

// OnUnauthorized registers the hook fired when the upstream answers 401.
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// WithToken returns a copy of the client bound to one fixed bearer token,
// sharing the underlying HTTP transport. Screen handlers use it to act on
// behalf of the request's session.
func (c *Client) WithToken(tok string) *Client {
	cp := *c
	cp.token = func() string { return tok }
	cp.onUnauthorized = nil
	return &cp
}

// Request performs one upstream call and returns the raw JSON body on any
// 2xx status. Non-2xx statuses become *Error with the server's {message}
// body when parsable; transport failures become *Error{Status: 0}.
func (c *Client) Request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	url := c.baseURL + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", method).Str("path", path).Msg("upstream unreachable")
		return nil, &Error{Status: 0, Message: "network"}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Status: 0, Message: "network"}
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("upstream call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, &Error{Status: resp.StatusCode, Message: messageFrom(data, resp.StatusCode)}
	}

	return data, nil
}

// messageFrom pulls the server-provided {message} out of an error body,
// falling back to the standard status text.
func messageFrom(body []byte, status int) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return http.StatusText(status)
}

// GetList fetches a collection endpoint and decodes the JSON array.
func (c *Client) GetList(ctx context.Context, path string) ([]record.Record, error) {
	data, err := c.Request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return record.DecodeList(data)
}

// Get fetches a single-item endpoint.
func (c *Client) Get(ctx context.Context, path string) (record.Record, error) {
	data, err := c.Request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return record.Decode(data)
}

// Post creates a resource and returns the response body.
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodPost, path, body)
}

// Put updates a resource and returns the response body.
func (c *Client) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodPut, path, body)
}

// Delete removes a resource.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.Request(ctx, http.MethodDelete, path, nil)
	return err
}
