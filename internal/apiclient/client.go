// Package apiclient talks to the persistence backend with the session's
// bearer token and refreshes it once when the backend answers 401.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/storycraft/backend/internal/token"
)

const (
	// DefaultTimeout bounds every backend call.
	DefaultTimeout = 30 * time.Second
	// DefaultRetryBudget is how many refresh-and-replay rounds a request gets.
	DefaultRetryBudget = 1

	refreshPath = "/auth/refresh"
)

// ErrSessionExpired means the backend rejected the session and it has been cleared.
var ErrSessionExpired = errors.New("session expired, please log in again")

// StatusError is returned for non-2xx backend responses.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// Detail returns the backend's detail or message field, if any.
func (e *StatusError) Detail() string {
	var payload struct {
		Detail  any    `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Body, &payload); err != nil {
		return ""
	}
	if s, ok := payload.Detail.(string); ok && s != "" {
		return s
	}
	return payload.Message
}

// Request describes one backend call. It is never mutated by the client, so
// replays are built from the same value.
type Request struct {
	Method      string
	Path        string
	Body        []byte
	ContentType string
	Header      http.Header
	// SkipRefresh disables the 401 refresh path, used for the credential
	// exchange and the refresh call itself.
	SkipRefresh bool
}

// Response is a fully read backend response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the body into out. Bodies wrapped in a {"data": ...}
// envelope are unwrapped first.
func (r *Response) Decode(out any) error {
	if out == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(r.Body, &envelope); err == nil && len(envelope.Data) > 0 && !bytes.Equal(envelope.Data, []byte("null")) {
		if err := json.Unmarshal(envelope.Data, out); err == nil {
			return nil
		}
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("decode backend response: %w", err)
	}
	return nil
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithSessionExpired registers a callback fired after the session is
// cleared because refresh failed or a replay was rejected.
func WithSessionExpired(fn func()) Option {
	return func(c *Client) {
		c.onSessionExpired = fn
	}
}

// Client is the authenticated backend client.
type Client struct {
	baseURL          string
	http             *http.Client
	tokens           token.Store
	onSessionExpired func()
	refreshMu        sync.Mutex
	log              *logrus.Entry
}

// New creates a client for baseURL (for example http://localhost:8000/api/v1).
func New(baseURL string, tokens token.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		tokens:  tokens,
		log:     logrus.WithField("component", "apiclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends req. A 401 triggers one token refresh and a replay while retries
// is above zero. A failed refresh, or a 401 on the replay, clears the session.
func (c *Client) Do(ctx context.Context, req Request, retries int) (*Response, error) {
	return c.do(ctx, req, retries, false)
}

func (c *Client) do(ctx context.Context, req Request, retries int, replay bool) (*Response, error) {
	sentToken := c.tokens.Token()
	resp, err := c.send(ctx, req, sentToken)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || req.SkipRefresh {
		return resp, statusErr(resp)
	}

	if replay {
		c.log.WithField("path", req.Path).Warn("replayed request rejected, clearing session")
		c.expireSession()
		return resp, fmt.Errorf("%w: %w", ErrSessionExpired, statusErr(resp))
	}
	if retries <= 0 {
		return resp, statusErr(resp)
	}

	if _, err := c.refreshFrom(ctx, sentToken); err != nil {
		c.log.WithError(err).WithField("path", req.Path).Warn("token refresh failed, clearing session")
		c.expireSession()
		return nil, fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	return c.do(ctx, req, retries-1, true)
}

// Refresh exchanges the current token for a new one and stores it.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	return c.refreshFrom(ctx, c.tokens.Token())
}

// refreshFrom refreshes unless another caller already replaced stale.
func (c *Client) refreshFrom(ctx context.Context, stale string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if current := c.tokens.Token(); current != "" && current != stale {
		return current, nil
	}

	resp, err := c.send(ctx, Request{Method: http.MethodPost, Path: refreshPath, SkipRefresh: true}, stale)
	if err != nil {
		return "", err
	}
	if err := statusErr(resp); err != nil {
		return "", err
	}

	fresh := refreshedToken(resp.Body)
	if fresh == "" {
		return "", errors.New("refresh response carried no token")
	}
	if err := c.tokens.SetToken(fresh); err != nil {
		return "", fmt.Errorf("store refreshed token: %w", err)
	}
	c.log.Debug("token refreshed")
	return fresh, nil
}

func (c *Client) expireSession() {
	if err := c.tokens.ClearToken(); err != nil {
		c.log.WithError(err).Warn("failed to clear token")
	}
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

func (c *Client) send(ctx context.Context, req Request, bearer string) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+bearer)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("X-Request-ID", requestID)

	logger := c.log.WithFields(logrus.Fields{
		"method":     req.Method,
		"path":       req.Path,
		"request_id": requestID,
		"has_token":  bearer != "",
	})

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		logger.WithError(err).Warn("backend request failed")
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", req.Method, req.Path, err)
	}

	if httpResp.StatusCode >= 300 {
		logger.WithFields(logrus.Fields{"status": httpResp.StatusCode, "body": string(data)}).Warn("backend returned error status")
	} else {
		logger.WithField("status", httpResp.StatusCode).Debug("backend request done")
	}

	return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: data}, nil
}

func statusErr(resp *Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &StatusError{StatusCode: resp.StatusCode, Body: resp.Body}
}

// refreshedToken accepts {"data":{"token"}}, {"access_token"} or {"token"}.
func refreshedToken(body []byte) string {
	var payload struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
		AccessToken string `json:"access_token"`
		Token       string `json:"token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	switch {
	case payload.Data.Token != "":
		return payload.Data.Token
	case payload.AccessToken != "":
		return payload.AccessToken
	default:
		return payload.Token
	}
}

// GetJSON issues an authenticated GET and decodes the result into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path}, DefaultRetryBudget)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// PostJSON issues an authenticated POST with a JSON body.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	return c.sendJSON(ctx, http.MethodPost, path, in, out)
}

// PutJSON issues an authenticated PUT with a JSON body.
func (c *Client) PutJSON(ctx context.Context, path string, in, out any) error {
	return c.sendJSON(ctx, http.MethodPut, path, in, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in, out any) error {
	req := Request{Method: method, Path: path}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		req.Body = body
		req.ContentType = "application/json"
	}
	resp, err := c.Do(ctx, req, DefaultRetryBudget)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// PostForm sends a form-encoded POST without the refresh path. Non-2xx
// responses come back as *StatusError alongside the response.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values) (*Response, error) {
	return c.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        path,
		Body:        []byte(form.Encode()),
		ContentType: "application/x-www-form-urlencoded",
		SkipRefresh: true,
	}, 0)
}
