// Package client talks to the sellbook REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sellbook/sellbook/internal/domain"
	"github.com/sellbook/sellbook/internal/session"
)

// Auth supplies bearer tokens and ends the session when the server
// refuses one. *session.Session implements it.
type Auth interface {
	Token() (string, error)
	Revoke(status int) *session.AuthError
}

type Client struct {
	base   *url.URL
	http   *http.Client
	auth   Auth
	logger *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(baseURL string, auth Auth, opts ...Option) (*Client, error) {
	const op = "client.New"

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%s: base url %q must be absolute", op, baseURL)
	}

	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: 15 * time.Second},
		auth:   auth,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

type envelope struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	Data         json.RawMessage `json:"data"`
	Meta         *domain.Meta    `json:"meta,omitempty"`
	Token        string          `json:"token,omitempty"`
	ErrorSources []ErrorSource   `json:"errorSources,omitempty"`
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	public bool
}

func (c *Client) do(ctx context.Context, r request, out any) (*envelope, error) {
	raw, status, err := c.send(ctx, r, "application/json")
	if err != nil {
		return nil, err
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, c.failure(r, status, &envelope{}, fmt.Errorf("decode response: %w", err))
		}
	}

	if status >= http.StatusBadRequest || !env.Success {
		return nil, c.failure(r, status, &env, nil)
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, &RequestError{Method: r.method, Path: r.path, Status: status, Err: fmt.Errorf("decode data: %w", err)}
		}
	}

	return &env, nil
}

// send performs the request and returns the body of any response that is
// not an auth refusal.
func (c *Client) send(ctx context.Context, r request, accept string) ([]byte, int, error) {
	u := *c.base
	u.Path = c.base.Path + r.path
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return nil, 0, fmt.Errorf("client: encode %s %s: %w", r.method, r.path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return nil, 0, &RequestError{Method: r.method, Path: r.path, Err: err}
	}
	req.Header.Set("Accept", accept)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if !r.public {
		token, err := c.auth.Token()
		if err != nil {
			return nil, 0, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, &RequestError{Method: r.method, Path: r.path, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("api request",
		slog.String("method", r.method),
		slog.String("path", r.path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", time.Since(start)),
	)

	if !r.public && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
		return nil, resp.StatusCode, c.auth.Revoke(resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &RequestError{Method: r.method, Path: r.path, Status: resp.StatusCode, Err: err}
	}

	return raw, resp.StatusCode, nil
}

func (c *Client) failure(r request, status int, env *envelope, cause error) error {
	re := &RequestError{
		Method:  r.method,
		Path:    r.path,
		Status:  status,
		Message: env.Message,
		Sources: env.ErrorSources,
		Err:     cause,
	}
	if status == http.StatusNotFound {
		return &NotFoundError{RequestError: re}
	}
	return re
}
