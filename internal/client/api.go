package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/sellbook/sellbook/internal/domain"
	"github.com/sellbook/sellbook/internal/filter"
	"github.com/sellbook/sellbook/internal/statistics"
)

// Response is a successful API reply.
type Response[T any] struct {
	Data    T
	Meta    domain.Meta
	Message string
}

func call[T any](ctx context.Context, c *Client, r request) (*Response[T], error) {
	var data T
	env, err := c.do(ctx, r, &data)
	if err != nil {
		return nil, err
	}

	resp := &Response[T]{Data: data, Message: env.Message}
	if env.Meta != nil {
		resp.Meta = *env.Meta
	}
	return resp, nil
}

type LoginUser struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type LoginResult struct {
	User    LoginUser
	Token   string
	Message string
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var user LoginUser
	env, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   map[string]string{"email": email, "password": password},
		public: true,
	}, &user)
	if err != nil {
		return nil, err
	}

	if env.Token == "" {
		return nil, &RequestError{Method: http.MethodPost, Path: "/auth/login", Status: http.StatusOK, Message: "login response carried no token"}
	}

	return &LoginResult{User: user, Token: env.Token, Message: env.Message}, nil
}

func (c *Client) ListPortals(ctx context.Context, query url.Values) (*Response[[]domain.Portal], error) {
	return call[[]domain.Portal](ctx, c, request{method: http.MethodGet, path: "/portal", query: query})
}

func (c *Client) GetPortal(ctx context.Context, id string) (*Response[domain.Portal], error) {
	return call[domain.Portal](ctx, c, request{method: http.MethodGet, path: "/portal/" + url.PathEscape(id)})
}

func (c *Client) CreatePortal(ctx context.Context, name string) (*Response[domain.Portal], error) {
	return call[domain.Portal](ctx, c, request{
		method: http.MethodPost,
		path:   "/portal",
		body:   map[string]string{"name": name},
	})
}

func (c *Client) UpdatePortal(ctx context.Context, id, name string) (*Response[domain.Portal], error) {
	return call[domain.Portal](ctx, c, request{
		method: http.MethodPatch,
		path:   "/portal/" + url.PathEscape(id),
		body:   map[string]string{"name": name},
	})
}

func (c *Client) DeletePortal(ctx context.Context, id string) (*Response[any], error) {
	return call[any](ctx, c, request{method: http.MethodDelete, path: "/portal/" + url.PathEscape(id)})
}

func (c *Client) ListTickets(ctx context.Context, params filter.Params) (*Response[[]domain.Ticket], error) {
	return call[[]domain.Ticket](ctx, c, request{method: http.MethodGet, path: "/sell", query: params.Values()})
}

func (c *Client) GetTicket(ctx context.Context, id string) (*Response[domain.Ticket], error) {
	return call[domain.Ticket](ctx, c, request{method: http.MethodGet, path: "/sell/" + url.PathEscape(id)})
}

func (c *Client) CreateTicket(ctx context.Context, t domain.Ticket) (*Response[domain.Ticket], error) {
	return call[domain.Ticket](ctx, c, request{method: http.MethodPost, path: "/sell", body: writable(t)})
}

func (c *Client) UpdateTicket(ctx context.Context, id string, t domain.Ticket) (*Response[domain.Ticket], error) {
	return call[domain.Ticket](ctx, c, request{
		method: http.MethodPatch,
		path:   "/sell/" + url.PathEscape(id),
		body:   writable(t),
	})
}

func (c *Client) DeleteTicket(ctx context.Context, id string) (*Response[any], error) {
	return call[any](ctx, c, request{method: http.MethodDelete, path: "/sell/" + url.PathEscape(id)})
}

func (c *Client) Statistics(ctx context.Context, w statistics.Window) (*Response[domain.Statistics], error) {
	return call[domain.Statistics](ctx, c, request{
		method: http.MethodGet,
		path:   "/sell/sell-statistics",
		query:  w.Params(),
	})
}

// Slip downloads the payment slip PDF for a ticket.
func (c *Client) Slip(ctx context.Context, id string) ([]byte, error) {
	r := request{method: http.MethodGet, path: "/sell/" + url.PathEscape(id) + "/slip"}

	raw, status, err := c.send(ctx, r, "application/pdf")
	if err != nil {
		return nil, err
	}
	if status >= http.StatusBadRequest {
		var env envelope
		_ = json.Unmarshal(raw, &env)
		return nil, c.failure(r, status, &env, nil)
	}
	if len(raw) == 0 {
		return nil, &RequestError{Method: r.method, Path: r.path, Status: status, Err: errors.New("empty slip")}
	}

	return raw, nil
}

// writable strips server-owned fields and reduces the portal to its id.
func writable(t domain.Ticket) domain.Ticket {
	t.ID = ""
	t.Portal = domain.PortalRef{ID: t.Portal.ID}
	t.CreatedAt = time.Time{}
	t.UpdatedAt = time.Time{}
	return t
}
