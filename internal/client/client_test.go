package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellbook/sellbook/internal/domain"
	"github.com/sellbook/sellbook/internal/filter"
	"github.com/sellbook/sellbook/internal/session"
	"github.com/sellbook/sellbook/internal/statistics"
)

var now = time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, session.Claims{
		Email: "admin@example.com",
		Role:  domain.RoleSuperAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func newTestClient(t *testing.T, token string, h http.HandlerFunc) (*Client, session.Store) {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	store := session.NewMemoryStore(token)
	sess := session.New(store, clockwork.NewFakeClockAt(now), nil)

	c, err := New(srv.URL, sess)
	require.NoError(t, err)
	return c, store
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListTicketsSendsFiltersAndToken(t *testing.T) {
	token := adminToken(t)
	c, _ := newTestClient(t, token, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sell", r.URL.Path)
		assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "-sellingPriceAED", r.URL.Query().Get("sort"))

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Tickets retrieved",
			"data": []map[string]any{{
				"_id":             "t1",
				"pnr":             "ABC123",
				"date":            "2024-03-01T00:00:00.000Z",
				"sellingPriceAED": 1200,
				"portal":          map[string]any{"_id": "p1", "name": "Sky Trip"},
			}},
			"meta": map[string]any{"page": 2, "limit": 10, "total": 11, "totalPage": 2},
		})
	})

	params := filter.Translate(filter.Default().With(filter.KeyPriceSort, filter.HighToLow)).WithPage(2)
	resp, err := c.ListTickets(context.Background(), params)

	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Sky Trip", resp.Data[0].Portal.Name)
	assert.Equal(t, "2024-03-01", resp.Data[0].Date.String())
	assert.True(t, resp.Data[0].SellingPriceAED.Equal(decimal.NewFromInt(1200)))
	assert.Equal(t, domain.Meta{Page: 2, Limit: 10, Total: 11, TotalPage: 2}, resp.Meta)
}

func TestCreateTicketSendsPortalID(t *testing.T) {
	c, _ := newTestClient(t, adminToken(t), func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		var body map[string]any
		assert.NoError(t, json.Unmarshal(b, &body))

		assert.Equal(t, "p1", body["portal"])
		assert.NotContains(t, body, "_id")

		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "message": "Ticket created", "data": map[string]any{"_id": "t9"}})
	})

	resp, err := c.CreateTicket(context.Background(), domain.Ticket{ID: "stale", Portal: domain.PortalRef{ID: "p1", Name: "Sky Trip"}})

	require.NoError(t, err)
	assert.Equal(t, "t9", resp.Data.ID)
	assert.Equal(t, "Ticket created", resp.Message)
}

func TestServerMessageTakesPrecedence(t *testing.T) {
	c, _ := newTestClient(t, adminToken(t), func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success":      false,
			"message":      "Portal not found",
			"errorSources": []map[string]any{{"path": "portal", "message": "Portal not found"}},
			"stack":        "Error: at handler.js:10",
		})
	})

	_, err := c.CreatePortal(context.Background(), "x")

	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusBadRequest, re.Status)
	assert.Equal(t, []ErrorSource{{Path: "portal", Message: "Portal not found"}}, re.Sources)
	assert.Equal(t, "Portal not found", Notice(err, "Something went wrong!"))
}

func TestFallbackNoticeWithoutMessage(t *testing.T) {
	c, _ := newTestClient(t, adminToken(t), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.ListPortals(context.Background(), nil)

	require.Error(t, err)
	assert.Equal(t, "Something went wrong!", Notice(err, "Something went wrong!"))
}

func TestNotFound(t *testing.T) {
	c, _ := newTestClient(t, adminToken(t), func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "Ticket not found"})
	})

	_, err := c.DeleteTicket(context.Background(), "gone")

	assert.True(t, IsNotFound(err))
	var re *RequestError
	assert.ErrorAs(t, err, &re)
}

func TestUnauthorizedClearsSession(t *testing.T) {
	c, store := newTestClient(t, adminToken(t), func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "jwt malformed"})
	})

	_, err := c.GetTicket(context.Background(), "t1")

	var ae *session.AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, session.DecodeFailed, ae.State)
	assert.Equal(t, "Invalid session. Please log in again.", Notice(err, "fallback"))
	left, _ := store.Load()
	assert.Empty(t, left)
}

func TestMissingTokenNeverHitsServer(t *testing.T) {
	hit := false
	c, _ := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) { hit = true })

	_, err := c.Statistics(context.Background(), statistics.All)

	var ae *session.AuthError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, session.NoToken, ae.State)
	assert.False(t, hit)
}

func TestLoginIsPublic(t *testing.T) {
	issued := adminToken(t)
	c, _ := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Login successful!",
			"data":    map[string]any{"email": "admin@example.com", "role": "superAdmin"},
			"token":   issued,
		})
	})

	res, err := c.Login(context.Background(), "admin@example.com", "pw")

	require.NoError(t, err)
	assert.Equal(t, issued, res.Token)
	assert.Equal(t, "superAdmin", res.User.Role)
}

func TestStatisticsWindowParam(t *testing.T) {
	var got []string
	c, _ := newTestClient(t, adminToken(t), func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.URL.RawQuery)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"totalProfitAED": 10, "totalSelling": 2, "totalRevenue": 100, "totalDue": 0},
		})
	})

	_, err := c.Statistics(context.Background(), statistics.All)
	require.NoError(t, err)
	resp, err := c.Statistics(context.Background(), statistics.ThisWeek)
	require.NoError(t, err)

	assert.Equal(t, []string{"", "timeFilter=this-week"}, got)
	assert.Equal(t, int64(2), resp.Data.TotalSelling)
}

func TestSlip(t *testing.T) {
	c, _ := newTestClient(t, adminToken(t), func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sell/t1/slip", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.3"))
	})

	b, err := c.Slip(context.Background(), "t1")

	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(b))
}
