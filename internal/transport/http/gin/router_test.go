package httpgin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellbook/sellbook/internal/domain"
	redisrepo "github.com/sellbook/sellbook/internal/repository/redis"
	"github.com/sellbook/sellbook/internal/service/auth"
	"github.com/sellbook/sellbook/internal/service/portal"
	"github.com/sellbook/sellbook/internal/service/selling"
	"github.com/sellbook/sellbook/internal/session"
	"github.com/sellbook/sellbook/internal/statistics"
	"github.com/sellbook/sellbook/internal/ticket"
)

type fakeSelling struct {
	mu        sync.Mutex
	tickets   map[string]domain.Ticket
	creates   int
	lastQuery domain.TicketQuery
	lastStats statistics.Window
}

func (f *fakeSelling) List(_ context.Context, q domain.TicketQuery) ([]domain.Ticket, domain.Meta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	out := make([]domain.Ticket, 0, len(f.tickets))
	for _, t := range f.tickets {
		out = append(out, t)
	}
	return out, domain.NewMeta(q.Page, q.Limit, len(out)), nil
}

func (f *fakeSelling) Get(_ context.Context, id string) (domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok {
		return domain.Ticket{}, fmt.Errorf("get: %w", selling.ErrTicketNotFound)
	}
	return t, nil
}

func (f *fakeSelling) Create(_ context.Context, t domain.Ticket) (domain.Ticket, error) {
	if v := ticket.Validate(ticket.Derive(t)); len(v) > 0 {
		return domain.Ticket{}, &ticket.ValidationError{Violations: v}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	t = ticket.Derive(t)
	t.ID = fmt.Sprintf("t%d", f.creates)
	f.tickets[t.ID] = t
	return t, nil
}

func (f *fakeSelling) Update(_ context.Context, id string, apply func(*domain.Ticket) error) (domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok {
		return domain.Ticket{}, selling.ErrTicketNotFound
	}
	if err := apply(&t); err != nil {
		return domain.Ticket{}, err
	}
	t = ticket.Derive(t)
	f.tickets[id] = t
	return t, nil
}

func (f *fakeSelling) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tickets[id]; !ok {
		return selling.ErrTicketNotFound
	}
	delete(f.tickets, id)
	return nil
}

func (f *fakeSelling) Statistics(_ context.Context, w statistics.Window) (domain.Statistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastStats = w
	return domain.Statistics{TotalSelling: 3, TotalProfitAED: decimal.NewFromInt(150)}, nil
}

func (f *fakeSelling) Slip(ctx context.Context, id string) ([]byte, domain.Ticket, error) {
	t, err := f.Get(ctx, id)
	if err != nil {
		return nil, domain.Ticket{}, err
	}
	return []byte("%PDF-1.3 fake"), t, nil
}

type fakePortals struct{}

func (fakePortals) List(_ context.Context, q domain.PortalQuery) ([]domain.Portal, domain.Meta, error) {
	return []domain.Portal{{ID: "p1", Name: "Sky"}}, domain.NewMeta(q.Page, q.Limit, 1), nil
}

func (fakePortals) Get(_ context.Context, id string) (domain.Portal, error) {
	if id != "p1" {
		return domain.Portal{}, portal.ErrPortalNotFound
	}
	return domain.Portal{ID: "p1", Name: "Sky"}, nil
}

func (fakePortals) Create(_ context.Context, name string) (domain.Portal, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Portal{}, portal.ErrEmptyName
	}
	return domain.Portal{ID: "p2", Name: name}, nil
}

func (fakePortals) Rename(_ context.Context, id, name string) (domain.Portal, error) {
	return domain.Portal{ID: id, Name: name}, nil
}

func (fakePortals) Delete(_ context.Context, id string) error {
	if id == "p1" {
		return fmt.Errorf("delete: %w", portal.ErrPortalInUse)
	}
	return nil
}

type fakeAuth struct{}

func (fakeAuth) Verify(raw string) (*session.Claims, error) {
	switch raw {
	case "admin":
		return &session.Claims{Email: "admin@example.com", Role: domain.RoleSuperAdmin}, nil
	case "agent":
		return &session.Claims{Email: "agent@example.com", Role: "agent"}, nil
	case "expired":
		return nil, auth.ErrTokenExpired
	default:
		return nil, auth.ErrInvalidToken
	}
}

func (fakeAuth) Login(_ context.Context, email, password, _ string) (string, domain.User, error) {
	switch {
	case email == "slow@example.com":
		return "", domain.User{}, &auth.RateLimitError{RetryAfter: 20 * time.Second}
	case email == "admin@example.com" && password == "pw":
		return "admin", domain.User{Email: email, Role: domain.RoleSuperAdmin}, nil
	default:
		return "", domain.User{}, auth.ErrInvalidCredentials
	}
}

type memReplays struct {
	mu      sync.Mutex
	pending map[string]bool
	done    map[string]redisrepo.Replay
}

func newMemReplays() *memReplays {
	return &memReplays{pending: map[string]bool{}, done: map[string]redisrepo.Replay{}}
}

func (s *memReplays) Claim(_ context.Context, subject, key string) (redisrepo.ReplayState, redisrepo.Replay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := subject + "/" + key
	if rep, ok := s.done[k]; ok {
		return redisrepo.ReplayDone, rep, nil
	}
	if s.pending[k] {
		return redisrepo.ReplayPending, redisrepo.Replay{}, nil
	}
	s.pending[k] = true
	return redisrepo.ReplayClaimed, redisrepo.Replay{}, nil
}

func (s *memReplays) Finish(_ context.Context, subject, key string, rep redisrepo.Replay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := subject + "/" + key
	delete(s.pending, k)
	s.done[k] = rep
	return nil
}

func (s *memReplays) Abandon(_ context.Context, subject, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, subject+"/"+key)
	return nil
}

func sampleTicket() domain.Ticket {
	return domain.Ticket{
		ID:              "t0",
		Date:            domain.NewDate(2024, 5, 1),
		PNR:             "ABC123",
		AirlinesName:    "Emirates",
		Trip:            domain.TripSingle,
		Departure:       "DXB",
		Arrival:         "DAC",
		PassengerName:   "Rahim",
		PhoneNumber:     971500000000,
		BuyingPriceAED:  decimal.NewFromInt(900),
		SellingPriceAED: decimal.NewFromInt(1000),
		PaymentMethod:   domain.PaymentCash,
		Remarks:         "window seat",
		Portal:          domain.PortalRef{ID: "p1", Name: "Sky"},
	}
}

type harness struct {
	router  *gin.Engine
	selling *fakeSelling
	replays *memReplays
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &fakeSelling{tickets: map[string]domain.Ticket{"t0": ticket.Derive(sampleTicket())}}
	replays := newMemReplays()
	r := NewRouter(
		Services{Selling: s, Portal: fakePortals{}, Auth: fakeAuth{}},
		replays,
		slog.New(slog.DiscardHandler),
	)
	return &harness{router: r, selling: s, replays: replays}
}

func (h *harness) do(method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	Data         json.RawMessage `json:"data"`
	Meta         *domain.Meta    `json:"meta"`
	Token        string          `json:"token"`
	ErrorSources []ErrorSource   `json:"errorSources"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyzReportsFailedCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(Services{
		Selling: &fakeSelling{},
		Portal:  fakePortals{},
		Auth:    fakeAuth{},
		Ready:   func(context.Context) error { return fmt.Errorf("postgres down") },
	}, nil, slog.New(slog.DiscardHandler))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	h := newHarness(t)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/readyz", "", "").Code)
}

func TestAccessGate(t *testing.T) {
	h := newHarness(t)

	cases := []struct {
		token  string
		status int
		msg    string
	}{
		{"", http.StatusUnauthorized, "You are not authorized!"},
		{"garbage", http.StatusUnauthorized, "Invalid token"},
		{"expired", http.StatusUnauthorized, "Token has expired"},
		{"agent", http.StatusForbidden, "You do not have access to this resource!"},
	}
	for _, tc := range cases {
		w := h.do(http.MethodGet, "/sell", tc.token, "")
		assert.Equal(t, tc.status, w.Code, tc.token)
		env := decode(t, w)
		assert.False(t, env.Success)
		assert.Equal(t, tc.msg, env.Message)
	}

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/sell", "admin", "").Code)
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/auth/login", "", `{"email":"admin@example.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.True(t, env.Success)
	assert.Equal(t, "admin", env.Token)
	assert.JSONEq(t, `{"email":"admin@example.com","role":"superAdmin"}`, string(env.Data))

	w = h.do(http.MethodPost, "/auth/login", "", `{"email":"admin@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodPost, "/auth/login", "", `{"email":"slow@example.com","password":"pw"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "21", w.Header().Get("Retry-After"))

	w = h.do(http.MethodPost, "/auth/login", "", `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListSellsDecodesFiltersAndSetsETag(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/sell?page=2&limit=5&trip=round&dueStatus=true&sort=-sellingPriceAED", "admin", "")
	require.Equal(t, http.StatusOK, w.Code)

	q := h.selling.lastQuery
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, 5, q.Limit)
	assert.Equal(t, domain.TripRound, q.Trip)
	require.NotNil(t, q.DueStatus)
	assert.True(t, *q.DueStatus)
	assert.Equal(t, "sellingPriceAED", q.SortField)
	assert.True(t, q.SortDesc)

	env := decode(t, w)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 1, env.Meta.Total)

	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)
	w = h.do(http.MethodGet, "/sell?page=2&limit=5&trip=round&dueStatus=true&sort=-sellingPriceAED", "admin", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, w.Code)
}

func TestListSellsRejectsBadQuery(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/sell?startDate=yesterday", "admin", "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	env := decode(t, w)
	require.Len(t, env.ErrorSources, 1)
	assert.Equal(t, "startDate", env.ErrorSources[0].Path)
}

func TestCreateSellValidation(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/sell", "admin", `{"pnr":"X1","trip":"single","paymentMethod":"deposit"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	env := decode(t, w)
	assert.Equal(t, "Validation Error", env.Message)
	paths := map[string]bool{}
	for _, s := range env.ErrorSources {
		paths[s.Path] = true
	}
	assert.True(t, paths["date"])
	assert.True(t, paths["bankName"])
	assert.False(t, paths["pnr"])
}

func TestCreateSellIsIdempotent(t *testing.T) {
	h := newHarness(t)

	in := sampleTicket()
	in.ID = ""
	b, err := json.Marshal(in)
	require.NoError(t, err)

	first := h.do(http.MethodPost, "/sell", "admin", string(b), "Idempotency-Key", "k1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := h.do(http.MethodPost, "/sell", "admin", string(b), "Idempotency-Key", "k1")
	require.Equal(t, http.StatusCreated, second.Code)

	assert.Equal(t, 1, h.selling.creates)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "k1", second.Header().Get("Idempotency-Key"))

	env := decode(t, first)
	var created domain.Ticket
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.True(t, created.ProfitPriceAED.Equal(decimal.NewFromInt(100)))
}

func TestCreateSellRejectsKeyInProgress(t *testing.T) {
	h := newHarness(t)
	h.replays.pending["admin@example.com/k2"] = true

	in := sampleTicket()
	in.ID = ""
	b, err := json.Marshal(in)
	require.NoError(t, err)

	w := h.do(http.MethodPost, "/sell", "admin", string(b), "Idempotency-Key", "k2")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, 0, h.selling.creates)
}

func TestUpdateSellPatchesOnlySentFields(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPatch, "/sell/t0", "admin", `{"pnr":"NEW999","sellingPriceAED":1200}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := h.selling.tickets["t0"]
	assert.Equal(t, "NEW999", got.PNR)
	assert.Equal(t, "window seat", got.Remarks)
	assert.True(t, got.ProfitPriceAED.Equal(decimal.NewFromInt(300)))

	w = h.do(http.MethodPatch, "/sell/missing", "admin", `{"pnr":"X"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodPatch, "/sell/t0", "admin", `{"sellingPriceAED":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatistics(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/sell/sell-statistics?timeFilter=last-month", "admin", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, statistics.LastMonth, h.selling.lastStats)
	assert.JSONEq(t,
		`{"totalProfitAED":150,"totalSelling":3,"totalRevenue":0,"totalDue":0}`,
		string(decode(t, w).Data),
	)

	w = h.do(http.MethodGet, "/sell/sell-statistics?timeFilter=forever", "admin", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSlip(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/sell/t0/slip", "admin", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="slip-T0.pdf"`)
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF-"))

	w = h.do(http.MethodGet, "/sell/nope/slip", "admin", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPortalRoutes(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/portal?limit=500", "admin", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 100, decode(t, w).Meta.Limit)

	w = h.do(http.MethodPost, "/portal", "admin", `{"name":"  "}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "name", decode(t, w).ErrorSources[0].Path)

	w = h.do(http.MethodPost, "/portal", "admin", `{"name":"Air Hub"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = h.do(http.MethodDelete, "/portal/p1", "admin", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(http.MethodGet, "/portal/zzz", "admin", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteSell(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodDelete, "/sell/t0", "admin", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success)

	w = h.do(http.MethodDelete, "/sell/t0", "admin", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEtagMatches(t *testing.T) {
	assert.True(t, etagMatches(`"a", W/"b"`, `W/"b"`))
	assert.True(t, etagMatches(`"b"`, `W/"b"`))
	assert.True(t, etagMatches("*", `"x"`))
	assert.False(t, etagMatches("", `"x"`))
	assert.False(t, etagMatches(`"c"`, `"x"`))
}
