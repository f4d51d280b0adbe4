package httpgin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/sellbook/sellbook/internal/domain"
	"github.com/sellbook/sellbook/internal/filter"
	redisrepo "github.com/sellbook/sellbook/internal/repository/redis"
	"github.com/sellbook/sellbook/internal/session"
	"github.com/sellbook/sellbook/internal/slip"
	"github.com/sellbook/sellbook/internal/statistics"
)

type SellingService interface {
	List(ctx context.Context, q domain.TicketQuery) ([]domain.Ticket, domain.Meta, error)
	Get(ctx context.Context, id string) (domain.Ticket, error)
	Create(ctx context.Context, t domain.Ticket) (domain.Ticket, error)
	Update(ctx context.Context, id string, apply func(*domain.Ticket) error) (domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	Statistics(ctx context.Context, w statistics.Window) (domain.Statistics, error)
	Slip(ctx context.Context, id string) ([]byte, domain.Ticket, error)
}

type PortalService interface {
	List(ctx context.Context, q domain.PortalQuery) ([]domain.Portal, domain.Meta, error)
	Get(ctx context.Context, id string) (domain.Portal, error)
	Create(ctx context.Context, name string) (domain.Portal, error)
	Rename(ctx context.Context, id, name string) (domain.Portal, error)
	Delete(ctx context.Context, id string) error
}

type TokenVerifier interface {
	Verify(raw string) (*session.Claims, error)
}

type AuthService interface {
	TokenVerifier
	Login(ctx context.Context, email, password, client string) (string, domain.User, error)
}

// CreateReplays remembers ticket creates sent with an Idempotency-Key.
type CreateReplays interface {
	Claim(ctx context.Context, subject, key string) (redisrepo.ReplayState, redisrepo.Replay, error)
	Finish(ctx context.Context, subject, key string, rep redisrepo.Replay) error
	Abandon(ctx context.Context, subject, key string) error
}

type Services struct {
	Selling SellingService
	Portal  PortalService
	Auth    AuthService

	// Ready backs /readyz. Nil reports ready.
	Ready func(ctx context.Context) error
}

const (
	defaultPortalLimit = 10
	maxBodyBytes       = 1 << 20
)

func NewRouter(
	svcs Services,
	replays CreateReplays,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), RequestIDMiddleware(), LoggingMiddleware(logger), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if svcs.Ready != nil {
			if err := svcs.Ready(c.Request.Context()); err != nil {
				logger.Warn("readiness check failed", "error", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/auth/login", handleLogin(svcs))

	api := r.Group("/", Authenticate(svcs.Auth), RequireRole(domain.RoleSuperAdmin))

	portals := api.Group("/portal")
	{
		portals.GET("", handleListPortals(svcs))
		portals.GET("/:id", handleGetPortal(svcs))
		portals.POST("", handleCreatePortal(svcs))
		portals.PATCH("/:id", handleUpdatePortal(svcs))
		portals.DELETE("/:id", handleDeletePortal(svcs))
	}

	sells := api.Group("/sell")
	{
		sells.GET("", handleListSells(svcs))
		sells.GET("/sell-statistics", handleStatistics(svcs))
		sells.GET("/:id", handleGetSell(svcs))
		sells.GET("/:id/slip", handleSlip(svcs))
		sells.POST("", handleCreateSell(svcs, replays, logger))
		sells.PATCH("/:id", handleUpdateSell(svcs))
		sells.DELETE("/:id", handleDeleteSell(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Log in
// @Tags     auth
// @Param    req body  LoginRequest true "credentials"
// @Success  200 {object} LoginResponse
// @Failure  401 {object} ErrorResponse
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /auth/login [post]
func handleLogin(svcs Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Email and password are required")
			return
		}

		token, u, err := svcs.Auth.Login(
			c.Request.Context(),
			req.Email,
			req.Password,
			c.ClientIP(),
		)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, Response{
			Success: true,
			Message: "User is logged in successfully!",
			Data:    LoginData{Email: u.Email, Role: u.Role},
			Token:   token,
		})
	}
}

// @Summary  List portals
// @Tags     portal
// @Security BearerAuth
// @Param    page        query int    false "page"
// @Param    limit       query int    false "page size"
// @Param    searchTerm  query string false "name contains"
// @Success  200 {object} PortalListResponse
// @Router   /portal [get]
func handleListPortals(svcs Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := portalQuery(c)
		if err != nil {
			respondErr(c, err)
			return
		}

		items, meta, err := svcs.Portal.List(c.Request.Context(), q)
		if err != nil {
			respondErr(c, err)
			return
		}

		okPage(c, "Portals retrieved successfully!", items, meta)
	}
}

// @Summary  Get portal
// @Tags     portal
// @Security BearerAuth
// @Param    id path string true "Portal ID"
// @Success  200 {object} PortalResponse
// @Failure  404 {object} ErrorResponse
// @Router   /portal/{id} [get]
func handleGetPortal(svcs Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svcs.Portal.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}

		ok(c, http.StatusOK, "Portal retrieved successfully!", p)
	}
}

// @Summary  Create portal
// @Tags     portal
// @Security BearerAuth
// @Param    req body PortalRequest true "payload"
// @Success  201 {object} PortalResponse
// @Failure  400 {object} ErrorResponse
// @Router   /portal [post]
func handleCreatePortal(svcs Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PortalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body")
			return
		}

		p, err := svcs.Portal.Create(c.Request.Context(), req.Name)
		if err != nil {
			respondErr(c, err)
			return
		}

		ok(c, http.StatusCreated, "Portal created successfully!", p)
	}
}

// @Summary  Rename portal
// @Tags     portal
// @Security BearerAuth
// @Param    id  path string        true "Portal ID"
// @Param    req body PortalRequest true "payload"
// @Success  200 {object} PortalResponse
// @Failure  404 {object} ErrorResponse
// @Router   /portal/{id} [patch]
func handleUpdatePortal(svcs Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PortalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body")
			return
		}

		p, err := svcs.Portal.Rename(c.Request.Context(), c.Param("id"), req.Name)
		if err != nil {
			respondErr(c, err)
			return
		}

		ok(c, http.StatusOK, "Portal updated successfully!", p)
	}
}

// @Summary  Delete portal
// @Tags     portal
// @Security BearerAuth
// @Param    id path string true "Portal ID"
// @Success  200 {object} Response
// @Failure  409 {object} ErrorResponse "selling records still reference it"
// @Router   /portal/{id} [delete]
func handleDeletePortal(svcs Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Portal.Delete(c.Request.Context(), c.Param("id")); err != nil {
			respondErr(c, err)
			return
		}

		ok(c, http.StatusOK, "Portal deleted successfully!", nil)
	}
}

// @Summary  List selling records
// @Tags     sell
// @Security BearerAuth
// @Param    page           query int    false "page"
// @Param    limit          query int    false "page size"
// @Param    startDate      query string false "YYYY-MM-DD"
// @Param    endDate        query string false "YYYY-MM-DD"
// @Param    airline        query string false "airline contains"
// @Param    trip           query string false "single|round"
// @Param    paymentMethod  query string false "cash|deposit"
// @Param    dueStatus      query bool   false "only records with (or without) dues"
// @Param    searchTerm     query string false "free text"
// @Param    sort           query string false "field, prefix - for descending"
// @Success  200 {object} TicketListResponse
// @Failure  400 {object} ErrorResponse
// @Router   /sell [get]
func handleListSells(svcs Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := filter.Decode(c.Request.URL.Query())
		if err != nil {
			respondErr(c, err)
			return
		}

		items, meta, err := svcs.Selling.List(c.Request.Context(), q)
		if err != nil {
			respondErr(c, err)
			return
		}

		okPage(c, "Selling records retrieved successfully!", items, meta)
	}
}

// @Summary  Selling statistics
// @Tags     sell
// @Security BearerAuth
// @Param    timeFilter query string false "last-7-days|this-week|last-month|last-6-months|last-year"
// @Success  200 {object} StatisticsResponse
// @Failure  400 {object} ErrorResponse
// @Router   /sell/sell-statistics [get]
func handleStatistics(svcs Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, err := statistics.ParseWindow(c.Query(statistics.Param))
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid time filter",
				ErrorSource{Path: statistics.Param, Message: err.Error()})
			return
		}

		stats, err := svcs.Selling.Statistics(c.Request.Context(), w)
		if err != nil {
			respondErr(c, err)
			return
		}

		writeJSONWithCache(c, http.StatusOK, Response{
			Success: true,
			Message: "Selling statistics retrieved successfully!",
			Data:    stats,
		}, "private, no-cache", true)
	}
}

// @Summary  Get selling record
// @Tags     sell
// @Security BearerAuth
// @Param    id path string true "Record ID"
// @Success  200 {object} TicketResponse
// @Failure  404 {object} ErrorResponse
// @Router   /sell/{id} [get]
func handleGetSell(svcs Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := svcs.Selling.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}

		writeJSONWithCache(c, http.StatusOK, Response{
			Success: true,
			Message: "Selling record retrieved successfully!",
			Data:    t,
		}, "private, no-cache", true)
	}
}

// @Summary  Payment slip
// @Tags     sell
// @Security BearerAuth
// @Produce  application/pdf
// @Param    id path string true "Record ID"
// @Success  200 {file} file
// @Failure  404 {object} ErrorResponse
// @Router   /sell/{id}/slip [get]
func handleSlip(svcs Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		pdf, t, err := svcs.Selling.Slip(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}

		c.Header("Content-Disposition",
			fmt.Sprintf(`attachment; filename="slip-%s.pdf"`, slip.InvoiceID(t.ID)))
		c.Data(http.StatusOK, "application/pdf", pdf)
	}
}

// @Summary  Create selling record (idempotent)
// @Tags     sell
// @Security BearerAuth
// @Param    req body domain.Ticket true "record; derived fields are recomputed"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} TicketResponse
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "idempotency key in progress"
// @Router   /sell [post]
func handleCreateSell(svcs Services, replays CreateReplays, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in domain.Ticket
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "Invalid request body: "+err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		if replays == nil || idemKey == "" {
			t, err := svcs.Selling.Create(c.Request.Context(), in)
			if err != nil {
				respondErr(c, err)
				return
			}
			ok(c, http.StatusCreated, "Selling record created successfully!", t)
			return
		}

		subject := ""
		if claims := claimsFrom(c); claims != nil {
			subject = claims.Email
		}

		state, rep, err := replays.Claim(c.Request.Context(), subject, idemKey)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Header("Idempotency-Key", idemKey)

		switch state {
		case redisrepo.ReplayDone:
			c.Data(rep.Status, "application/json; charset=utf-8", rep.Body)
			return
		case redisrepo.ReplayPending:
			c.Header("Retry-After", "1")
			fail(c, http.StatusConflict, "A request with this Idempotency-Key is in progress")
			return
		}

		t, err := svcs.Selling.Create(c.Request.Context(), in)
		if err != nil {
			if err := replays.Abandon(c.Request.Context(), subject, idemKey); err != nil {
				logger.Warn("idempotency key release failed", "key", idemKey, "error", err)
			}
			respondErr(c, err)
			return
		}

		body, err := json.Marshal(Response{Success: true, Message: "Selling record created successfully!", Data: t})
		if err != nil {
			respondErr(c, err)
			return
		}
		if err := replays.Finish(c.Request.Context(), subject, idemKey, redisrepo.Replay{Status: http.StatusCreated, Body: body}); err != nil {
			logger.Warn("idempotency result save failed", "key", idemKey, "error", err)
		}

		c.Data(http.StatusCreated, "application/json; charset=utf-8", body)
	}
}

// @Summary  Update selling record
// @Tags     sell
// @Security BearerAuth
// @Param    id  path string        true "Record ID"
// @Param    req body domain.Ticket true "fields to change"
// @Success  200 {object} TicketResponse
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse
// @Router   /sell/{id} [patch]
func handleUpdateSell(svcs Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
		if err != nil || !json.Valid(body) {
			badRequest(c, "Invalid request body")
			return
		}

		t, err := svcs.Selling.Update(c.Request.Context(), c.Param("id"), func(t *domain.Ticket) error {
			if err := json.Unmarshal(body, t); err != nil {
				return &bodyError{err: err}
			}
			return nil
		})
		if err != nil {
			respondErr(c, err)
			return
		}

		ok(c, http.StatusOK, "Selling record updated successfully!", t)
	}
}

// @Summary  Delete selling record
// @Tags     sell
// @Security BearerAuth
// @Param    id path string true "Record ID"
// @Success  200 {object} Response
// @Failure  404 {object} ErrorResponse
// @Router   /sell/{id} [delete]
func handleDeleteSell(svcs Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Selling.Delete(c.Request.Context(), c.Param("id")); err != nil {
			respondErr(c, err)
			return
		}

		ok(c, http.StatusOK, "Selling record deleted successfully!", nil)
	}
}

// --- Helpers ---

func portalQuery(c *gin.Context) (domain.PortalQuery, error) {
	q := domain.PortalQuery{
		Page:       1,
		Limit:      defaultPortalLimit,
		SearchTerm: strings.TrimSpace(c.Query("searchTerm")),
	}

	var err error
	if q.Page, err = positiveIntQuery(c, filter.ParamPage, 1); err != nil {
		return q, err
	}
	if q.Limit, err = positiveIntQuery(c, filter.ParamLimit, defaultPortalLimit); err != nil {
		return q, err
	}
	if q.Limit > filter.MaxLimit {
		q.Limit = filter.MaxLimit
	}

	return q, nil
}

func positiveIntQuery(c *gin.Context, name string, def int) (int, error) {
	s := strings.TrimSpace(c.Query(name))
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, &filter.ParamError{Param: name, Message: "must be a positive integer"}
	}
	return v, nil
}
