package httpgin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sellbook/sellbook/internal/domain"
	"github.com/sellbook/sellbook/internal/filter"
	"github.com/sellbook/sellbook/internal/service/auth"
	"github.com/sellbook/sellbook/internal/service/portal"
	"github.com/sellbook/sellbook/internal/service/selling"
	"github.com/sellbook/sellbook/internal/ticket"
)

const genericFailure = "Something went wrong!"

// bodyError reports a request body that could not be decoded.
type bodyError struct {
	err error
}

func (e *bodyError) Error() string { return "decode body: " + e.err.Error() }
func (e *bodyError) Unwrap() error { return e.err }

func ok(c *gin.Context, status int, msg string, data any) {
	c.JSON(status, Response{Success: true, Message: msg, Data: data})
}

func okPage(c *gin.Context, msg string, data any, meta domain.Meta) {
	writeJSONWithCache(c, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
		Meta:    &meta,
	}, "private, no-cache", true)
}

func fail(c *gin.Context, status int, msg string, sources ...ErrorSource) {
	if len(sources) == 0 {
		sources = []ErrorSource{{Path: "", Message: msg}}
	}
	c.JSON(status, ErrorResponse{Message: msg, ErrorSources: sources})
}

func badRequest(c *gin.Context, msg string) {
	fail(c, http.StatusBadRequest, msg)
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var (
		ve *ticket.ValidationError
		pe *filter.ParamError
		rl *auth.RateLimitError
		be *bodyError
	)

	switch {
	case errors.As(err, &ve):
		sources := make([]ErrorSource, 0, len(ve.Violations))
		for _, v := range ve.Violations {
			sources = append(sources, ErrorSource{Path: v.Field, Message: v.Message})
		}
		fail(c, http.StatusBadRequest, "Validation Error", sources...)
	case errors.As(err, &be):
		badRequest(c, "Invalid request body: "+be.err.Error())
	case errors.As(err, &pe):
		fail(c, http.StatusBadRequest, pe.Error(), ErrorSource{Path: pe.Param, Message: pe.Message})

	// selling service
	case errors.Is(err, selling.ErrTicketNotFound):
		fail(c, http.StatusNotFound, "Selling record not found")
	case errors.Is(err, selling.ErrPortalNotFound):
		fail(c, http.StatusBadRequest, "Validation Error", ErrorSource{Path: "portal", Message: "Portal does not exist"})

	// portal service
	case errors.Is(err, portal.ErrPortalNotFound):
		fail(c, http.StatusNotFound, "Portal not found")
	case errors.Is(err, portal.ErrPortalInUse):
		fail(c, http.StatusConflict, "Portal still has selling records and cannot be deleted")
	case errors.Is(err, portal.ErrEmptyName):
		fail(c, http.StatusBadRequest, "Validation Error", ErrorSource{Path: "name", Message: "Portal name cannot be empty."})

	// auth service
	case errors.As(err, &rl):
		c.Header("Retry-After", strconv.Itoa(int(rl.RetryAfter.Seconds())+1))
		fail(c, http.StatusTooManyRequests, "Too many login attempts, please try again later")
	case errors.Is(err, auth.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, "Invalid email or password")

	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, genericFailure)
	}
}
