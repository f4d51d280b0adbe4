package httpgin

import (
	"github.com/sellbook/sellbook/internal/domain"
)

// Response is the envelope of every successful reply.
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    any          `json:"data"`
	Meta    *domain.Meta `json:"meta,omitempty"`
	Token   string       `json:"token,omitempty"`
}

type ErrorSource struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ErrorResponse is the envelope of every failed reply.
type ErrorResponse struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message"`
	ErrorSources []ErrorSource `json:"errorSources"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginData struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type PortalRequest struct {
	Name string `json:"name"`
}

// TicketListResponse documents GET /sell.
type TicketListResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    []domain.Ticket `json:"data"`
	Meta    domain.Meta     `json:"meta"`
}

type TicketResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Data    domain.Ticket `json:"data"`
}

type PortalListResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    []domain.Portal `json:"data"`
	Meta    domain.Meta     `json:"meta"`
}

type PortalResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Data    domain.Portal `json:"data"`
}

type StatisticsResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    domain.Statistics `json:"data"`
}

type LoginResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Data    LoginData `json:"data"`
	Token   string    `json:"token"`
}
