package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers on the wire.
	decimal.MarshalJSONWithoutQuotes = true
}

type Trip string

const (
	TripSingle Trip = "single"
	TripRound  Trip = "round"
)

type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "cash"
	PaymentDeposit PaymentMethod = "deposit"
)

// RoleSuperAdmin is the only role allowed into the back office.
const RoleSuperAdmin = "superAdmin"

type Portal struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Ticket is one resale leg. Profit and due status are derived from the
// price fields and are never taken from input as-is.
type Ticket struct {
	ID              string          `json:"_id,omitempty"`
	Date            Date            `json:"date" validate:"required" swaggertype:"string" example:"2024-05-01"`
	PNR             string          `json:"pnr" validate:"required"`
	AirlinesName    string          `json:"AirlinesName" validate:"required"`
	Trip            Trip            `json:"trip" validate:"required,oneof=single round" swaggertype:"string"`
	Departure       string          `json:"departure" validate:"required"`
	Arrival         string          `json:"arrival" validate:"required"`
	PassengerName   string          `json:"passengerName" validate:"required"`
	PhoneNumber     int64           `json:"phoneNumber" validate:"required,gt=0"`
	BuyingPriceAED  decimal.Decimal `json:"buyingPriceAED" validate:"min=0" swaggertype:"number"`
	SellingPriceAED decimal.Decimal `json:"sellingPriceAED" validate:"min=0" swaggertype:"number"`
	ProfitPriceAED  decimal.Decimal `json:"profitPriceAED" swaggertype:"number"`
	BuyingPriceBDT  decimal.Decimal `json:"buyingPriceBDT" validate:"min=0" swaggertype:"number"`
	SellingPriceBDT decimal.Decimal `json:"sellingPriceBDT" validate:"min=0" swaggertype:"number"`
	ProfitPriceBDT  decimal.Decimal `json:"profitPriceBDT" swaggertype:"number"`
	DuePriceAED     decimal.Decimal `json:"duePriceAED" validate:"min=0" swaggertype:"number"`
	DuePriceBDT     decimal.Decimal `json:"duePriceBDT" validate:"min=0" swaggertype:"number"`
	DueStatus       bool            `json:"dueStatus"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" validate:"required,oneof=cash deposit" swaggertype:"string"`
	BankName        string          `json:"bankName,omitempty" validate:"required_if=PaymentMethod deposit"`
	BankReference   string          `json:"bankReference,omitempty" validate:"required_if=PaymentMethod deposit"`
	Remarks         string          `json:"remarks"`
	Portal          PortalRef       `json:"portal" validate:"required" swaggertype:"string"` // portal id; responses carry {_id, name}
	CreatedAt       time.Time       `json:"createdAt,omitzero"`
	UpdatedAt       time.Time       `json:"updatedAt,omitzero"`
}

type Meta struct {
	Page      int `json:"page"`
	Limit     int `json:"limit"`
	Total     int `json:"total"`
	TotalPage int `json:"totalPage"`
}

// NewMeta computes the page count for a total.
func NewMeta(page, limit, total int) Meta {
	m := Meta{Page: page, Limit: limit, Total: total}
	if limit > 0 {
		m.TotalPage = (total + limit - 1) / limit
	}
	return m
}

// Statistics holds the aggregate totals for a time window. Monetary
// totals are in AED; TotalSelling is a ticket count.
type Statistics struct {
	TotalProfitAED decimal.Decimal `json:"totalProfitAED" swaggertype:"number"`
	TotalSelling   int64           `json:"totalSelling"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue" swaggertype:"number"`
	TotalDue       decimal.Decimal `json:"totalDue" swaggertype:"number"`
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// TicketQuery is the decoded form of the ticket list query parameters.
type TicketQuery struct {
	Page          int
	Limit         int
	StartDate     *time.Time
	EndDate       *time.Time
	PNR           string
	Airline       string
	Trip          Trip
	Departure     string
	Arrival       string
	PassengerName string
	PhoneNumber   string
	PaymentMethod PaymentMethod
	BankName      string
	BankReference string
	PortalName    string
	SearchTerm    string
	DueStatus     *bool
	SortField     string
	SortDesc      bool
}

type PortalQuery struct {
	Page       int
	Limit      int
	SearchTerm string
}
