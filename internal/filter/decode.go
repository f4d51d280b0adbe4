package filter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sellbook/sellbook/internal/domain"
)

const MaxLimit = 100

// SortFields lists the columns a ticket list may be ordered by.
var SortFields = []string{
	"date",
	"createdAt",
	"buyingPriceAED",
	"sellingPriceAED",
	"profitPriceAED",
	"duePriceAED",
}

// ParamError reports a query parameter that could not be read.
type ParamError struct {
	Param   string
	Message string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid query parameter %s: %s", e.Param, e.Message)
}

// Decode reads a ticket list query. It accepts the parameters Translate
// produces, plus AirlinesName as an alias of airline.
func Decode(v url.Values) (domain.TicketQuery, error) {
	q := domain.TicketQuery{
		Page:  1,
		Limit: DefaultLimit,
	}

	var err error
	if q.Page, err = positiveInt(v, ParamPage, 1); err != nil {
		return q, err
	}
	if q.Limit, err = positiveInt(v, ParamLimit, DefaultLimit); err != nil {
		return q, err
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}

	if q.StartDate, err = date(v, "startDate"); err != nil {
		return q, err
	}
	if q.EndDate, err = date(v, "endDate"); err != nil {
		return q, err
	}

	q.PNR = get(v, "pnr")
	q.Airline = get(v, "airline")
	if q.Airline == "" {
		q.Airline = get(v, "AirlinesName")
	}
	q.Departure = get(v, "departure")
	q.Arrival = get(v, "arrival")
	q.PassengerName = get(v, "passengerName")
	q.PhoneNumber = get(v, "phoneNumber")
	q.BankName = get(v, "bankName")
	q.BankReference = get(v, "bankReference")
	q.PortalName = get(v, "portalName")
	q.SearchTerm = get(v, "searchTerm")

	switch trip := get(v, "trip"); trip {
	case "", All:
	case string(domain.TripSingle), string(domain.TripRound):
		q.Trip = domain.Trip(trip)
	default:
		return q, &ParamError{Param: "trip", Message: "must be single or round"}
	}

	switch pm := get(v, "paymentMethod"); pm {
	case "", All:
	case string(domain.PaymentCash), string(domain.PaymentDeposit):
		q.PaymentMethod = domain.PaymentMethod(pm)
	default:
		return q, &ParamError{Param: "paymentMethod", Message: "must be cash or deposit"}
	}

	if raw := get(v, "dueStatus"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return q, &ParamError{Param: "dueStatus", Message: "must be true or false"}
		}
		q.DueStatus = &b
	}

	if raw := get(v, ParamSort); raw != "" {
		field := strings.TrimPrefix(raw, "-")
		if !validSort(field) {
			return q, &ParamError{Param: ParamSort, Message: "unsupported sort field " + field}
		}
		q.SortField = field
		q.SortDesc = strings.HasPrefix(raw, "-")
	}

	return q, nil
}

func get(v url.Values, name string) string {
	return strings.TrimSpace(v.Get(name))
}

func positiveInt(v url.Values, name string, def int) (int, error) {
	raw := get(v, name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, &ParamError{Param: name, Message: "must be a positive integer"}
	}
	return n, nil
}

func date(v url.Values, name string) (*time.Time, error) {
	raw := get(v, name)
	if raw == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return nil, &ParamError{Param: name, Message: "must be a date (YYYY-MM-DD)"}
	}
	return &d.Time, nil
}

func validSort(field string) bool {
	for _, f := range SortFields {
		if f == field {
			return true
		}
	}
	return false
}
