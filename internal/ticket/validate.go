package ticket

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/sellbook/sellbook/internal/domain"
)

const depositMessage = "Bank name and reference are required for deposit payments"

var requiredMessages = map[string]string{
	FieldDate:          "Date is required",
	FieldPNR:           "PNR is required",
	FieldAirline:       "Airlines name is required",
	FieldTrip:          "Trip type is required",
	FieldDeparture:     "Departure is required",
	FieldArrival:       "Arrival is required",
	FieldPassengerName: "Passenger name is required",
	FieldPhoneNumber:   "Phone number is required",
	FieldPaymentMethod: "Payment method is required",
	FieldPortal:        "Portal is required",
	FieldBankName:      depositMessage,
	FieldBankReference: depositMessage,
}

var fieldLabels = map[string]string{
	FieldBuyingAED:  "Buying price (AED)",
	FieldSellingAED: "Selling price (AED)",
	FieldBuyingBDT:  "Buying price (BDT)",
	FieldSellingBDT: "Selling price (BDT)",
	FieldDueAED:     "Due amount (AED)",
	FieldDueBDT:     "Due amount (BDT)",
}

// Violation is a rule failure attributed to one input field.
type Violation struct {
	Field   string `json:"path"`
	Message string `json:"message"`
}

type Violations []Violation

// Field returns the first message recorded for name.
func (v Violations) Field(name string) (string, bool) {
	for _, x := range v {
		if x.Field == name {
			return x.Message, true
		}
	}
	return "", false
}

func (v Violations) Map() map[string]string {
	out := make(map[string]string, len(v))
	for _, x := range v {
		if _, ok := out[x.Field]; !ok {
			out[x.Field] = x.Message
		}
	}
	return out
}

// ValidationError reports a record that failed local validation. It is
// produced before any network call is made.
type ValidationError struct {
	Violations Violations
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		switch x := field.Interface().(type) {
		case decimal.Decimal:
			return x.InexactFloat64()
		case domain.Date:
			return x.String()
		case domain.PortalRef:
			return x.ID
		}
		return nil
	}, decimal.Decimal{}, domain.Date{}, domain.PortalRef{})

	v.RegisterStructValidation(validateAmounts, domain.Ticket{})

	return v
}

// Amounts are stored as NUMERIC(14, 2). Anything finer or larger would be
// rounded or refused by the database, and the stored profit would no
// longer equal selling minus buying.
const amountScale = 2

var maxAmount = decimal.New(1, 12)

func validateAmounts(sl validator.StructLevel) {
	t := sl.Current().Interface().(domain.Ticket)

	amounts := []struct {
		field, goField string
		v              decimal.Decimal
	}{
		{FieldBuyingAED, "BuyingPriceAED", t.BuyingPriceAED},
		{FieldSellingAED, "SellingPriceAED", t.SellingPriceAED},
		{FieldBuyingBDT, "BuyingPriceBDT", t.BuyingPriceBDT},
		{FieldSellingBDT, "SellingPriceBDT", t.SellingPriceBDT},
		{FieldDueAED, "DuePriceAED", t.DuePriceAED},
		{FieldDueBDT, "DuePriceBDT", t.DuePriceBDT},
	}

	for _, a := range amounts {
		switch {
		case !a.v.Equal(a.v.Round(amountScale)):
			sl.ReportError(a.v, a.field, a.goField, "amount_scale", "")
		case a.v.Abs().GreaterThanOrEqual(maxAmount):
			sl.ReportError(a.v, a.field, a.goField, "amount_max", "")
		}
	}
}

// Validate checks t against the record rules and returns every violation,
// field rules in field order first, then amount precision and range. A nil result means the record may be submitted.
func Validate(t domain.Ticket) Violations {
	err := validate.Struct(t)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Violations{{Message: err.Error()}}
	}

	out := make(Violations, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, Violation{Field: fe.Field(), Message: message(fe)})
	}

	return out
}

func message(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required", "required_if":
		if msg, ok := requiredMessages[field]; ok {
			return msg
		}
	case "gt":
		if field == FieldPhoneNumber {
			return "Phone number must be a positive number"
		}
	case "oneof":
		switch field {
		case FieldTrip:
			return "Trip type must be single or round"
		case FieldPaymentMethod:
			return "Payment method must be cash or deposit"
		}
	case "min":
		if label, ok := fieldLabels[field]; ok {
			return label + " cannot be negative"
		}
	case "amount_scale":
		if label, ok := fieldLabels[field]; ok {
			return fmt.Sprintf("%s can have at most %d decimal places", label, amountScale)
		}
	case "amount_max":
		if label, ok := fieldLabels[field]; ok {
			return label + " must be less than " + maxAmount.StringFixed(0)
		}
	}

	return fmt.Sprintf("%s is invalid", field)
}
