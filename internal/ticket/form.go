package ticket

import (
	"errors"
	"fmt"

	"github.com/sellbook/sellbook/internal/domain"
)

// Input field names, matching the record's JSON keys.
const (
	FieldDate          = "date"
	FieldPNR           = "pnr"
	FieldAirline       = "AirlinesName"
	FieldTrip          = "trip"
	FieldDeparture     = "departure"
	FieldArrival       = "arrival"
	FieldPassengerName = "passengerName"
	FieldPhoneNumber   = "phoneNumber"
	FieldBuyingAED     = "buyingPriceAED"
	FieldSellingAED    = "sellingPriceAED"
	FieldBuyingBDT     = "buyingPriceBDT"
	FieldSellingBDT    = "sellingPriceBDT"
	FieldDueAED        = "duePriceAED"
	FieldDueBDT        = "duePriceBDT"
	FieldPaymentMethod = "paymentMethod"
	FieldBankName      = "bankName"
	FieldBankReference = "bankReference"
	FieldRemarks       = "remarks"
	FieldPortal        = "portal"
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrDerivedField = errors.New("field is derived and cannot be set")
)

type State int

const (
	Untouched State = iota
	Editing
	Invalid
	Valid
)

func (s State) String() string {
	switch s {
	case Untouched:
		return "untouched"
	case Editing:
		return "editing"
	case Invalid:
		return "invalid"
	case Valid:
		return "valid"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

// Form tracks one record being entered or edited. Every change runs the
// full rule set again, so a change to one field can clear or raise an
// error on another.
type Form struct {
	mode     Mode
	initial  domain.Ticket
	t        domain.Ticket
	state    State
	coercion map[string]string
	errs     Violations

	// OnTransition, when set, is called on every state change.
	OnTransition func(from, to State)
}

// NewForm returns an empty create form with the default trip and payment
// method selected.
func NewForm() *Form {
	return &Form{
		mode:    ModeCreate,
		initial: blank(),
		t:       blank(),
	}
}

// EditForm returns a form preloaded with an existing record.
func EditForm(t domain.Ticket) *Form {
	return &Form{
		mode:    ModeEdit,
		initial: t,
		t:       t,
	}
}

func blank() domain.Ticket {
	return domain.Ticket{
		Trip:          domain.TripSingle,
		PaymentMethod: domain.PaymentCash,
	}
}

func (f *Form) Mode() Mode   { return f.mode }
func (f *Form) State() State { return f.state }
func (f *Form) ID() string   { return f.t.ID }
func (f *Form) Dirty() bool  { return f.state != Untouched }

func (f *Form) Errors() Violations {
	out := make(Violations, len(f.errs))
	copy(out, f.errs)
	return out
}

// Error returns the message shown next to field, if any.
func (f *Form) Error(field string) string {
	msg, _ := f.errs.Field(field)
	return msg
}

// Preview returns the record as it would be submitted, with derived
// fields computed from the current inputs.
func (f *Form) Preview() domain.Ticket {
	return Derive(f.t)
}

// Set coerces raw into field and revalidates the record.
func (f *Form) Set(field, raw string) error {
	if err := f.apply(field, raw); err != nil {
		return err
	}

	f.transition(Editing)
	f.revalidate()
	return nil
}

func (f *Form) apply(field, raw string) error {
	if f.coercion == nil {
		f.coercion = make(map[string]string)
	}
	delete(f.coercion, field)

	switch field {
	case FieldDate:
		if raw == "" {
			f.t.Date = domain.Date{}
			return nil
		}
		d, err := domain.ParseDate(raw)
		if err != nil {
			f.coercion[field] = "Date is invalid"
			f.t.Date = domain.Date{}
			return nil
		}
		f.t.Date = d
	case FieldPNR:
		f.t.PNR = raw
	case FieldAirline:
		f.t.AirlinesName = raw
	case FieldTrip:
		f.t.Trip = domain.Trip(raw)
	case FieldDeparture:
		f.t.Departure = raw
	case FieldArrival:
		f.t.Arrival = raw
	case FieldPassengerName:
		f.t.PassengerName = raw
	case FieldPhoneNumber:
		n, err := ParsePhone(raw)
		if err != nil {
			f.coercion[field] = "Phone number must be a number"
		}
		f.t.PhoneNumber = n
	case FieldBuyingAED, FieldSellingAED, FieldBuyingBDT, FieldSellingBDT, FieldDueAED, FieldDueBDT:
		amount, err := ParseAmount(raw)
		if err != nil {
			f.coercion[field] = fieldLabels[field] + " must be a number"
		}
		switch field {
		case FieldBuyingAED:
			f.t.BuyingPriceAED = amount
		case FieldSellingAED:
			f.t.SellingPriceAED = amount
		case FieldBuyingBDT:
			f.t.BuyingPriceBDT = amount
		case FieldSellingBDT:
			f.t.SellingPriceBDT = amount
		case FieldDueAED:
			f.t.DuePriceAED = amount
		case FieldDueBDT:
			f.t.DuePriceBDT = amount
		}
	case FieldPaymentMethod:
		f.t.PaymentMethod = domain.PaymentMethod(raw)
	case FieldBankName:
		f.t.BankName = raw
	case FieldBankReference:
		f.t.BankReference = raw
	case FieldRemarks:
		f.t.Remarks = raw
	case FieldPortal:
		f.t.Portal = domain.PortalRef{ID: raw}
	case "profitPriceAED", "profitPriceBDT", "dueStatus":
		return fmt.Errorf("%s: %w", field, ErrDerivedField)
	default:
		return fmt.Errorf("%s: %w", field, ErrUnknownField)
	}

	return nil
}

func (f *Form) revalidate() {
	var errs Violations
	for _, field := range fieldOrder {
		if msg, ok := f.coercion[field]; ok {
			errs = append(errs, Violation{Field: field, Message: msg})
		}
	}

	for _, v := range Validate(f.t) {
		if _, coerced := f.coercion[v.Field]; coerced {
			continue
		}
		errs = append(errs, v)
	}

	f.errs = errs
	if len(errs) == 0 {
		f.transition(Valid)
	} else {
		f.transition(Invalid)
	}
}

var fieldOrder = []string{
	FieldDate, FieldPNR, FieldAirline, FieldTrip, FieldDeparture, FieldArrival,
	FieldPassengerName, FieldPhoneNumber, FieldBuyingAED, FieldSellingAED,
	FieldBuyingBDT, FieldSellingBDT, FieldDueAED, FieldDueBDT, FieldPaymentMethod,
	FieldBankName, FieldBankReference, FieldRemarks, FieldPortal,
}

// Submit validates the record and returns it with derived fields
// recomputed. An invalid record yields a *ValidationError and no record.
func (f *Form) Submit() (domain.Ticket, error) {
	if f.state == Untouched || f.state == Editing {
		f.revalidate()
	}

	if f.state == Invalid {
		return domain.Ticket{}, &ValidationError{Violations: f.Errors()}
	}

	return Derive(f.t), nil
}

// Reset discards edits and returns the form to its initial record.
func (f *Form) Reset() {
	f.t = f.initial
	f.coercion = nil
	f.errs = nil
	f.transition(Untouched)
}

func (f *Form) transition(to State) {
	from := f.state
	f.state = to
	if from != to && f.OnTransition != nil {
		f.OnTransition(from, to)
	}
}
