package ticket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellbook/sellbook/internal/domain"
)

func fillValid(t *testing.T, f *Form) {
	t.Helper()

	inputs := map[string]string{
		FieldDate:          "2024-03-14",
		FieldPNR:           "ABC123",
		FieldAirline:       "Emirates",
		FieldDeparture:     "DXB",
		FieldArrival:       "DAC",
		FieldPassengerName: "Rahim Uddin",
		FieldPhoneNumber:   "971501234567",
		FieldBuyingAED:     "1000",
		FieldSellingAED:    "1200",
		FieldPortal:        "p1",
	}
	for _, field := range fieldOrder {
		if raw, ok := inputs[field]; ok {
			require.NoError(t, f.Set(field, raw))
		}
	}
}

func TestNewFormDefaults(t *testing.T) {
	f := NewForm()

	assert.Equal(t, Untouched, f.State())
	assert.Equal(t, ModeCreate, f.Mode())
	assert.Equal(t, domain.TripSingle, f.Preview().Trip)
	assert.Equal(t, domain.PaymentCash, f.Preview().PaymentMethod)
}

func TestFormTransitions(t *testing.T) {
	f := NewForm()

	var seen []State
	f.OnTransition = func(_, to State) { seen = append(seen, to) }

	require.NoError(t, f.Set(FieldPNR, "ABC123"))
	assert.Equal(t, Invalid, f.State())
	assert.Equal(t, []State{Editing, Invalid}, seen)

	fillValid(t, f)
	assert.Equal(t, Valid, f.State())
	assert.Empty(t, f.Errors())
}

func TestFormSubmitInvalidReturnsValidationError(t *testing.T) {
	f := NewForm()

	_, err := f.Submit()

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	_, ok := ve.Violations.Field(FieldPNR)
	assert.True(t, ok)
	assert.Equal(t, Invalid, f.State())
}

func TestFormSubmitDerives(t *testing.T) {
	f := NewForm()
	fillValid(t, f)
	require.NoError(t, f.Set(FieldDueBDT, "500"))

	got, err := f.Submit()

	require.NoError(t, err)
	assert.True(t, got.ProfitPriceAED.Equal(dec("200")))
	assert.True(t, got.DueStatus)
}

func TestFormPaymentChangeRevalidatesBankFields(t *testing.T) {
	f := NewForm()
	fillValid(t, f)
	require.Equal(t, Valid, f.State())

	require.NoError(t, f.Set(FieldPaymentMethod, "deposit"))
	assert.Equal(t, Invalid, f.State())
	assert.Equal(t, depositMessage, f.Error(FieldBankName))

	require.NoError(t, f.Set(FieldBankName, "ENBD"))
	require.NoError(t, f.Set(FieldBankReference, "TRX-1"))
	assert.Equal(t, Valid, f.State())

	require.NoError(t, f.Set(FieldPaymentMethod, "cash"))
	got, err := f.Submit()
	require.NoError(t, err)
	assert.Empty(t, got.BankName)
	assert.Empty(t, got.BankReference)
}

func TestFormCoercionErrors(t *testing.T) {
	f := NewForm()
	fillValid(t, f)

	require.NoError(t, f.Set(FieldSellingAED, "12,5x"))
	assert.Equal(t, Invalid, f.State())
	assert.Equal(t, "Selling price (AED) must be a number", f.Error(FieldSellingAED))

	require.NoError(t, f.Set(FieldSellingAED, "1250"))
	assert.Equal(t, Valid, f.State())
}

func TestFormRejectsDerivedAndUnknownFields(t *testing.T) {
	f := NewForm()

	assert.ErrorIs(t, f.Set("profitPriceAED", "10"), ErrDerivedField)
	assert.ErrorIs(t, f.Set("seat", "1A"), ErrUnknownField)
	assert.Equal(t, Untouched, f.State())
}

func TestEditFormKeepsID(t *testing.T) {
	existing := Derive(validTicket())
	existing.ID = "t-1"

	f := EditForm(existing)
	require.NoError(t, f.Set(FieldRemarks, "rebooked"))

	got, err := f.Submit()
	require.NoError(t, err)
	assert.Equal(t, "t-1", got.ID)
	assert.Equal(t, "rebooked", got.Remarks)

	f.Reset()
	assert.Equal(t, Untouched, f.State())
	assert.Empty(t, f.Preview().Remarks)
}
