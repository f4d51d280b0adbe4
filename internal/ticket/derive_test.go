package ticket

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellbook/sellbook/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validTicket() domain.Ticket {
	return domain.Ticket{
		Date:            domain.NewDate(2024, 3, 14),
		PNR:             "ABC123",
		AirlinesName:    "Emirates",
		Trip:            domain.TripSingle,
		Departure:       "DXB",
		Arrival:         "DAC",
		PassengerName:   "Rahim Uddin",
		PhoneNumber:     971501234567,
		BuyingPriceAED:  dec("1000"),
		SellingPriceAED: dec("1200"),
		BuyingPriceBDT:  dec("30000"),
		SellingPriceBDT: dec("36000"),
		PaymentMethod:   domain.PaymentCash,
		Portal:          domain.PortalRef{ID: "p1"},
	}
}

func TestDeriveProfit(t *testing.T) {
	got := Derive(validTicket())

	assert.True(t, got.ProfitPriceAED.Equal(dec("200")))
	assert.True(t, got.ProfitPriceBDT.Equal(dec("6000")))
	assert.False(t, got.DueStatus)
}

func TestDeriveNegativeProfitIsKept(t *testing.T) {
	in := validTicket()
	in.BuyingPriceAED = dec("1500")
	in.SellingPriceAED = dec("1200")

	got := Derive(in)

	assert.True(t, got.ProfitPriceAED.Equal(dec("-300")))
}

func TestDeriveIgnoresSuppliedDerivedValues(t *testing.T) {
	in := validTicket()
	in.ProfitPriceAED = dec("99999")
	in.DueStatus = true

	got := Derive(in)

	assert.True(t, got.ProfitPriceAED.Equal(dec("200")))
	assert.False(t, got.DueStatus)
}

func TestDeriveDueStatus(t *testing.T) {
	tests := []struct {
		name    string
		dueAED  string
		dueBDT  string
		wantDue bool
	}{
		{"none", "0", "0", false},
		{"aed only", "50", "0", true},
		{"bdt only", "0", "1500", true},
		{"both", "10", "300", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validTicket()
			in.DuePriceAED = dec(tt.dueAED)
			in.DuePriceBDT = dec(tt.dueBDT)

			assert.Equal(t, tt.wantDue, Derive(in).DueStatus)
		})
	}
}

func TestDeriveClearsBankFieldsUnlessDeposit(t *testing.T) {
	in := validTicket()
	in.BankName = "ENBD"
	in.BankReference = "TRX-1"

	cash := Derive(in)
	assert.Empty(t, cash.BankName)
	assert.Empty(t, cash.BankReference)

	in.PaymentMethod = domain.PaymentDeposit
	deposit := Derive(in)
	assert.Equal(t, "ENBD", deposit.BankName)
	assert.Equal(t, "TRX-1", deposit.BankReference)
}

func TestDeriveIsIdempotent(t *testing.T) {
	in := validTicket()
	in.DuePriceBDT = dec("200")
	in.PaymentMethod = domain.PaymentDeposit
	in.BankName = "DBBL"
	in.BankReference = "R-9"

	once := Derive(in)
	twice := Derive(once)

	require.True(t, once.ProfitPriceAED.Equal(twice.ProfitPriceAED))
	require.True(t, once.ProfitPriceBDT.Equal(twice.ProfitPriceBDT))
	assert.Equal(t, once.DueStatus, twice.DueStatus)
	assert.Equal(t, once.BankName, twice.BankName)
	assert.Equal(t, once.BankReference, twice.BankReference)
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	d, err = ParseAmount(" 12.50 ")
	require.NoError(t, err)
	assert.True(t, d.Equal(dec("12.5")))

	_, err = ParseAmount("abc")
	assert.ErrorIs(t, err, ErrNotANumber)

	_, err = ParseAmount("NaN")
	assert.ErrorIs(t, err, ErrNotFinite)

	_, err = ParseAmount("Inf")
	assert.ErrorIs(t, err, ErrNotFinite)

	for _, raw := range []string{"0x10", "0x1p4", "1_000"} {
		_, err = ParseAmount(raw)
		assert.ErrorIs(t, err, ErrNotANumber, raw)
	}
}

func TestParsePhone(t *testing.T) {
	n, err := ParsePhone("+8801712345678")
	require.NoError(t, err)
	assert.Equal(t, int64(8801712345678), n)

	n, err = ParsePhone("")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = ParsePhone("017-1234")
	assert.ErrorIs(t, err, ErrNotANumber)
}
