// Package ticket holds the rules for a single resale record: derived
// fields, input coercion, validation and the entry form lifecycle.
package ticket

import (
	"github.com/sellbook/sellbook/internal/domain"
)

// Derive returns t with profit, due status and bank fields recomputed from
// the price and payment inputs. Values already present in the derived
// fields are ignored, so calling Derive twice yields the same record.
func Derive(t domain.Ticket) domain.Ticket {
	t.ProfitPriceAED = t.SellingPriceAED.Sub(t.BuyingPriceAED)
	t.ProfitPriceBDT = t.SellingPriceBDT.Sub(t.BuyingPriceBDT)
	t.DueStatus = t.DuePriceAED.IsPositive() || t.DuePriceBDT.IsPositive()

	if t.PaymentMethod != domain.PaymentDeposit {
		t.BankName = ""
		t.BankReference = ""
	}

	return t
}
