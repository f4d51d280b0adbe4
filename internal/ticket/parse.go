package ticket

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNotANumber = errors.New("not a number")
	ErrNotFinite  = errors.New("not a finite number")
)

// ParseAmount coerces a price input. Empty input is zero.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}

	d, err := decimal.NewFromString(raw)
	if err == nil {
		return d, nil
	}
	if f, ferr := strconv.ParseFloat(raw, 64); ferr == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return decimal.Zero, fmt.Errorf("%q: %w", raw, ErrNotFinite)
	}
	return decimal.Zero, fmt.Errorf("%q: %w", raw, ErrNotANumber)
}

// ParsePhone coerces a phone number input. Empty input is zero, which
// validation rejects.
func ParsePhone(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}

	raw = strings.TrimPrefix(raw, "+")
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", raw, ErrNotANumber)
	}
	return n, nil
}
