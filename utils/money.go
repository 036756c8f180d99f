package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a currency value held in exact decimal arithmetic. It always
// serializes with exactly two decimal places ("4500.00"); shopspring's own
// String/MarshalJSON trim trailing zeros, which would break the 2-decimal
// response contract.
type Amount struct {
	decimal.Decimal
}

// NewAmount rounds d to 2 decimal places (half away from zero), matching
// the numeric(12,2) columns.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{d.Round(2)}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.StringFixed(2) + `"`), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.Decimal.UnmarshalJSON(data)
}

// ParseAmount parses a decimal currency amount from its string form.
func ParseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}
