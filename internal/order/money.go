// ABOUTME: Money parsing and formatting on shopspring/decimal
// ABOUTME: Accepts comma or dot as the decimal separator and renders two places

package order

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when text cannot be read as a non-negative amount.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount reads a customer-typed amount such as "50", "50,00" or "17.5".
// The first comma is treated as the decimal separator. Amounts are rounded to cents.
func ParseAmount(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	s = strings.Replace(s, ",", ".", 1)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative value %q", ErrInvalidAmount, text)
	}
	return d.Round(2), nil
}

// FormatMoney renders an amount with the currency prefix and two decimals, e.g. "R$17.50".
func FormatMoney(currency string, d decimal.Decimal) string {
	return currency + d.StringFixed(2)
}
