// Package money converts between decimal amount strings and integer minor
// units (paise). The ledger engine works exclusively in minor units; decimal
// values exist only at the HTTP boundary.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in minor units (1/100 of the major unit).
type Amount = int64

// exponent is the number of decimal places in the major unit.
const exponent = 2

// Parse converts a decimal string like "650.00" or "12.5" into minor units.
// It rejects amounts with sub-minor-unit precision ("1.005") rather than
// rounding them, so no value can enter the ledger that the ledger cannot
// represent exactly.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	minor := d.Shift(exponent)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("amount %q has more than %d decimal places", s, exponent)
	}
	if !minor.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %q out of range", s)
	}
	return minor.IntPart(), nil
}

// Format renders minor units as a decimal string with exactly two decimal
// places, e.g. 12345 -> "123.45".
func Format(a Amount) string {
	return decimal.New(a, -exponent).StringFixed(exponent)
}
