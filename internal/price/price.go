// Package price converts between the engine's internal fixed-point cents
// representation (int64) and decimal.Decimal at process boundaries: file
// upload parsing and outbound stream serialization. The matching hot
// path never touches decimal.Decimal - only this package and the
// boundary code that calls it (internal/upload, internal/stream,
// cmd/client) do.
package price

import "github.com/shopspring/decimal"

// Scale is the number of fixed-point digits after the decimal point.
// Every price in the book is rescaled to exactly this many digits, the
// same way the original parser calls rescale(2) on every incoming
// price.
const Scale = 2

// ToCents converts a decimal dollar amount to fixed-point cents,
// rounding to Scale digits first so a value like 10.005 always resolves
// the same way regardless of caller.
func ToCents(d decimal.Decimal) int64 {
	return d.Round(Scale).Shift(Scale).IntPart()
}

// FromCents converts fixed-point cents back to a decimal dollar amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -Scale)
}

// Parse parses a decimal string (e.g. "10.5", "10") into fixed-point
// cents. Returns an error if s is not a valid decimal number.
func Parse(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return ToCents(d), nil
}

// Format renders fixed-point cents as a fixed two-decimal-digit string,
// e.g. 1050 -> "10.50".
func Format(cents int64) string {
	return FromCents(cents).StringFixed(Scale)
}
