// Package numeric wraps the decimal helpers shared by every pricing path.
// All price/quantity math in this module goes through shopspring/decimal;
// binary floating point is only allowed at the edges (metrics, logging).
package numeric

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ErrDivisionByZero is returned instead of letting decimal.Div panic.
var ErrDivisionByZero = errors.New("division by zero")

func init() {
	// 28 significant digits on division results, enough for price*qty
	// chains without drift.
	decimal.DivisionPrecision = 28
}

var (
	// Ten4 converts between fractional spread and basis points.
	Ten4 = decimal.NewFromInt(10000)
	// Two halves a spread.
	Two = decimal.NewFromInt(2)
	// One is the multiplicative identity.
	One = decimal.NewFromInt(1)
)

// SafeDiv divides a by b, failing explicitly on a zero divisor.
func SafeDiv(a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: %s / 0", ErrDivisionByZero, a)
	}
	return a.Div(b), nil
}

// Clamp bounds v to [lo, hi]. lo must not exceed hi.
func Clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

// Sqrt computes the square root of a non-negative decimal. The result goes
// through float64, which is fine for vol scaling and LP share issuance but
// must not be used on exact-ledger paths.
func Sqrt(v decimal.Decimal) (decimal.Decimal, error) {
	if v.IsNegative() {
		return decimal.Zero, fmt.Errorf("sqrt of negative value %s", v)
	}
	f, _ := v.Float64()
	return decimal.NewFromFloat(math.Sqrt(f)), nil
}

// SpreadBps returns (ask-bid)/mid in basis points.
func SpreadBps(bid, ask, mid decimal.Decimal) (decimal.Decimal, error) {
	r, err := SafeDiv(ask.Sub(bid), mid)
	if err != nil {
		return decimal.Zero, err
	}
	return r.Mul(Ten4), nil
}

// Ratio returns |num|/den, the usual position-over-limit shape.
func Ratio(num, den decimal.Decimal) (decimal.Decimal, error) {
	return SafeDiv(num.Abs(), den)
}
