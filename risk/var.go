// Package risk monitors the engine's exposure: parametric VaR,
// concentration, stress scenarios and limit breaches. Breaches are
// first-class signals routed to the notifier, never panics.
package risk

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"mm-quote-engine/numeric"
)

var ErrInvalidInput = errors.New("invalid risk input")

// z-scores per confidence band.
var (
	z90 = decimal.RequireFromString("1.28")
	z95 = decimal.RequireFromString("1.65")
	z99 = decimal.RequireFromString("2.33")

	conf90 = decimal.RequireFromString("0.90")
	conf95 = decimal.RequireFromString("0.95")
	conf99 = decimal.RequireFromString("0.99")
)

// zScore maps a confidence level onto its parametric z.
func zScore(confidence decimal.Decimal) (decimal.Decimal, error) {
	switch {
	case confidence.GreaterThanOrEqual(conf99):
		return z99, nil
	case confidence.GreaterThanOrEqual(conf95):
		return z95, nil
	case confidence.GreaterThanOrEqual(conf90):
		return z90, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: confidence %s below 0.90", ErrInvalidInput, confidence)
	}
}

// ValueAtRisk computes parametric VaR:
// |position| * mark * vol * z(confidence) * sqrt(horizonDays).
func ValueAtRisk(position, mark, volatility, confidence decimal.Decimal, horizonDays decimal.Decimal) (decimal.Decimal, error) {
	if mark.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: mark %s must be > 0", ErrInvalidInput, mark)
	}
	if volatility.Sign() < 0 {
		return decimal.Zero, fmt.Errorf("%w: volatility %s must be >= 0", ErrInvalidInput, volatility)
	}
	if horizonDays.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: horizon %s must be > 0", ErrInvalidInput, horizonDays)
	}

	z, err := zScore(confidence)
	if err != nil {
		return decimal.Zero, err
	}
	root, err := numeric.Sqrt(horizonDays)
	if err != nil {
		return decimal.Zero, err
	}
	return position.Abs().Mul(mark).Mul(volatility).Mul(z).Mul(root), nil
}
