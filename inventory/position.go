// Package inventory tracks per-instrument position, cost basis and risk
// tier, and produces hedge recommendations when exposure drifts. All
// updates are value-semantic: ApplyFill returns a new Inventory and the
// owning goroutine swaps it in.
package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"mm-quote-engine/market"
	"mm-quote-engine/numeric"
)

var ErrInvalidInput = errors.New("invalid inventory input")

// RiskTier grades how close the position sits to its limit.
type RiskTier string

const (
	TierLow      RiskTier = "LOW"
	TierMedium   RiskTier = "MEDIUM"
	TierHigh     RiskTier = "HIGH"
	TierCritical RiskTier = "CRITICAL"
)

// TierThresholds are the position-ratio steps between tiers.
type TierThresholds struct {
	Medium   decimal.Decimal
	High     decimal.Decimal
	Critical decimal.Decimal
}

// Policy bundles the inventory risk knobs.
type Policy struct {
	Tiers      TierThresholds
	HedgeRatio decimal.Decimal // |position|/max beyond which hedging is flagged
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		Tiers: TierThresholds{
			Medium:   decimal.RequireFromString("0.3"),
			High:     decimal.RequireFromString("0.6"),
			Critical: decimal.RequireFromString("0.9"),
		},
		HedgeRatio: decimal.RequireFromString("0.5"),
	}
}

// TierFor maps a position ratio onto a tier. Pure step function, no
// hysteresis: the tier is recomputed from scratch on every fill.
func TierFor(ratio decimal.Decimal, th TierThresholds) RiskTier {
	r := ratio.Abs()
	switch {
	case r.GreaterThanOrEqual(th.Critical):
		return TierCritical
	case r.GreaterThanOrEqual(th.High):
		return TierHigh
	case r.GreaterThanOrEqual(th.Medium):
		return TierMedium
	default:
		return TierLow
	}
}

// Inventory is the per-instrument position record. Never deleted; a flat
// book is position zero.
type Inventory struct {
	Symbol         string
	Position       decimal.Decimal
	TargetPosition decimal.Decimal
	MinPosition    decimal.Decimal
	MaxPosition    decimal.Decimal

	AvgCost       decimal.Decimal // VWAP of same-direction fills
	MarkPrice     decimal.Decimal
	Value         decimal.Decimal // position * mark
	UnrealizedPnL decimal.Decimal
	Delta         decimal.Decimal // linear instrument: delta equals position

	Tier             RiskTier
	NeedsHedging     bool
	RecommendedHedge decimal.Decimal // signed quantity back toward target

	UpdatedAt time.Time
}

// New creates a flat inventory for one instrument.
func New(symbol string, target, maxPosition decimal.Decimal) (Inventory, error) {
	if maxPosition.Sign() <= 0 {
		return Inventory{}, fmt.Errorf("%w: max position %s must be > 0", ErrInvalidInput, maxPosition)
	}
	return Inventory{
		Symbol:         symbol,
		TargetPosition: target,
		MinPosition:    maxPosition.Neg(),
		MaxPosition:    maxPosition,
		Tier:           TierLow,
	}, nil
}

// Ratio returns |position|/max.
func (inv Inventory) Ratio() decimal.Decimal {
	r, err := numeric.Ratio(inv.Position, inv.MaxPosition)
	if err != nil {
		return decimal.Zero
	}
	return r
}

// ApplyFill folds a trade fill into the inventory at the given mark price.
// Adding to a position recomputes average cost as a weighted average;
// reducing leaves it unchanged. A fill that flips the position through zero
// opens the residual at the fill price.
func ApplyFill(inv Inventory, fill market.Fill, mark decimal.Decimal, pol Policy, now time.Time) (Inventory, error) {
	if err := fill.Validate(); err != nil {
		return Inventory{}, err
	}
	if mark.Sign() <= 0 {
		return Inventory{}, fmt.Errorf("%w: mark price %s must be > 0", ErrInvalidInput, mark)
	}

	delta := fill.SignedQuantity()
	oldPos := inv.Position
	newPos := oldPos.Add(delta)

	next := inv
	next.Position = newPos

	switch {
	case oldPos.IsZero() || oldPos.Sign() == delta.Sign():
		// Adding: weighted-average cost over the combined size.
		totalCost := inv.AvgCost.Mul(oldPos.Abs()).Add(fill.Price.Mul(delta.Abs()))
		avg, err := numeric.SafeDiv(totalCost, newPos.Abs())
		if err != nil {
			return Inventory{}, err
		}
		next.AvgCost = avg
	case newPos.IsZero():
		next.AvgCost = decimal.Zero
	case newPos.Sign() != oldPos.Sign():
		// Flipped through zero: residual is a fresh position at fill price.
		next.AvgCost = fill.Price
	default:
		// Reducing: cost basis held constant.
	}

	next.MarkPrice = mark
	next.Value = newPos.Mul(mark)
	next.UnrealizedPnL = mark.Sub(next.AvgCost).Mul(newPos)
	next.Delta = newPos
	next.UpdatedAt = now

	ratio := next.Ratio()
	next.Tier = TierFor(ratio, pol.Tiers)
	next.NeedsHedging = ratio.GreaterThan(pol.HedgeRatio)
	if next.NeedsHedging {
		next.RecommendedHedge = next.TargetPosition.Sub(newPos)
	} else {
		next.RecommendedHedge = decimal.Zero
	}

	return next, nil
}

// Revalue refreshes mark-dependent fields without touching the position.
func Revalue(inv Inventory, mark decimal.Decimal, now time.Time) (Inventory, error) {
	if mark.Sign() <= 0 {
		return Inventory{}, fmt.Errorf("%w: mark price %s must be > 0", ErrInvalidInput, mark)
	}
	next := inv
	next.MarkPrice = mark
	next.Value = inv.Position.Mul(mark)
	next.UnrealizedPnL = mark.Sub(inv.AvgCost).Mul(inv.Position)
	next.UpdatedAt = now
	return next, nil
}
