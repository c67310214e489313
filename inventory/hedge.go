package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"mm-quote-engine/market"
	"mm-quote-engine/numeric"
)

var ErrNoHedgeCandidate = errors.New("no usable hedge candidate")

// HedgeInstrument is one candidate for laying off delta.
type HedgeInstrument struct {
	Symbol    string
	Liquidity decimal.Decimal // available size at touch
	Cost      decimal.Decimal // round-trip cost in spread/fees terms
	Delta     decimal.Decimal // delta per unit, e.g. 1 for the underlying
}

// HedgeLeg is one child trade of a hedge plan.
type HedgeLeg struct {
	Instrument string
	Side       market.Side
	Quantity   decimal.Decimal
}

// HedgePlan is an ordered list of child trades. Execution is external;
// partial executions come back through ApplyFill as ordinary fills.
type HedgePlan struct {
	Symbol      string
	TargetDelta decimal.Decimal // delta to be offset
	Legs        []HedgeLeg
	CreatedAt   time.Time
}

// DetermineOptimalHedge picks the candidate maximizing liquidity/(cost+1)
// and sizes the hedge as currentDelta / instrumentDelta.
func DetermineOptimalHedge(currentDelta decimal.Decimal, candidates []HedgeInstrument) (HedgeInstrument, decimal.Decimal, error) {
	var (
		best      HedgeInstrument
		bestScore decimal.Decimal
		found     bool
	)
	for _, c := range candidates {
		if c.Delta.IsZero() || c.Liquidity.Sign() <= 0 || c.Cost.Sign() < 0 {
			continue
		}
		score := c.Liquidity.Div(c.Cost.Add(numeric.One))
		if !found || score.GreaterThan(bestScore) {
			best = c
			bestScore = score
			found = true
		}
	}
	if !found {
		return HedgeInstrument{}, decimal.Zero, ErrNoHedgeCandidate
	}

	size, err := numeric.SafeDiv(currentDelta, best.Delta)
	if err != nil {
		return HedgeInstrument{}, decimal.Zero, err
	}
	return best, size, nil
}

// BuildHedgePlan turns an over-limit inventory into an ordered list of
// child trades on the best candidate, each leg capped at maxLegSize.
// Returns ErrNoHedgeCandidate when nothing can serve, and an empty plan
// when the inventory does not need hedging.
func BuildHedgePlan(inv Inventory, candidates []HedgeInstrument, maxLegSize decimal.Decimal, now time.Time) (HedgePlan, error) {
	plan := HedgePlan{Symbol: inv.Symbol, CreatedAt: now}
	if !inv.NeedsHedging || inv.RecommendedHedge.IsZero() {
		return plan, nil
	}
	if maxLegSize.Sign() <= 0 {
		return HedgePlan{}, fmt.Errorf("%w: max leg size %s must be > 0", ErrInvalidInput, maxLegSize)
	}

	// Delta to offset is the inverse of the hedge recommendation: a long
	// book hedges by selling.
	offset := inv.RecommendedHedge.Neg()
	best, size, err := DetermineOptimalHedge(offset, candidates)
	if err != nil {
		return HedgePlan{}, err
	}
	plan.TargetDelta = offset

	side := market.SideSell
	if size.Sign() < 0 {
		side = market.SideBuy
	}

	remaining := size.Abs()
	for remaining.Sign() > 0 {
		leg := decimal.Min(remaining, maxLegSize)
		plan.Legs = append(plan.Legs, HedgeLeg{
			Instrument: best.Symbol,
			Side:       side,
			Quantity:   leg,
		})
		remaining = remaining.Sub(leg)
	}
	return plan, nil
}
