// Package pnl decomposes realized market-making P&L into spread capture,
// inventory P&L, rebates, adverse-selection loss and hedging cost, and
// derives the period performance scores. Computation is batch-style over a
// period's fill history; results are immutable once produced.
package pnl

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"mm-quote-engine/market"
	"mm-quote-engine/numeric"
)

var ErrInvalidInput = errors.New("invalid pnl input")

// Config holds the attribution policy constants.
type Config struct {
	MakerRebateBps   decimal.Decimal // rebate earned per filled notional
	AdverseLossRatio decimal.Decimal // share of spread capture given back to informed flow
}

// DefaultConfig returns the stock attribution parameters. The adverse-loss
// ratio is a heuristic attribution, not a measured quantity.
func DefaultConfig() Config {
	return Config{
		MakerRebateBps:   decimal.RequireFromString("2"),
		AdverseLossRatio: decimal.RequireFromString("0.15"),
	}
}

// Attribution is the P&L decomposition for one reporting period.
type Attribution struct {
	PeriodStart time.Time
	PeriodEnd   time.Time

	SpreadCapture decimal.Decimal
	InventoryPnL  decimal.Decimal
	RebateIncome  decimal.Decimal
	AdverseLoss   decimal.Decimal // negative or zero
	HedgingCost   decimal.Decimal

	TotalPnL           decimal.Decimal
	ReturnOnCapital    decimal.Decimal
	RiskAdjustedReturn decimal.Decimal
}

// Attribute decomposes the period's fills. Spread capture is measured per
// fill against the mid prevailing at execution; inventory P&L pairs
// opposite-direction fills FIFO; hedging cost is supplied by the execution
// layer. capital must be positive, it anchors the return figures.
func Attribute(fills []market.Fill, hedgingCost, capital, volatility decimal.Decimal, cfg Config, start, end time.Time) (Attribution, error) {
	if capital.Sign() <= 0 {
		return Attribution{}, fmt.Errorf("%w: capital %s must be > 0", ErrInvalidInput, capital)
	}
	if hedgingCost.Sign() < 0 {
		return Attribution{}, fmt.Errorf("%w: hedging cost %s must be >= 0", ErrInvalidInput, hedgingCost)
	}
	for _, f := range fills {
		if err := f.Validate(); err != nil {
			return Attribution{}, err
		}
	}

	ordered := make([]market.Fill, len(fills))
	copy(ordered, fills)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	attr := Attribution{PeriodStart: start, PeriodEnd: end, HedgingCost: hedgingCost}

	for _, f := range ordered {
		var edge decimal.Decimal
		if f.Side == market.SideBuy {
			edge = f.MidAtFill.Sub(f.Price)
		} else {
			edge = f.Price.Sub(f.MidAtFill)
		}
		attr.SpreadCapture = attr.SpreadCapture.Add(edge.Mul(f.Quantity))

		notional := f.Price.Mul(f.Quantity)
		attr.RebateIncome = attr.RebateIncome.Add(notional.Mul(cfg.MakerRebateBps).Div(numeric.Ten4))
	}

	attr.InventoryPnL = pairedInventoryPnL(ordered)
	attr.AdverseLoss = attr.SpreadCapture.Mul(cfg.AdverseLossRatio).Neg()

	attr.TotalPnL = attr.SpreadCapture.
		Add(attr.InventoryPnL).
		Add(attr.RebateIncome).
		Add(attr.AdverseLoss).
		Sub(attr.HedgingCost)

	roc, err := numeric.SafeDiv(attr.TotalPnL, capital)
	if err != nil {
		return Attribution{}, err
	}
	attr.ReturnOnCapital = roc

	rar, err := numeric.SafeDiv(roc, numeric.One.Add(volatility.Abs()))
	if err != nil {
		return Attribution{}, err
	}
	attr.RiskAdjustedReturn = rar

	return attr, nil
}

type openLot struct {
	price decimal.Decimal
	qty   decimal.Decimal
}

// pairedInventoryPnL estimates round-trip P&L by matching buys against
// sells FIFO in time order. Unmatched residue stays open and contributes
// nothing; it is unrealized.
func pairedInventoryPnL(ordered []market.Fill) decimal.Decimal {
	var longs, shorts []openLot
	pnl := decimal.Zero

	for _, f := range ordered {
		qty := f.Quantity
		if f.Side == market.SideBuy {
			// Close shorts first, oldest first.
			for qty.Sign() > 0 && len(shorts) > 0 {
				lot := &shorts[0]
				matched := decimal.Min(qty, lot.qty)
				pnl = pnl.Add(lot.price.Sub(f.Price).Mul(matched))
				lot.qty = lot.qty.Sub(matched)
				qty = qty.Sub(matched)
				if lot.qty.IsZero() {
					shorts = shorts[1:]
				}
			}
			if qty.Sign() > 0 {
				longs = append(longs, openLot{price: f.Price, qty: qty})
			}
		} else {
			for qty.Sign() > 0 && len(longs) > 0 {
				lot := &longs[0]
				matched := decimal.Min(qty, lot.qty)
				pnl = pnl.Add(f.Price.Sub(lot.price).Mul(matched))
				lot.qty = lot.qty.Sub(matched)
				qty = qty.Sub(matched)
				if lot.qty.IsZero() {
					longs = longs[1:]
				}
			}
			if qty.Sign() > 0 {
				shorts = append(shorts, openLot{price: f.Price, qty: qty})
			}
		}
	}
	return pnl
}
