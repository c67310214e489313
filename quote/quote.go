// Package quote builds and maintains two-sided quotes. Quotes are value
// records: generation returns a fresh Quote, lifecycle moves go through
// state transitions, and a new market cycle supersedes the old record
// rather than editing it.
package quote

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"mm-quote-engine/numeric"
)

// State is the lifecycle state of a quote.
type State string

const (
	StateActive    State = "ACTIVE"
	StateInactive  State = "INACTIVE"
	StatePaused    State = "PAUSED"
	StateWithdrawn State = "WITHDRAWN"
)

// Source records who produced the quote.
type Source string

const (
	SourceAlgorithm Source = "ALGORITHM"
	SourceManual    Source = "MANUAL"
	SourceHybrid    Source = "HYBRID"
)

var ErrInvalidInput = errors.New("invalid quote input")

// Quote is one two-sided quote for an instrument. Bid < Mid < Ask holds
// whenever the spread is non-zero; SpreadBps is always recomputed from the
// final bid/ask, never taken from the caller.
type Quote struct {
	ID        string
	Symbol    string
	Timestamp time.Time

	BidPrice decimal.Decimal
	BidSize  decimal.Decimal
	AskPrice decimal.Decimal
	AskSize  decimal.Decimal

	Mid       decimal.Decimal
	Spread    decimal.Decimal
	SpreadBps decimal.Decimal
	Skew      decimal.Decimal // positive = ask-skewed

	State  State
	Source Source
}

// Age returns how long the quote has been live at the given instant.
func (q Quote) Age(now time.Time) time.Duration {
	return now.Sub(q.Timestamp)
}

// WithState returns a copy in the new lifecycle state. Price fields never
// change after generation.
func (q Quote) WithState(s State) Quote {
	q.State = s
	return q
}

// GenerateTwoSided computes a symmetric quote around mid. skew in (-1, 1)
// scales the half-spread on both sides: positive widens, negative tightens.
// The returned spread_bps is recomputed from the final bid/ask rather than
// trusted from the input.
func GenerateTwoSided(symbol string, mid, spreadBps, bidSize, askSize, skew decimal.Decimal, now time.Time) (Quote, error) {
	if mid.Sign() <= 0 {
		return Quote{}, fmt.Errorf("%w: mid %s must be > 0", ErrInvalidInput, mid)
	}
	if spreadBps.Sign() <= 0 {
		return Quote{}, fmt.Errorf("%w: spreadBps %s must be > 0", ErrInvalidInput, spreadBps)
	}
	if bidSize.Sign() <= 0 || askSize.Sign() <= 0 {
		return Quote{}, fmt.Errorf("%w: sizes must be > 0 (bid=%s ask=%s)", ErrInvalidInput, bidSize, askSize)
	}
	if skew.Abs().GreaterThanOrEqual(numeric.One) {
		return Quote{}, fmt.Errorf("%w: skew %s out of (-1, 1)", ErrInvalidInput, skew)
	}

	// halfSpread = mid * spreadBps / 20000
	halfSpread := mid.Mul(spreadBps).Div(numeric.Ten4.Mul(numeric.Two))
	skewAdj := halfSpread.Mul(skew)

	bid := mid.Sub(halfSpread).Sub(skewAdj)
	ask := mid.Add(halfSpread).Add(skewAdj)

	actualBps, err := numeric.SpreadBps(bid, ask, mid)
	if err != nil {
		return Quote{}, err
	}

	return Quote{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Timestamp: now,
		BidPrice:  bid,
		BidSize:   bidSize,
		AskPrice:  ask,
		AskSize:   askSize,
		Mid:       mid,
		Spread:    ask.Sub(bid),
		SpreadBps: actualBps,
		Skew:      skew,
		State:     StateActive,
		Source:    SourceAlgorithm,
	}, nil
}

// Reprice re-centers q at a new mid keeping the current half-spread and
// sizes. Used when the update decision asks for a reprice.
func Reprice(q Quote, newMid decimal.Decimal, now time.Time) (Quote, error) {
	if newMid.Sign() <= 0 {
		return Quote{}, fmt.Errorf("%w: mid %s must be > 0", ErrInvalidInput, newMid)
	}
	half := q.Spread.Div(numeric.Two)
	bid := newMid.Sub(half)
	ask := newMid.Add(half)
	bps, err := numeric.SpreadBps(bid, ask, newMid)
	if err != nil {
		return Quote{}, err
	}

	next := q
	next.ID = uuid.NewString()
	next.Timestamp = now
	next.Mid = newMid
	next.BidPrice = bid
	next.AskPrice = ask
	next.Spread = ask.Sub(bid)
	next.SpreadBps = bps
	next.State = StateActive
	return next, nil
}
