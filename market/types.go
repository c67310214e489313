// Package market defines the input side of the engine: top-of-book
// snapshots, trade fills and the derived statistics (realized volatility,
// session timing) that feed the spread optimizer. The engine never talks to
// a venue; whatever produces these records lives upstream.
package market

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side of a trade from the engine's point of view.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Sign returns +1 for buys and -1 for sells.
func (s Side) Sign() decimal.Decimal {
	if s == SideSell {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

var (
	ErrInvalidSnapshot = errors.New("invalid market snapshot")
	ErrStaleSnapshot   = errors.New("stale market snapshot")
)

// Snapshot is a point-in-time view of the top of book for one instrument.
type Snapshot struct {
	Symbol    string
	Mid       decimal.Decimal
	BestBid   decimal.Decimal
	BestAsk   decimal.Decimal
	Timestamp time.Time
}

// Validate rejects snapshots the pricing path must not see.
func (s Snapshot) Validate() error {
	if s.Mid.Sign() <= 0 {
		return fmt.Errorf("%w: mid %s must be > 0", ErrInvalidSnapshot, s.Mid)
	}
	if s.BestBid.Sign() > 0 && s.BestAsk.Sign() > 0 && s.BestBid.GreaterThan(s.BestAsk) {
		return fmt.Errorf("%w: crossed book bid=%s ask=%s", ErrInvalidSnapshot, s.BestBid, s.BestAsk)
	}
	return nil
}

// CheckFresh returns ErrStaleSnapshot when the snapshot is older than
// maxAge at the given instant. Quoting from stale data is refused, not
// retried; the caller's scheduler decides what to do next.
func (s Snapshot) CheckFresh(now time.Time, maxAge time.Duration) error {
	if age := now.Sub(s.Timestamp); age > maxAge {
		return fmt.Errorf("%w: age %s > %s", ErrStaleSnapshot, age, maxAge)
	}
	return nil
}

// Fill is a trade confirmation fed back from the execution layer. MidAtFill
// carries the prevailing mid at execution time so spread capture can be
// attributed later without replaying market data.
type Fill struct {
	Symbol    string
	Side      Side
	Price     decimal.Decimal
	Quantity  decimal.Decimal
	MidAtFill decimal.Decimal
	Timestamp time.Time
}

// Validate rejects fills with non-positive price or quantity.
func (f Fill) Validate() error {
	if f.Price.Sign() <= 0 {
		return fmt.Errorf("%w: fill price %s must be > 0", ErrInvalidSnapshot, f.Price)
	}
	if f.Quantity.Sign() <= 0 {
		return fmt.Errorf("%w: fill quantity %s must be > 0", ErrInvalidSnapshot, f.Quantity)
	}
	if f.Side != SideBuy && f.Side != SideSell {
		return fmt.Errorf("%w: fill side %q", ErrInvalidSnapshot, f.Side)
	}
	return nil
}

// SignedQuantity returns the position delta contributed by the fill.
func (f Fill) SignedQuantity() decimal.Decimal {
	return f.Quantity.Mul(f.Side.Sign())
}
