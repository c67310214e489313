package quote

import (
	"time"

	"github.com/shopspring/decimal"

	"mm-quote-engine/numeric"
)

// Urgency grades how quickly an update should be acted on.
type Urgency string

const (
	UrgencyLow    Urgency = "LOW"
	UrgencyMedium Urgency = "MEDIUM"
	UrgencyHigh   Urgency = "HIGH"
)

// UpdateReason names the trigger that fired.
type UpdateReason string

const (
	ReasonMarketMove UpdateReason = "MARKET_MOVE"
	ReasonInventory  UpdateReason = "INVENTORY"
	ReasonStale      UpdateReason = "STALE"
)

// UpdatePolicy carries the update triggers. Thresholds are policy, not
// derived quantities, so they are configurable rather than baked in.
type UpdatePolicy struct {
	ThresholdBps        decimal.Decimal // market move trigger
	InventoryForceRatio decimal.Decimal // |position|/max triggering a forced update
	StaleAfter          time.Duration   // age bound on a resting quote
}

// DefaultUpdatePolicy mirrors the production defaults.
func DefaultUpdatePolicy() UpdatePolicy {
	return UpdatePolicy{
		ThresholdBps:        decimal.NewFromInt(10),
		InventoryForceRatio: decimal.RequireFromString("0.8"),
		StaleAfter:          5 * time.Second,
	}
}

// UpdateDecision is the outcome of a re-quote evaluation. The engine only
// decides whether an update is warranted; scheduling is the caller's job.
type UpdateDecision struct {
	ShouldUpdate bool
	Reason       UpdateReason
	Urgency      Urgency
	Reprice      bool
	NewMid       decimal.Decimal
}

// DetermineUpdate evaluates the three update triggers in priority order:
// market move, inventory pressure, staleness. Market moves pre-empt the
// other two so a repriced quote never waits behind an age check.
func DetermineUpdate(current Quote, marketMid decimal.Decimal, inventoryRatio decimal.Decimal, pol UpdatePolicy, now time.Time) (UpdateDecision, error) {
	moveBps, err := numeric.SafeDiv(marketMid.Sub(current.Mid).Abs(), current.Mid)
	if err != nil {
		return UpdateDecision{}, err
	}
	moveBps = moveBps.Mul(numeric.Ten4)

	if moveBps.GreaterThanOrEqual(pol.ThresholdBps) {
		urgency := UrgencyMedium
		if moveBps.GreaterThanOrEqual(pol.ThresholdBps.Mul(numeric.Two)) {
			urgency = UrgencyHigh
		}
		return UpdateDecision{
			ShouldUpdate: true,
			Reason:       ReasonMarketMove,
			Urgency:      urgency,
			Reprice:      true,
			NewMid:       marketMid,
		}, nil
	}

	if inventoryRatio.Abs().GreaterThanOrEqual(pol.InventoryForceRatio) {
		return UpdateDecision{
			ShouldUpdate: true,
			Reason:       ReasonInventory,
			Urgency:      UrgencyHigh,
		}, nil
	}

	if current.Age(now) > pol.StaleAfter {
		return UpdateDecision{
			ShouldUpdate: true,
			Reason:       ReasonStale,
			Urgency:      UrgencyLow,
			Reprice:      true,
			NewMid:       marketMid,
		}, nil
	}

	return UpdateDecision{}, nil
}
