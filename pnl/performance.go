package pnl

import (
	"fmt"

	"github.com/shopspring/decimal"

	"mm-quote-engine/numeric"
)

// Performance grades a period 0-100 from uptime, win rate and how much of
// the gross P&L came from spread capture rather than position-taking.
type Performance struct {
	UptimeRatio  decimal.Decimal
	WinRate      decimal.Decimal
	CaptureShare decimal.Decimal
	Score        decimal.Decimal
}

// ScorePerformance blends the three inputs 40/30/30. uptimeRatio and
// winRate are expected in [0, 1].
func ScorePerformance(attr Attribution, uptimeRatio, winRate decimal.Decimal) (Performance, error) {
	one := numeric.One
	if uptimeRatio.Sign() < 0 || uptimeRatio.GreaterThan(one) {
		return Performance{}, fmt.Errorf("%w: uptime ratio %s out of [0, 1]", ErrInvalidInput, uptimeRatio)
	}
	if winRate.Sign() < 0 || winRate.GreaterThan(one) {
		return Performance{}, fmt.Errorf("%w: win rate %s out of [0, 1]", ErrInvalidInput, winRate)
	}

	gross := attr.SpreadCapture.Abs().
		Add(attr.InventoryPnL.Abs()).
		Add(attr.RebateIncome.Abs()).
		Add(attr.AdverseLoss.Abs()).
		Add(attr.HedgingCost.Abs())

	capture := decimal.Zero
	if gross.Sign() > 0 {
		c, err := numeric.SafeDiv(attr.SpreadCapture.Abs(), gross)
		if err != nil {
			return Performance{}, err
		}
		capture = numeric.Clamp(c, decimal.Zero, one)
	}

	w4 := decimal.RequireFromString("0.4")
	w3 := decimal.RequireFromString("0.3")
	score := w4.Mul(uptimeRatio).Add(w3.Mul(winRate)).Add(w3.Mul(capture)).Mul(decimal.NewFromInt(100))

	return Performance{
		UptimeRatio:  uptimeRatio,
		WinRate:      winRate,
		CaptureShare: capture,
		Score:        score,
	}, nil
}

// CompetitiveScore compares our average quoted spread to the competitor's:
// 50 means parity, above 50 we quote tighter, clamped to [0, 100].
func CompetitiveScore(ourSpread, competitorSpread decimal.Decimal) (decimal.Decimal, error) {
	if ourSpread.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: our spread %s must be > 0", ErrInvalidInput, ourSpread)
	}
	if competitorSpread.Sign() < 0 {
		return decimal.Zero, fmt.Errorf("%w: competitor spread %s must be >= 0", ErrInvalidInput, competitorSpread)
	}

	ratio, err := numeric.SafeDiv(competitorSpread, ourSpread)
	if err != nil {
		return decimal.Zero, err
	}
	score := ratio.Mul(decimal.NewFromInt(50))
	return numeric.Clamp(score, decimal.Zero, decimal.NewFromInt(100)), nil
}
