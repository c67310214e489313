package inventory

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mm-quote-engine/market"
)

func candidates() []HedgeInstrument {
	return []HedgeInstrument{
		{Symbol: "SPY", Liquidity: d("10000"), Cost: d("1"), Delta: d("1")},
		{Symbol: "ES", Liquidity: d("50000"), Cost: d("4"), Delta: d("1")},
		{Symbol: "SPX_OPT", Liquidity: d("2000"), Cost: d("9"), Delta: d("0.5")},
	}
}

func TestDetermineOptimalHedgePicksBestScore(t *testing.T) {
	// Scores: SPY 10000/2=5000, ES 50000/5=10000, SPX_OPT 2000/10=200.
	best, size, err := DetermineOptimalHedge(d("800"), candidates())
	require.NoError(t, err)
	assert.Equal(t, "ES", best.Symbol)
	assert.True(t, size.Equal(d("800")))
}

func TestDetermineOptimalHedgeScalesByDelta(t *testing.T) {
	only := []HedgeInstrument{{Symbol: "SPX_OPT", Liquidity: d("2000"), Cost: d("9"), Delta: d("0.5")}}
	_, size, err := DetermineOptimalHedge(d("800"), only)
	require.NoError(t, err)
	assert.True(t, size.Equal(d("1600")), "got %s", size)
}

func TestDetermineOptimalHedgeSkipsUnusable(t *testing.T) {
	bad := []HedgeInstrument{
		{Symbol: "ZERO_DELTA", Liquidity: d("10000"), Cost: d("1"), Delta: decimal.Zero},
		{Symbol: "NO_LIQ", Liquidity: decimal.Zero, Cost: d("1"), Delta: d("1")},
		{Symbol: "NEG_COST", Liquidity: d("100"), Cost: d("-1"), Delta: d("1")},
	}
	_, _, err := DetermineOptimalHedge(d("800"), bad)
	assert.ErrorIs(t, err, ErrNoHedgeCandidate)

	_, _, err = DetermineOptimalHedge(d("800"), nil)
	assert.ErrorIs(t, err, ErrNoHedgeCandidate)
}

func TestBuildHedgePlanLongBookSells(t *testing.T) {
	now := time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC)
	inv := Inventory{
		Symbol:           "AAPL",
		Position:         d("850"),
		NeedsHedging:     true,
		RecommendedHedge: d("-850"),
	}

	plan, err := BuildHedgePlan(inv, candidates(), d("300"), now)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", plan.Symbol)
	assert.True(t, plan.TargetDelta.Equal(d("850")))
	assert.Equal(t, now, plan.CreatedAt)

	// 850 split into 300/300/250, all sells on the best candidate.
	require.Len(t, plan.Legs, 3)
	total := decimal.Zero
	for _, leg := range plan.Legs {
		assert.Equal(t, "ES", leg.Instrument)
		assert.Equal(t, market.SideSell, leg.Side)
		total = total.Add(leg.Quantity)
	}
	assert.True(t, plan.Legs[2].Quantity.Equal(d("250")))
	assert.True(t, total.Equal(d("850")))
}

func TestBuildHedgePlanShortBookBuys(t *testing.T) {
	inv := Inventory{
		Symbol:           "AAPL",
		Position:         d("-400"),
		NeedsHedging:     true,
		RecommendedHedge: d("400"),
	}

	plan, err := BuildHedgePlan(inv, candidates(), d("1000"), time.Now())
	require.NoError(t, err)
	require.Len(t, plan.Legs, 1)
	assert.Equal(t, market.SideBuy, plan.Legs[0].Side)
	assert.True(t, plan.Legs[0].Quantity.Equal(d("400")))
}

func TestBuildHedgePlanNoopWhenNotNeeded(t *testing.T) {
	inv := Inventory{Symbol: "AAPL", Position: d("100")}
	plan, err := BuildHedgePlan(inv, candidates(), d("300"), time.Now())
	require.NoError(t, err)
	assert.Empty(t, plan.Legs)
	assert.True(t, plan.TargetDelta.IsZero())
}

func TestBuildHedgePlanRejectsBadLegSize(t *testing.T) {
	inv := Inventory{
		Symbol:           "AAPL",
		NeedsHedging:     true,
		RecommendedHedge: d("-850"),
	}
	_, err := BuildHedgePlan(inv, candidates(), decimal.Zero, time.Now())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBuildHedgePlanNoCandidates(t *testing.T) {
	inv := Inventory{
		Symbol:           "AAPL",
		NeedsHedging:     true,
		RecommendedHedge: d("-850"),
	}
	_, err := BuildHedgePlan(inv, nil, d("300"), time.Now())
	assert.ErrorIs(t, err, ErrNoHedgeCandidate)
}
