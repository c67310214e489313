package pnl

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mm-quote-engine/market"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mkFill(side market.Side, price, qty, mid string, at time.Time) market.Fill {
	return market.Fill{
		Symbol:    "ETHUSDC",
		Side:      side,
		Price:     d(price),
		Quantity:  d(qty),
		MidAtFill: d(mid),
		Timestamp: at,
	}
}

func TestAttributeRoundTrip(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	cfg := Config{MakerRebateBps: decimal.Zero, AdverseLossRatio: d("0.15")}

	fills := []market.Fill{
		// Buy 10 at 99.90 with mid 100: capture 0.10*10 = 1.
		mkFill(market.SideBuy, "99.90", "10", "100", start.Add(time.Minute)),
		// Sell 10 at 100.60 with mid 100.50: capture 0.10*10 = 1.
		mkFill(market.SideSell, "100.60", "10", "100.50", start.Add(2*time.Minute)),
	}

	attr, err := Attribute(fills, decimal.Zero, d("100000"), decimal.Zero, cfg, start, end)
	require.NoError(t, err)

	assert.True(t, attr.SpreadCapture.Equal(d("2")), "capture %s", attr.SpreadCapture)
	// Paired round trip: (100.60-99.90)*10 = 7.
	assert.True(t, attr.InventoryPnL.Equal(d("7")), "inventory %s", attr.InventoryPnL)
	assert.True(t, attr.AdverseLoss.Equal(d("-0.3")), "adverse %s", attr.AdverseLoss)
	// 2 + 7 + 0 - 0.3 - 0 = 8.7
	assert.True(t, attr.TotalPnL.Equal(d("8.7")), "total %s", attr.TotalPnL)
	assert.True(t, attr.ReturnOnCapital.Equal(d("0.000087")), "roc %s", attr.ReturnOnCapital)
}

func TestAttributeRebatesAndHedging(t *testing.T) {
	start := time.Now()
	cfg := Config{MakerRebateBps: d("2"), AdverseLossRatio: decimal.Zero}

	fills := []market.Fill{
		// Notional 1000, rebate 2 bps = 0.2. Capture 0.
		mkFill(market.SideBuy, "100", "10", "100", start),
	}
	attr, err := Attribute(fills, d("5"), d("1000"), decimal.Zero, cfg, start, start)
	require.NoError(t, err)

	assert.True(t, attr.RebateIncome.Equal(d("0.2")), "rebate %s", attr.RebateIncome)
	assert.True(t, attr.SpreadCapture.IsZero())
	assert.True(t, attr.InventoryPnL.IsZero(), "one-sided flow has no pairs")
	// 0 + 0 + 0.2 - 0 - 5 = -4.8
	assert.True(t, attr.TotalPnL.Equal(d("-4.8")), "total %s", attr.TotalPnL)
}

func TestAttributeShortFirstPairing(t *testing.T) {
	start := time.Now()
	cfg := Config{MakerRebateBps: decimal.Zero, AdverseLossRatio: decimal.Zero}

	fills := []market.Fill{
		mkFill(market.SideSell, "101", "5", "101", start),
		mkFill(market.SideBuy, "100", "8", "100", start.Add(time.Second)),
	}
	attr, err := Attribute(fills, decimal.Zero, d("1000"), decimal.Zero, cfg, start, start)
	require.NoError(t, err)
	// Short 5 at 101 covered at 100: (101-100)*5 = 5; 3 units stay open.
	assert.True(t, attr.InventoryPnL.Equal(d("5")), "inventory %s", attr.InventoryPnL)
}

func TestAttributePartialLotMatching(t *testing.T) {
	start := time.Now()
	cfg := Config{MakerRebateBps: decimal.Zero, AdverseLossRatio: decimal.Zero}

	fills := []market.Fill{
		mkFill(market.SideBuy, "100", "10", "100", start),
		mkFill(market.SideBuy, "102", "10", "102", start.Add(time.Second)),
		// FIFO: closes the 100 lot fully, then 5 of the 102 lot.
		mkFill(market.SideSell, "104", "15", "104", start.Add(2*time.Second)),
	}
	attr, err := Attribute(fills, decimal.Zero, d("1000"), decimal.Zero, cfg, start, start)
	require.NoError(t, err)
	// (104-100)*10 + (104-102)*5 = 50
	assert.True(t, attr.InventoryPnL.Equal(d("50")), "inventory %s", attr.InventoryPnL)
}

func TestAttributeRiskAdjustedReturn(t *testing.T) {
	start := time.Now()
	cfg := Config{MakerRebateBps: decimal.Zero, AdverseLossRatio: decimal.Zero}
	fills := []market.Fill{
		mkFill(market.SideBuy, "99", "10", "100", start),
	}
	attr, err := Attribute(fills, decimal.Zero, d("100"), d("1"), cfg, start, start)
	require.NoError(t, err)
	// capture 10, roc 0.1, vol 1 halves it.
	assert.True(t, attr.ReturnOnCapital.Equal(d("0.1")))
	assert.True(t, attr.RiskAdjustedReturn.Equal(d("0.05")))
}

func TestAttributeRejectsBadInput(t *testing.T) {
	start := time.Now()
	cfg := DefaultConfig()

	_, err := Attribute(nil, decimal.Zero, decimal.Zero, decimal.Zero, cfg, start, start)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Attribute(nil, d("-1"), d("100"), decimal.Zero, cfg, start, start)
	assert.ErrorIs(t, err, ErrInvalidInput)

	bad := []market.Fill{mkFill(market.SideBuy, "0", "1", "100", start)}
	_, err = Attribute(bad, decimal.Zero, d("100"), decimal.Zero, cfg, start, start)
	assert.Error(t, err)
}

func TestScorePerformance(t *testing.T) {
	attr := Attribution{
		SpreadCapture: d("80"),
		InventoryPnL:  d("10"),
		RebateIncome:  d("5"),
		AdverseLoss:   d("-5"),
	}
	perf, err := ScorePerformance(attr, d("1"), d("0.5"))
	require.NoError(t, err)
	// capture share 80/100 = 0.8; 100*(0.4*1 + 0.3*0.5 + 0.3*0.8) = 79
	assert.True(t, perf.CaptureShare.Equal(d("0.8")))
	assert.True(t, perf.Score.Equal(d("79")), "score %s", perf.Score)

	_, err = ScorePerformance(attr, d("1.5"), d("0.5"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCompetitiveScore(t *testing.T) {
	// Parity.
	s, err := CompetitiveScore(d("10"), d("10"))
	require.NoError(t, err)
	assert.True(t, s.Equal(d("50")))

	// We quote twice as tight: top of scale.
	s, err = CompetitiveScore(d("5"), d("10"))
	require.NoError(t, err)
	assert.True(t, s.Equal(d("100")))

	// We quote twice as wide.
	s, err = CompetitiveScore(d("20"), d("10"))
	require.NoError(t, err)
	assert.True(t, s.Equal(d("25")))

	_, err = CompetitiveScore(decimal.Zero, d("10"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}
