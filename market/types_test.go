package market

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotValidate(t *testing.T) {
	snap := Snapshot{
		Symbol:    "ETHUSDC",
		Mid:       decimal.NewFromInt(100),
		BestBid:   decimal.RequireFromString("99.95"),
		BestAsk:   decimal.RequireFromString("100.05"),
		Timestamp: time.Now(),
	}
	require.NoError(t, snap.Validate())

	snap.Mid = decimal.Zero
	assert.ErrorIs(t, snap.Validate(), ErrInvalidSnapshot)

	snap.Mid = decimal.NewFromInt(100)
	snap.BestBid = decimal.NewFromInt(101)
	assert.ErrorIs(t, snap.Validate(), ErrInvalidSnapshot)
}

func TestSnapshotCheckFresh(t *testing.T) {
	now := time.Now()
	snap := Snapshot{Mid: decimal.NewFromInt(1), Timestamp: now.Add(-2 * time.Second)}

	assert.NoError(t, snap.CheckFresh(now, 5*time.Second))
	assert.ErrorIs(t, snap.CheckFresh(now, time.Second), ErrStaleSnapshot)
}

func TestFillValidate(t *testing.T) {
	f := Fill{
		Symbol:   "ETHUSDC",
		Side:     SideBuy,
		Price:    decimal.NewFromInt(100),
		Quantity: decimal.NewFromInt(5),
	}
	require.NoError(t, f.Validate())

	f.Quantity = decimal.Zero
	assert.Error(t, f.Validate())

	f.Quantity = decimal.NewFromInt(5)
	f.Side = "HOLD"
	assert.Error(t, f.Validate())
}

func TestFillSignedQuantity(t *testing.T) {
	buy := Fill{Side: SideBuy, Quantity: decimal.NewFromInt(3)}
	sell := Fill{Side: SideSell, Quantity: decimal.NewFromInt(3)}
	assert.True(t, buy.SignedQuantity().Equal(decimal.NewFromInt(3)))
	assert.True(t, sell.SignedQuantity().Equal(decimal.NewFromInt(-3)))
}

func TestVolatilityCalculator(t *testing.T) {
	vc := NewVolatilityCalculator(30)
	assert.False(t, vc.IsReady())
	assert.True(t, vc.RealizedVol().IsZero())

	ts := time.Now()
	for i := 0; i < 10; i++ {
		vc.AddPrice(decimal.NewFromInt(100), ts.Add(time.Duration(i)*time.Second))
	}
	require.True(t, vc.IsReady())
	// Flat prices carry zero realized vol.
	assert.True(t, vc.RealizedVol().IsZero())

	vc2 := NewVolatilityCalculator(30)
	px := []string{"100", "101", "99", "102", "98", "103"}
	for i, p := range px {
		vc2.AddPrice(decimal.RequireFromString(p), ts.Add(time.Duration(i)*time.Second))
	}
	assert.True(t, vc2.RealizedVol().Sign() > 0)
}

func TestSessionEdges(t *testing.T) {
	s := DefaultSession()
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	open := day.Add(s.Open)
	assert.True(t, s.NearOpen(open.Add(10*time.Minute), 15*time.Minute))
	assert.False(t, s.NearOpen(open.Add(20*time.Minute), 15*time.Minute))

	close := day.Add(s.Close)
	assert.True(t, s.NearClose(close.Add(-25*time.Minute), 30*time.Minute))
	assert.False(t, s.NearClose(close.Add(-45*time.Minute), 30*time.Minute))
}
