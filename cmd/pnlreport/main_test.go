package main

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"mm-quote-engine/market"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fill(side market.Side, price, mid string) market.Fill {
	return market.Fill{
		Symbol:    "AAPL",
		Side:      side,
		Price:     d(price),
		Quantity:  d("100"),
		MidAtFill: d(mid),
		Timestamp: time.Now(),
	}
}

func TestWinRate(t *testing.T) {
	fills := []market.Fill{
		fill(market.SideBuy, "99.9", "100"),   // bought below mid
		fill(market.SideSell, "100.1", "100"), // sold above mid
		fill(market.SideBuy, "100.2", "100"),  // paid through the mid
	}
	rate, _ := winRate(fills).Float64()
	assert.InDelta(t, 2.0/3.0, rate, 0.0001)

	assert.True(t, winRate(nil).IsZero())
}

func TestAvgSpreadBps(t *testing.T) {
	// Half-spread 0.1 on a 100 mid is a 20bps quoted spread.
	fills := []market.Fill{
		fill(market.SideBuy, "99.9", "100"),
		fill(market.SideSell, "100.1", "100"),
	}
	assert.True(t, avgSpreadBps(fills).Equal(d("20")), "got %s", avgSpreadBps(fills))

	assert.True(t, avgSpreadBps(nil).IsZero())
}
