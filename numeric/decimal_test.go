package numeric

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeDiv(t *testing.T) {
	got, err := SafeDiv(decimal.NewFromInt(10), decimal.NewFromInt(4))
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("2.5")))

	_, err = SafeDiv(decimal.NewFromInt(1), decimal.Zero)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestClamp(t *testing.T) {
	lo := decimal.NewFromInt(0)
	hi := decimal.NewFromInt(1)
	assert.True(t, Clamp(decimal.NewFromInt(-3), lo, hi).Equal(lo))
	assert.True(t, Clamp(decimal.NewFromInt(3), lo, hi).Equal(hi))
	mid := decimal.RequireFromString("0.4")
	assert.True(t, Clamp(mid, lo, hi).Equal(mid))
}

func TestSqrt(t *testing.T) {
	got, err := Sqrt(decimal.NewFromInt(9))
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(3)))

	_, err = Sqrt(decimal.NewFromInt(-1))
	assert.Error(t, err)
}

func TestSpreadBps(t *testing.T) {
	bid := decimal.RequireFromString("99.90")
	ask := decimal.RequireFromString("100.10")
	mid := decimal.NewFromInt(100)
	got, err := SpreadBps(bid, ask, mid)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(20)), "got %s", got)

	_, err = SpreadBps(bid, ask, decimal.Zero)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}
