package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestValueAtRisk(t *testing.T) {
	// 1000 units at 50, 2% daily vol, 95% confidence, 1 day:
	// 1000 * 50 * 0.02 * 1.65 * 1 = 1650
	v, err := ValueAtRisk(d("1000"), d("50"), d("0.02"), d("0.95"), d("1"))
	require.NoError(t, err)
	assert.True(t, v.Equal(d("1650")), "got %s", v)
}

func TestValueAtRiskShortPosition(t *testing.T) {
	long, err := ValueAtRisk(d("1000"), d("50"), d("0.02"), d("0.95"), d("1"))
	require.NoError(t, err)
	short, err := ValueAtRisk(d("-1000"), d("50"), d("0.02"), d("0.95"), d("1"))
	require.NoError(t, err)
	assert.True(t, long.Equal(short))
}

func TestValueAtRiskConfidenceBands(t *testing.T) {
	cases := []struct {
		confidence string
		want       string
	}{
		{"0.90", "1280"},
		{"0.94", "1280"},
		{"0.95", "1650"},
		{"0.98", "1650"},
		{"0.99", "2330"},
	}
	for _, tc := range cases {
		v, err := ValueAtRisk(d("1000"), d("50"), d("0.02"), d(tc.confidence), d("1"))
		require.NoError(t, err, tc.confidence)
		assert.True(t, v.Equal(d(tc.want)), "confidence %s: got %s want %s", tc.confidence, v, tc.want)
	}
}

func TestValueAtRiskHorizonScaling(t *testing.T) {
	// 4-day horizon doubles the 1-day figure.
	one, err := ValueAtRisk(d("1000"), d("50"), d("0.02"), d("0.95"), d("1"))
	require.NoError(t, err)
	four, err := ValueAtRisk(d("1000"), d("50"), d("0.02"), d("0.95"), d("4"))
	require.NoError(t, err)
	assert.True(t, four.Sub(one.Mul(d("2"))).Abs().LessThan(d("0.0001")), "got %s", four)
}

func TestValueAtRiskRejectsBadInput(t *testing.T) {
	_, err := ValueAtRisk(d("1000"), d("0"), d("0.02"), d("0.95"), d("1"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ValueAtRisk(d("1000"), d("50"), d("-0.01"), d("0.95"), d("1"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ValueAtRisk(d("1000"), d("50"), d("0.02"), d("0.80"), d("1"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ValueAtRisk(d("1000"), d("50"), d("0.02"), d("0.95"), d("0"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}
