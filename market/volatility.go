package market

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// VolatilityCalculator computes realized volatility over a rolling window of
// mid prices. Log returns are taken in float64; only the final figure is
// converted back to decimal, so the value is a statistic, not ledger math.
type VolatilityCalculator struct {
	windowSize int
	prices     []float64
	times      []time.Time
}

// NewVolatilityCalculator creates a calculator over windowSize samples.
func NewVolatilityCalculator(windowSize int) *VolatilityCalculator {
	if windowSize < 2 {
		windowSize = 2
	}
	return &VolatilityCalculator{
		windowSize: windowSize,
		prices:     make([]float64, 0, windowSize),
		times:      make([]time.Time, 0, windowSize),
	}
}

// AddPrice records a new mid price observation.
func (v *VolatilityCalculator) AddPrice(mid decimal.Decimal, ts time.Time) {
	f, _ := mid.Float64()
	if f <= 0 {
		return
	}
	v.prices = append(v.prices, f)
	v.times = append(v.times, ts)
	if len(v.prices) > v.windowSize {
		v.prices = v.prices[1:]
		v.times = v.times[1:]
	}
}

// IsReady reports whether enough samples exist to produce a figure.
func (v *VolatilityCalculator) IsReady() bool {
	return len(v.prices) >= 2
}

// RealizedVol returns the standard deviation of log returns over the
// window, scaled by sqrt of the observation count.
func (v *VolatilityCalculator) RealizedVol() decimal.Decimal {
	if len(v.prices) < 2 {
		return decimal.Zero
	}

	returns := make([]float64, 0, len(v.prices)-1)
	for i := 1; i < len(v.prices); i++ {
		returns = append(returns, math.Log(v.prices[i]/v.prices[i-1]))
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))

	vol := math.Sqrt(variance) * math.Sqrt(float64(len(returns)))
	return decimal.NewFromFloat(vol)
}
