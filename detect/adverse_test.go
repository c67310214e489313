package detect

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"mm-quote-engine/market"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func adverseFill(side market.Side, price string, ts time.Time) market.Fill {
	return market.Fill{
		Symbol:    "ETHUSDC",
		Side:      side,
		Price:     d(price),
		Quantity:  d("1"),
		Timestamp: ts,
	}
}

func TestIsAdverse(t *testing.T) {
	now := time.Now()

	buy := adverseFill(market.SideBuy, "100", now)
	assert.True(t, IsAdverse(buy, d("99")), "bought, price fell")
	assert.False(t, IsAdverse(buy, d("101")), "bought, price rose")
	assert.False(t, IsAdverse(buy, d("100")), "unchanged is not adverse")

	sell := adverseFill(market.SideSell, "100", now)
	assert.True(t, IsAdverse(sell, d("101")), "sold, price rose")
	assert.False(t, IsAdverse(sell, d("99")), "sold, price fell")
}

func TestAdverseActionLadder(t *testing.T) {
	cases := []struct {
		name    string
		adverse int
		total   int
		want    AdverseAction
	}{
		{"clean flow", 1, 10, AdverseContinue},
		{"widen above 0.4", 45, 100, AdverseWiden},
		{"reduce above 0.5", 55, 100, AdverseReduce},
		{"pause above 0.6", 7, 10, AdversePause},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			now := time.Now()
			det := NewAdverseDetector(DefaultAdverseConfig())
			for i := 0; i < tc.total; i++ {
				f := adverseFill(market.SideBuy, "100", now)
				if i < tc.adverse {
					det.Record(f, d("99"))
				} else {
					det.Record(f, d("101"))
				}
			}
			m := det.Evaluate(now)
			assert.Equal(t, tc.total, m.TotalFills)
			assert.Equal(t, tc.adverse, m.AdverseFills)
			assert.Equal(t, tc.want, m.Action)
		})
	}
}

func TestAdverseBoundaryIsExclusive(t *testing.T) {
	now := time.Now()
	det := NewAdverseDetector(DefaultAdverseConfig())
	// Exactly 0.4: the ladder uses strict greater-than.
	for i := 0; i < 10; i++ {
		f := adverseFill(market.SideBuy, "100", now)
		if i < 4 {
			det.Record(f, d("99"))
		} else {
			det.Record(f, d("101"))
		}
	}
	assert.Equal(t, AdverseContinue, det.Evaluate(now).Action)
}

func TestAdverseWindowSlides(t *testing.T) {
	now := time.Now()
	det := NewAdverseDetector(DefaultAdverseConfig())
	old := adverseFill(market.SideBuy, "100", now.Add(-10*time.Minute))
	det.Record(old, d("99"))

	m := det.Evaluate(now)
	assert.Equal(t, 0, m.TotalFills)
	assert.Equal(t, AdverseContinue, m.Action)
}

func TestAdverseEmpty(t *testing.T) {
	det := NewAdverseDetector(DefaultAdverseConfig())
	m := det.Evaluate(time.Now())
	assert.Equal(t, 0, m.TotalFills)
	assert.Equal(t, 0.0, m.AdverseRate)
	assert.Equal(t, AdverseContinue, m.Action)
}
