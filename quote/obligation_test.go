package quote

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obligationConfig() ObligationConfig {
	return ObligationConfig{
		MinQuoteTime:   time.Minute,
		MaxSpreadBps:   d("50"),
		MinSize:        d("1"),
		MaxNBBODistBps: d("25"),
	}
}

func TestObligationUptimeAccrues(t *testing.T) {
	now := time.Now()
	m := NewObligationMonitor(obligationConfig())
	q := makeQuote(t, now)

	m.Observe(q, q.Mid, 30*time.Second, now)
	assert.Equal(t, 30*time.Second, m.Uptime())
	assert.Empty(t, m.Violations())
	assert.False(t, m.MeetsMinQuoteTime())

	m.Observe(q, q.Mid, 30*time.Second, now.Add(30*time.Second))
	assert.True(t, m.MeetsMinQuoteTime())
}

func TestObligationSpreadViolationSeverity(t *testing.T) {
	now := time.Now()
	m := NewObligationMonitor(obligationConfig())

	wide, err := GenerateTwoSided("X", d("100"), d("80"), d("5"), d("5"), decimal.Zero, now)
	require.NoError(t, err)
	m.Observe(wide, wide.Mid, time.Second, now)

	v := m.Violations()
	require.Len(t, v, 1)
	assert.Equal(t, ViolationSpreadTooWide, v[0].Type)
	assert.Equal(t, SeverityMinor, v[0].Severity)
	assert.Zero(t, m.Uptime())

	// Beyond twice the max the grade steps up.
	veryWide, err := GenerateTwoSided("X", d("100"), d("120"), d("5"), d("5"), decimal.Zero, now)
	require.NoError(t, err)
	m.Observe(veryWide, veryWide.Mid, time.Second, now)
	v = m.Violations()
	require.Len(t, v, 2)
	assert.Equal(t, SeverityMajor, v[1].Severity)
}

func TestObligationSizeAndNBBO(t *testing.T) {
	now := time.Now()
	m := NewObligationMonitor(obligationConfig())

	small, err := GenerateTwoSided("X", d("100"), d("20"), d("0.5"), d("5"), decimal.Zero, now)
	require.NoError(t, err)
	m.Observe(small, small.Mid, time.Second, now)
	require.Len(t, m.Violations(), 1)
	assert.Equal(t, ViolationSizeTooSmall, m.Violations()[0].Type)

	q := makeQuote(t, now)
	// NBBO mid 1% away: 100 bps >> 25 bps allowance.
	m.Observe(q, d("101"), time.Second, now)
	v := m.Violations()
	require.Len(t, v, 2)
	assert.Equal(t, ViolationTooFarFromNBBO, v[1].Type)
	assert.Equal(t, SeverityCritical, v[1].Severity)
}

func TestObligationQuoteDown(t *testing.T) {
	now := time.Now()
	m := NewObligationMonitor(obligationConfig())
	q := makeQuote(t, now).WithState(StateWithdrawn)

	m.Observe(q, q.Mid, time.Second, now)
	require.Len(t, m.Violations(), 1)
	assert.Equal(t, ViolationQuoteDown, m.Violations()[0].Type)
	assert.Zero(t, m.Uptime())
}
