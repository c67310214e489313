package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStressTestLongBook(t *testing.T) {
	book := []Position{
		{Symbol: "AAPL", Quantity: d("1000"), Mark: d("100")},
		{Symbol: "MSFT", Quantity: d("500"), Mark: d("200")},
	}
	res, err := StressTest(book, DefaultScenarios())
	require.NoError(t, err)
	require.Len(t, res.Results, 5)

	// Gross 200k long: -20% loses 40k and is the worst case.
	assert.Equal(t, "down_20", res.WorstCase.Scenario.Name)
	assert.True(t, res.WorstCase.PnL.Equal(d("-40000")), "got %s", res.WorstCase.PnL)
}

func TestStressTestShortBookWorstOnRally(t *testing.T) {
	book := []Position{{Symbol: "AAPL", Quantity: d("-1000"), Mark: d("100")}}
	res, err := StressTest(book, DefaultScenarios())
	require.NoError(t, err)

	assert.Equal(t, "up_10", res.WorstCase.Scenario.Name)
	assert.True(t, res.WorstCase.PnL.Equal(d("-10000")), "got %s", res.WorstCase.PnL)
}

func TestStressTestHedgedBookNets(t *testing.T) {
	// Long and short legs of equal notional cancel under every shock.
	book := []Position{
		{Symbol: "AAPL", Quantity: d("1000"), Mark: d("100")},
		{Symbol: "SPY", Quantity: d("-200"), Mark: d("500")},
	}
	res, err := StressTest(book, DefaultScenarios())
	require.NoError(t, err)
	for _, r := range res.Results {
		assert.True(t, r.PnL.IsZero(), "%s: got %s", r.Scenario.Name, r.PnL)
	}
}

func TestStressTestEmptyBook(t *testing.T) {
	res, err := StressTest(nil, DefaultScenarios())
	require.NoError(t, err)
	assert.True(t, res.WorstCase.PnL.IsZero())
}

func TestStressTestRejectsBadInput(t *testing.T) {
	_, err := StressTest([]Position{{Symbol: "AAPL", Quantity: d("1"), Mark: decimal.Zero}}, DefaultScenarios())
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = StressTest(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
