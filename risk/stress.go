package risk

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Position is one instrument's exposure handed to the stress tester.
type Position struct {
	Symbol   string
	Quantity decimal.Decimal // signed
	Mark     decimal.Decimal
}

// Scenario is one stress shock, a relative price move applied to the book.
type Scenario struct {
	Name     string
	PricePct decimal.Decimal // -0.2 = prices drop 20%
}

// DefaultScenarios cover the usual shock grid.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{Name: "down_5", PricePct: decimal.RequireFromString("-0.05")},
		{Name: "down_10", PricePct: decimal.RequireFromString("-0.10")},
		{Name: "down_20", PricePct: decimal.RequireFromString("-0.20")},
		{Name: "up_5", PricePct: decimal.RequireFromString("0.05")},
		{Name: "up_10", PricePct: decimal.RequireFromString("0.10")},
	}
}

// ScenarioResult is the P&L of the book under one scenario.
type ScenarioResult struct {
	Scenario Scenario
	PnL      decimal.Decimal
}

// StressResult summarizes a stress run.
type StressResult struct {
	Results   []ScenarioResult
	WorstCase ScenarioResult
}

// StressTest applies each scenario to the whole book. Scenario P&L is
// sum(quantity * mark * shock); the worst case is the most negative.
func StressTest(positions []Position, scenarios []Scenario) (StressResult, error) {
	if len(scenarios) == 0 {
		return StressResult{}, fmt.Errorf("%w: no scenarios", ErrInvalidInput)
	}
	for _, p := range positions {
		if p.Mark.Sign() <= 0 {
			return StressResult{}, fmt.Errorf("%w: %s mark %s must be > 0", ErrInvalidInput, p.Symbol, p.Mark)
		}
	}

	var out StressResult
	for i, sc := range scenarios {
		pnl := decimal.Zero
		for _, p := range positions {
			pnl = pnl.Add(p.Quantity.Mul(p.Mark).Mul(sc.PricePct))
		}
		res := ScenarioResult{Scenario: sc, PnL: pnl}
		out.Results = append(out.Results, res)
		if i == 0 || pnl.LessThan(out.WorstCase.PnL) {
			out.WorstCase = res
		}
	}
	return out, nil
}
