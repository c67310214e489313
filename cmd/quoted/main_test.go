package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mm-quote-engine/engine"
	"mm-quote-engine/market"
	"mm-quote-engine/risk"
	"mm-quote-engine/stream"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestStateReportsStress(t *testing.T) {
	log := zap.NewNop()
	eng := engine.New(engine.DefaultEngineConfig(), engine.Components{})
	require.NoError(t, eng.AddInstrument(engine.InstrumentConfig{
		Symbol:         "AAPL",
		TargetPosition: decimal.Zero,
		MaxPosition:    d("1000"),
		BaseSpreadBps:  d("20"),
		BidSize:        d("500"),
		AskSize:        d("500"),
	}))
	require.NoError(t, eng.Start(context.Background()))
	t.Cleanup(eng.Stop)

	require.NoError(t, eng.OnFill(context.Background(), market.Fill{
		Symbol: "AAPL", Side: market.SideBuy, Price: d("100"), Quantity: d("10"),
		MidAtFill: d("100"), Timestamp: time.Now(),
	}))
	deadline := time.Now().Add(2 * time.Second)
	for {
		if v, ok := eng.View("AAPL"); ok && v.Inventory.Position.Equal(d("10")) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("fill never applied")
		}
		time.Sleep(5 * time.Millisecond)
	}

	monitor := risk.NewMonitor(risk.DefaultLimits(), nil)
	srv := httptest.NewServer(routes(eng, stream.NewHub(log), monitor, log))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var st stateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	require.Len(t, st.Instruments, 1)
	assert.Empty(t, st.Breaches)

	// 10 long at mark 100: the 20% drop is the worst case at -200.
	require.NotNil(t, st.Stress)
	assert.Equal(t, "down_20", st.Stress.WorstCase.Scenario.Name)
	assert.True(t, st.Stress.WorstCase.PnL.Equal(d("-200")), "got %s", st.Stress.WorstCase.PnL)
}
