// pnlreport decomposes a period's fills into a P&L attribution report.
// Input is a JSONL file with one fill per line, the format the quoted
// daemon publishes on its fill stream.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"mm-quote-engine/config"
	"mm-quote-engine/market"
	"mm-quote-engine/numeric"
	"mm-quote-engine/pnl"
)

func main() {
	fillsPath := flag.String("fills", "", "JSONL fills file (required)")
	cfgPath := flag.String("config", "", "optional config file for rebate/adverse settings")
	symbol := flag.String("symbol", "", "restrict to one symbol (default all)")
	sinceStr := flag.String("since", "", "only fills at or after this RFC3339 instant")
	capital := flag.Float64("capital", 10_000_000, "capital base for return figures")
	hedging := flag.Float64("hedging", 0, "hedging cost over the period")
	volatility := flag.Float64("vol", 0, "period volatility for risk-adjusted return")
	uptime := flag.Float64("uptime", 1, "compliant quoting uptime ratio in [0, 1]")
	competitor := flag.Float64("competitorSpreadBps", 0, "competitor average spread for the competitive score")
	flag.Parse()

	if *fillsPath == "" {
		fmt.Fprintln(os.Stderr, "-fills is required")
		os.Exit(1)
	}

	var since time.Time
	if *sinceStr != "" {
		var err error
		since, err = time.Parse(time.RFC3339Nano, *sinceStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse since: %v\n", err)
			os.Exit(1)
		}
	}

	pnlCfg := pnl.DefaultConfig()
	if *cfgPath != "" {
		cfg, err := config.LoadWithEnvOverrides(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		pnlCfg = cfg.PnL.Attribution()
	}

	fills, err := readFills(*fillsPath, *symbol, since)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read fills: %v\n", err)
		os.Exit(1)
	}
	if len(fills) == 0 {
		fmt.Fprintln(os.Stderr, "no fills matched")
		os.Exit(1)
	}

	start, end := fills[0].Timestamp, fills[0].Timestamp
	for _, f := range fills {
		if f.Timestamp.Before(start) {
			start = f.Timestamp
		}
		if f.Timestamp.After(end) {
			end = f.Timestamp
		}
	}

	attr, err := pnl.Attribute(
		fills,
		decimal.NewFromFloat(*hedging),
		decimal.NewFromFloat(*capital),
		decimal.NewFromFloat(*volatility),
		pnlCfg,
		start, end,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "attribution: %v\n", err)
		os.Exit(1)
	}

	rep := report{Fills: len(fills), Attribution: attr}

	perf, err := pnl.ScorePerformance(attr, decimal.NewFromFloat(*uptime), winRate(fills))
	if err != nil {
		fmt.Fprintf(os.Stderr, "performance: %v\n", err)
		os.Exit(1)
	}
	rep.Performance = &perf

	if *competitor > 0 {
		if our := avgSpreadBps(fills); our.Sign() > 0 {
			score, err := pnl.CompetitiveScore(our, decimal.NewFromFloat(*competitor))
			if err == nil {
				rep.CompetitiveScore = &score
			}
		}
	}

	out, _ := json.MarshalIndent(rep, "", "  ")
	fmt.Println(string(out))
}

type report struct {
	Fills            int              `json:"fills"`
	Attribution      pnl.Attribution  `json:"attribution"`
	Performance      *pnl.Performance `json:"performance,omitempty"`
	CompetitiveScore *decimal.Decimal `json:"competitiveScore,omitempty"`
}

// winRate is the share of fills executed inside the prevailing mid, the
// fills that actually captured spread.
func winRate(fills []market.Fill) decimal.Decimal {
	if len(fills) == 0 {
		return decimal.Zero
	}
	wins := 0
	for _, f := range fills {
		edge := f.MidAtFill.Sub(f.Price)
		if f.Side == market.SideSell {
			edge = edge.Neg()
		}
		if edge.Sign() > 0 {
			wins++
		}
	}
	return decimal.NewFromInt(int64(wins)).Div(decimal.NewFromInt(int64(len(fills))))
}

// avgSpreadBps estimates the average quoted spread from fill edges: each
// fill sits half a spread away from the mid.
func avgSpreadBps(fills []market.Fill) decimal.Decimal {
	total := decimal.Zero
	n := 0
	for _, f := range fills {
		if f.MidAtFill.Sign() <= 0 {
			continue
		}
		half := f.MidAtFill.Sub(f.Price).Abs()
		total = total.Add(half.Mul(numeric.Two).Mul(numeric.Ten4).Div(f.MidAtFill))
		n++
	}
	if n == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(n)))
}

func readFills(path, symbol string, since time.Time) ([]market.Fill, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var fills []market.Fill
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var fill market.Fill
		if err := json.Unmarshal(raw, &fill); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if symbol != "" && fill.Symbol != symbol {
			continue
		}
		if !since.IsZero() && fill.Timestamp.Before(since) {
			continue
		}
		fills = append(fills, fill)
	}
	return fills, scanner.Err()
}
