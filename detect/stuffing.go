// Package detect holds the flow classifiers: quote stuffing over the
// engine's own quote/cancel churn, and adverse selection over its fills.
// Both are deterministic weighted-rule classifiers; every threshold is a
// policy constant surfaced through config.
package detect

import (
	"sync"
	"time"
)

// StuffingAction is the recommended response to a stuffing score.
type StuffingAction string

const (
	StuffingNone     StuffingAction = "NONE"
	StuffingWarn     StuffingAction = "WARN"
	StuffingThrottle StuffingAction = "THROTTLE"
	StuffingBlock    StuffingAction = "BLOCK"
)

// StuffingConfig enumerates the classifier thresholds and point weights.
type StuffingConfig struct {
	Window time.Duration

	QuoteRateHigh float64 // quotes/sec scoring full points
	QuoteRateLow  float64
	QuotePtsHigh  int
	QuotePtsLow   int

	CancelRateHigh float64
	CancelRateLow  float64
	CancelPtsHigh  int
	CancelPtsLow   int

	QTRatioHigh float64 // quote-to-trade ratio
	QTRatioLow  float64
	QTPtsHigh   int
	QTPtsLow    int

	LifetimeFast time.Duration // avg quote lifetime scoring full points
	LifetimeSlow time.Duration
	LifePtsFast  int
	LifePtsSlow  int

	BlockScore    int
	ThrottleScore int
	WarnScore     int
	StuffingScore int // IsStuffing cutoff
}

// DefaultStuffingConfig returns the stock rule weights.
func DefaultStuffingConfig() StuffingConfig {
	return StuffingConfig{
		Window:         time.Second,
		QuoteRateHigh:  100,
		QuoteRateLow:   50,
		QuotePtsHigh:   30,
		QuotePtsLow:    15,
		CancelRateHigh: 50,
		CancelRateLow:  25,
		CancelPtsHigh:  30,
		CancelPtsLow:   15,
		QTRatioHigh:    100,
		QTRatioLow:     50,
		QTPtsHigh:      25,
		QTPtsLow:       12,
		LifetimeFast:   100 * time.Millisecond,
		LifetimeSlow:   500 * time.Millisecond,
		LifePtsFast:    15,
		LifePtsSlow:    7,
		BlockScore:     80,
		ThrottleScore:  60,
		WarnScore:      40,
		StuffingScore:  50,
	}
}

// StuffingMetrics is a point-in-time snapshot over the sliding window.
// Advisory only; never persisted as engine state.
type StuffingMetrics struct {
	WindowEnd        time.Time
	QuoteRate        float64
	CancelRate       float64
	QuoteToTrade     float64
	AvgQuoteLifetime time.Duration
	Score            int
	Action           StuffingAction
	IsStuffing       bool
}

// StuffingDetector accumulates quote/cancel/trade events and scores the
// window on demand. Safe for concurrent use.
type StuffingDetector struct {
	mu        sync.Mutex
	cfg       StuffingConfig
	quotes    []time.Time
	cancels   []time.Time
	trades    []time.Time
	lifetimes []lifetimeObs
}

type lifetimeObs struct {
	ts       time.Time
	lifetime time.Duration
}

// NewStuffingDetector creates a detector with the given thresholds.
func NewStuffingDetector(cfg StuffingConfig) *StuffingDetector {
	if cfg.Window <= 0 {
		cfg.Window = time.Second
	}
	return &StuffingDetector{cfg: cfg}
}

// RecordQuote notes a quote placement.
func (d *StuffingDetector) RecordQuote(ts time.Time) {
	d.mu.Lock()
	d.quotes = append(d.quotes, ts)
	d.mu.Unlock()
}

// RecordCancel notes a quote cancellation; lifetime is how long the quote
// rested before it was pulled.
func (d *StuffingDetector) RecordCancel(ts time.Time, lifetime time.Duration) {
	d.mu.Lock()
	d.cancels = append(d.cancels, ts)
	d.lifetimes = append(d.lifetimes, lifetimeObs{ts: ts, lifetime: lifetime})
	d.mu.Unlock()
}

// RecordTrade notes an execution against one of our quotes.
func (d *StuffingDetector) RecordTrade(ts time.Time) {
	d.mu.Lock()
	d.trades = append(d.trades, ts)
	d.mu.Unlock()
}

func trim(events []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(events) && events[i].Before(cutoff) {
		i++
	}
	return events[i:]
}

// Evaluate scores the window ending at now. Each of the four components
// contributes points independently; the sum is monotonic in every rate.
func (d *StuffingDetector) Evaluate(now time.Time) StuffingMetrics {
	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := now.Add(-d.cfg.Window)
	d.quotes = trim(d.quotes, cutoff)
	d.cancels = trim(d.cancels, cutoff)
	d.trades = trim(d.trades, cutoff)
	j := 0
	for j < len(d.lifetimes) && d.lifetimes[j].ts.Before(cutoff) {
		j++
	}
	d.lifetimes = d.lifetimes[j:]

	secs := d.cfg.Window.Seconds()
	m := StuffingMetrics{
		WindowEnd:  now,
		QuoteRate:  float64(len(d.quotes)) / secs,
		CancelRate: float64(len(d.cancels)) / secs,
	}

	switch {
	case len(d.trades) > 0:
		m.QuoteToTrade = float64(len(d.quotes)) / float64(len(d.trades))
	case len(d.quotes) > 0:
		// Quotes with zero executions: churn without intent, scored at
		// the top of the ratio scale.
		m.QuoteToTrade = d.cfg.QTRatioHigh
	}

	if len(d.lifetimes) > 0 {
		var total time.Duration
		for _, lt := range d.lifetimes {
			total += lt.lifetime
		}
		m.AvgQuoteLifetime = total / time.Duration(len(d.lifetimes))
	}

	score := 0
	score += band(m.QuoteRate, d.cfg.QuoteRateHigh, d.cfg.QuoteRateLow, d.cfg.QuotePtsHigh, d.cfg.QuotePtsLow)
	score += band(m.CancelRate, d.cfg.CancelRateHigh, d.cfg.CancelRateLow, d.cfg.CancelPtsHigh, d.cfg.CancelPtsLow)
	score += band(m.QuoteToTrade, d.cfg.QTRatioHigh, d.cfg.QTRatioLow, d.cfg.QTPtsHigh, d.cfg.QTPtsLow)
	if m.AvgQuoteLifetime > 0 {
		if m.AvgQuoteLifetime < d.cfg.LifetimeFast {
			score += d.cfg.LifePtsFast
		} else if m.AvgQuoteLifetime < d.cfg.LifetimeSlow {
			score += d.cfg.LifePtsSlow
		}
	}
	if score > 100 {
		score = 100
	}
	m.Score = score

	switch {
	case score >= d.cfg.BlockScore:
		m.Action = StuffingBlock
	case score >= d.cfg.ThrottleScore:
		m.Action = StuffingThrottle
	case score >= d.cfg.WarnScore:
		m.Action = StuffingWarn
	default:
		m.Action = StuffingNone
	}
	m.IsStuffing = score >= d.cfg.StuffingScore

	return m
}

func band(v, high, low float64, ptsHigh, ptsLow int) int {
	switch {
	case v >= high:
		return ptsHigh
	case v >= low:
		return ptsLow
	default:
		return 0
	}
}
