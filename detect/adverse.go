package detect

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"mm-quote-engine/market"
)

// AdverseAction is the recommended quoting response to toxic flow.
type AdverseAction string

const (
	AdverseContinue AdverseAction = "CONTINUE"
	AdverseWiden    AdverseAction = "WIDEN_SPREAD"
	AdverseReduce   AdverseAction = "REDUCE_SIZE"
	AdversePause    AdverseAction = "PAUSE_QUOTING"
)

// AdverseConfig holds the action ladder thresholds on the adverse-fill
// ratio and the retention window for observations.
type AdverseConfig struct {
	Window      time.Duration
	PauseRatio  float64
	ReduceRatio float64
	WidenRatio  float64
}

// DefaultAdverseConfig returns the stock ladder.
func DefaultAdverseConfig() AdverseConfig {
	return AdverseConfig{
		Window:      5 * time.Minute,
		PauseRatio:  0.6,
		ReduceRatio: 0.5,
		WidenRatio:  0.4,
	}
}

// AdverseMetrics is a point-in-time snapshot of fill toxicity.
type AdverseMetrics struct {
	TotalFills   int
	AdverseFills int
	AdverseRate  float64
	Action       AdverseAction
}

// IsAdverse classifies one fill: the move is adverse when the price went
// against the side the engine took. A buy followed by a lower price means
// the counterparty knew something; same for a sell followed by a rally.
func IsAdverse(f market.Fill, priceAfter decimal.Decimal) bool {
	if f.Side == market.SideBuy {
		return priceAfter.LessThan(f.Price)
	}
	return priceAfter.GreaterThan(f.Price)
}

type adverseObs struct {
	ts      time.Time
	adverse bool
}

// AdverseDetector accumulates classified fills over a sliding window.
// Safe for concurrent use.
type AdverseDetector struct {
	mu  sync.Mutex
	cfg AdverseConfig
	obs []adverseObs
}

// NewAdverseDetector creates a detector with the given ladder.
func NewAdverseDetector(cfg AdverseConfig) *AdverseDetector {
	if cfg.Window <= 0 {
		cfg.Window = 5 * time.Minute
	}
	return &AdverseDetector{cfg: cfg}
}

// Record classifies a fill against the price observed after it.
func (d *AdverseDetector) Record(f market.Fill, priceAfter decimal.Decimal) {
	d.mu.Lock()
	d.obs = append(d.obs, adverseObs{ts: f.Timestamp, adverse: IsAdverse(f, priceAfter)})
	d.mu.Unlock()
}

// Evaluate returns the adverse ratio over the window ending at now plus
// the recommended action.
func (d *AdverseDetector) Evaluate(now time.Time) AdverseMetrics {
	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := now.Add(-d.cfg.Window)
	i := 0
	for i < len(d.obs) && d.obs[i].ts.Before(cutoff) {
		i++
	}
	d.obs = d.obs[i:]

	m := AdverseMetrics{TotalFills: len(d.obs), Action: AdverseContinue}
	if len(d.obs) == 0 {
		return m
	}
	for _, o := range d.obs {
		if o.adverse {
			m.AdverseFills++
		}
	}
	m.AdverseRate = float64(m.AdverseFills) / float64(m.TotalFills)

	switch {
	case m.AdverseRate > d.cfg.PauseRatio:
		m.Action = AdversePause
	case m.AdverseRate > d.cfg.ReduceRatio:
		m.Action = AdverseReduce
	case m.AdverseRate > d.cfg.WidenRatio:
		m.Action = AdverseWiden
	}
	return m
}
