package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mm-quote-engine/detect"
	"mm-quote-engine/inventory"
	"mm-quote-engine/market"
	"mm-quote-engine/metrics"
	"mm-quote-engine/numeric"
	"mm-quote-engine/quote"
	"mm-quote-engine/spread"
	"mm-quote-engine/stream"
)

// InstrumentView is a point-in-time copy of one worker's state.
type InstrumentView struct {
	Symbol     string
	Quote      *quote.Quote
	Inventory  inventory.Inventory
	Spread     spread.Result
	Volatility decimal.Decimal
	Adverse    detect.AdverseMetrics
	Stuffing   detect.StuffingMetrics
	HedgePlan  *inventory.HedgePlan
	UpdatedAt  time.Time

	ObligationUptime time.Duration
	Violations       int
}

// worker owns all mutable state for one instrument. Only run touches the
// fields below the channels.
type worker struct {
	engine    *Engine
	ic        InstrumentConfig
	snapshots chan market.Snapshot
	fills     chan market.Fill
	view      atomic.Pointer[InstrumentView]

	inv        inventory.Inventory
	current    *quote.Quote
	vol        *market.VolatilityCalculator
	adverse    *detect.AdverseDetector
	stuffing   *detect.StuffingDetector
	obligation *quote.ObligationMonitor
	observedAt time.Time
	pending    []market.Fill // fills awaiting the next mid for classification
	spreadRs   spread.Result
	hedge      *inventory.HedgePlan
}

func newWorker(e *Engine, ic InstrumentConfig, inv inventory.Inventory) *worker {
	cfg := e.config()
	w := &worker{
		engine:     e,
		ic:         ic,
		snapshots:  make(chan market.Snapshot, 64),
		fills:      make(chan market.Fill, 64),
		inv:        inv,
		vol:        market.NewVolatilityCalculator(cfg.VolWindow),
		adverse:    detect.NewAdverseDetector(cfg.AdverseConfig),
		stuffing:   detect.NewStuffingDetector(cfg.StuffingConfig),
		obligation: quote.NewObligationMonitor(cfg.Obligations),
	}
	w.publishView(time.Time{})
	return w
}

func (w *worker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.withdraw(time.Now())
			return
		case s := <-w.snapshots:
			w.onSnapshot(s)
		case f := <-w.fills:
			w.onFill(f)
		}
	}
}

func (w *worker) onSnapshot(s market.Snapshot) {
	cfg := w.engine.config()
	now := time.Now()

	if err := s.CheckFresh(now, cfg.MaxSnapshotAge); err != nil {
		metrics.StaleSnapshots.WithLabelValues(w.ic.Symbol).Inc()
		w.engine.log.Warn("stale snapshot", zap.String("symbol", w.ic.Symbol), zap.Error(err))
		return
	}

	// Fills recorded since the previous snapshot are classified against
	// the fresh mid.
	for _, f := range w.pending {
		w.adverse.Record(f, s.Mid)
	}
	w.pending = w.pending[:0]

	w.vol.AddPrice(s.Mid, s.Timestamp)
	if w.inv.Position.Sign() != 0 {
		if inv, err := inventory.Revalue(w.inv, s.Mid, now); err == nil {
			w.inv = inv
		}
	}

	adv := w.adverse.Evaluate(now)
	stf := w.stuffing.Evaluate(now)
	metrics.ObserveDetectors(w.ic.Symbol, adv.AdverseRate, stf.Score)
	w.engine.publish(stream.EventDetector, w.ic.Symbol, map[string]any{
		"adverse_rate":   adv.AdverseRate,
		"adverse_action": adv.Action,
		"stuffing_score": stf.Score,
		"stuffing_action": stf.Action,
	}, now)

	if stf.Action == detect.StuffingBlock || adv.Action == detect.AdversePause {
		w.withdraw(now)
		w.spreadRs = spread.Result{}
		w.observeObligation(s.Mid, now)
		w.publishView(now)
		return
	}

	w.requote(cfg, s, adv, stf, now)
	w.observeObligation(s.Mid, now)
	w.publishView(now)
}

// observeObligation scores the standing quote against the quoting
// obligations. The interval since the previous snapshot counts toward
// uptime when the quote is compliant.
func (w *worker) observeObligation(nbboMid decimal.Decimal, now time.Time) {
	if w.current == nil {
		return
	}
	var elapsed time.Duration
	if !w.observedAt.IsZero() {
		elapsed = now.Sub(w.observedAt)
	}
	w.observedAt = now
	w.obligation.Observe(*w.current, nbboMid, elapsed, now)
}

func (w *worker) requote(cfg Config, s market.Snapshot, adv detect.AdverseMetrics, stf detect.StuffingMetrics, now time.Time) {
	ratio := decimal.Zero
	if r, err := numeric.SafeDiv(w.inv.Position, w.inv.MaxPosition); err == nil {
		ratio = r
	}

	realizedVol := decimal.Zero
	if w.vol.IsReady() {
		realizedVol = w.vol.RealizedVol()
	}

	optimizer := spread.NewOptimizer(cfg.SpreadConfig)
	// Without a competitor feed the competitor spread equals base, so the
	// competition term stays neutral.
	rs, err := optimizer.Calculate(
		w.ic.BaseSpreadBps,
		realizedVol,
		ratio,
		w.ic.BaseSpreadBps,
		decimal.NewFromFloat(adv.AdverseRate),
		now,
	)
	if err != nil {
		w.engine.log.Error("spread optimization failed", zap.String("symbol", w.ic.Symbol), zap.Error(err))
		return
	}
	w.spreadRs = rs

	if w.current != nil && w.current.State == quote.StateActive {
		dec, err := quote.DetermineUpdate(*w.current, s.Mid, ratio, cfg.UpdatePolicy, now)
		if err != nil {
			w.engine.log.Error("update decision failed", zap.String("symbol", w.ic.Symbol), zap.Error(err))
			return
		}
		if !dec.ShouldUpdate {
			return
		}
		if stf.Action == detect.StuffingThrottle && dec.Urgency != quote.UrgencyHigh {
			return
		}
		metrics.QuoteUpdates.WithLabelValues(w.ic.Symbol, string(dec.Reason)).Inc()
		w.cancelCurrent(now)
	}

	bidSize, askSize := w.ic.BidSize, w.ic.AskSize
	if adv.Action == detect.AdverseReduce {
		bidSize = bidSize.Div(numeric.Two)
		askSize = askSize.Div(numeric.Two)
	}

	skew := numeric.Clamp(ratio.Abs().Mul(cfg.SkewFactor), decimal.Zero, decimal.RequireFromString("0.95"))
	q, err := quote.GenerateTwoSided(w.ic.Symbol, s.Mid, rs.OptimalSpread, bidSize, askSize, skew, now)
	if err != nil {
		w.engine.log.Error("quote generation failed", zap.String("symbol", w.ic.Symbol), zap.Error(err))
		return
	}
	w.current = &q
	w.stuffing.RecordQuote(now)

	spreadFloat, _ := q.SpreadBps.Float64()
	metrics.ObserveQuote(w.ic.Symbol, spreadFloat)
	w.engine.publish(stream.EventQuote, w.ic.Symbol, q, now)
}

func (w *worker) onFill(f market.Fill) {
	cfg := w.engine.config()
	now := time.Now()

	mark := f.MidAtFill
	if mark.Sign() <= 0 {
		mark = f.Price
	}
	inv, err := inventory.ApplyFill(w.inv, f, mark, cfg.InventoryPolicy, now)
	if err != nil {
		w.engine.log.Error("fill rejected", zap.String("symbol", w.ic.Symbol), zap.Error(err))
		return
	}
	w.inv = inv
	w.pending = append(w.pending, f)
	w.stuffing.RecordTrade(f.Timestamp)

	position, _ := inv.Position.Float64()
	ratio := 0.0
	if r, err := numeric.SafeDiv(inv.Position, inv.MaxPosition); err == nil {
		ratio, _ = r.Float64()
	}
	metrics.ObserveFill(w.ic.Symbol, string(f.Side), position, ratio)
	w.engine.publish(stream.EventFill, w.ic.Symbol, f, now)

	w.hedge = nil
	if inv.NeedsHedging && len(cfg.HedgeCandidates) > 0 {
		plan, err := inventory.BuildHedgePlan(inv, cfg.HedgeCandidates, cfg.MaxHedgeLegSize, now)
		if err != nil {
			w.engine.log.Warn("hedge planning failed", zap.String("symbol", w.ic.Symbol), zap.Error(err))
		} else if len(plan.Legs) > 0 {
			w.hedge = &plan
			w.engine.log.Info("hedge plan built",
				zap.String("symbol", w.ic.Symbol),
				zap.Int("legs", len(plan.Legs)),
				zap.String("target_delta", plan.TargetDelta.String()),
			)
		}
	}
	w.publishView(now)
}

// cancelCurrent retires the live quote, feeding its lifetime to the
// stuffing detector.
func (w *worker) cancelCurrent(now time.Time) {
	if w.current == nil {
		return
	}
	w.stuffing.RecordCancel(now, w.current.Age(now))
	q := w.current.WithState(quote.StateInactive)
	w.current = &q
}

func (w *worker) withdraw(now time.Time) {
	if w.current == nil || w.current.State != quote.StateActive {
		return
	}
	w.stuffing.RecordCancel(now, w.current.Age(now))
	q := w.current.WithState(quote.StateWithdrawn)
	w.current = &q
	w.engine.publish(stream.EventQuote, w.ic.Symbol, q, now)
}

func (w *worker) publishView(now time.Time) {
	view := InstrumentView{
		Symbol:    w.ic.Symbol,
		Inventory: w.inv,
		Spread:    w.spreadRs,
		UpdatedAt: now,
	}
	if w.current != nil {
		q := *w.current
		view.Quote = &q
	}
	if w.vol.IsReady() {
		view.Volatility = w.vol.RealizedVol()
	}
	if w.hedge != nil {
		h := *w.hedge
		view.HedgePlan = &h
	}
	view.Adverse = w.adverse.Evaluate(time.Now())
	view.Stuffing = w.stuffing.Evaluate(time.Now())
	view.ObligationUptime = w.obligation.Uptime()
	view.Violations = len(w.obligation.Violations())
	w.view.Store(&view)
}
