// Package engine wires market data, quoting, inventory, detectors and
// risk into per-instrument workers. Exactly one goroutine mutates an
// instrument's state; readers get point-in-time views.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mm-quote-engine/detect"
	"mm-quote-engine/inventory"
	"mm-quote-engine/market"
	"mm-quote-engine/metrics"
	"mm-quote-engine/quote"
	"mm-quote-engine/risk"
	"mm-quote-engine/spread"
	"mm-quote-engine/stream"
)

// State is the engine lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Config carries the shared policy knobs. Instruments are added
// separately.
type Config struct {
	UpdatePolicy    quote.UpdatePolicy
	SpreadConfig    spread.Config
	InventoryPolicy inventory.Policy
	StuffingConfig  detect.StuffingConfig
	AdverseConfig   detect.AdverseConfig
	Obligations     quote.ObligationConfig // zero fields disable the checks

	MaxSnapshotAge time.Duration
	VolWindow      int             // mids kept by the volatility calculator
	SkewFactor     decimal.Decimal // inventory ratio to quote skew
	RiskInterval   time.Duration

	HedgeCandidates []inventory.HedgeInstrument
	MaxHedgeLegSize decimal.Decimal
}

// DefaultEngineConfig returns the stock policies.
func DefaultEngineConfig() Config {
	return Config{
		UpdatePolicy:    quote.DefaultUpdatePolicy(),
		SpreadConfig:    spread.DefaultConfig(),
		InventoryPolicy: inventory.DefaultPolicy(),
		StuffingConfig:  detect.DefaultStuffingConfig(),
		AdverseConfig:   detect.DefaultAdverseConfig(),
		MaxSnapshotAge:  2 * time.Second,
		VolWindow:       120,
		SkewFactor:      decimal.RequireFromString("0.3"),
		RiskInterval:    5 * time.Second,
		MaxHedgeLegSize: decimal.NewFromInt(500),
	}
}

// InstrumentConfig is one symbol's quoting setup.
type InstrumentConfig struct {
	Symbol         string
	TargetPosition decimal.Decimal
	MaxPosition    decimal.Decimal
	BaseSpreadBps  decimal.Decimal
	BidSize        decimal.Decimal
	AskSize        decimal.Decimal
}

// Components are the engine's collaborators. Hub and RiskMonitor may be
// nil; Logger defaults to a nop logger.
type Components struct {
	Logger      *zap.Logger
	Hub         *stream.Hub
	RiskMonitor *risk.Monitor
}

// Engine routes snapshots and fills to per-instrument workers and runs
// the periodic risk sweep.
type Engine struct {
	log  *zap.Logger
	hub  *stream.Hub
	risk *risk.Monitor

	cfgMu sync.RWMutex
	cfg   Config

	mu      sync.RWMutex
	state   State
	workers map[string]*worker
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// New creates an idle engine.
func New(cfg Config, comps Components) *Engine {
	log := comps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		log:     log,
		hub:     comps.Hub,
		risk:    comps.RiskMonitor,
		cfg:     cfg,
		workers: make(map[string]*worker),
	}
}

// AddInstrument registers a symbol. Must be called before Start.
func (e *Engine) AddInstrument(ic InstrumentConfig) error {
	inv, err := inventory.New(ic.Symbol, ic.TargetPosition, ic.MaxPosition)
	if err != nil {
		return err
	}
	if ic.BaseSpreadBps.Sign() <= 0 || ic.BidSize.Sign() <= 0 || ic.AskSize.Sign() <= 0 {
		return fmt.Errorf("%w: instrument %s spread/sizes must be > 0", quote.ErrInvalidInput, ic.Symbol)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateIdle {
		return fmt.Errorf("engine not idle (state: %s)", e.state)
	}
	if _, dup := e.workers[ic.Symbol]; dup {
		return fmt.Errorf("%w: duplicate instrument %s", quote.ErrInvalidInput, ic.Symbol)
	}
	e.workers[ic.Symbol] = newWorker(e, ic, inv)
	return nil
}

// Start launches the workers and the risk sweep. Blocks until stopped
// only through the returned context semantics; Start itself returns
// immediately.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateIdle {
		e.mu.Unlock()
		return fmt.Errorf("engine already started (state: %s)", e.state)
	}
	e.state = StateRunning
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	for _, w := range e.workers {
		e.wg.Add(1)
		go func(w *worker) {
			defer e.wg.Done()
			w.run(runCtx)
		}(w)
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.riskLoop(runCtx)
	}()
	e.mu.Unlock()

	e.log.Info("engine started", zap.Int("instruments", len(e.workers)))
	return nil
}

// Stop halts the workers and waits for them to drain.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state != StateRunning {
		e.mu.Unlock()
		return
	}
	e.state = StateStopped
	cancel := e.cancel
	e.mu.Unlock()

	cancel()
	e.wg.Wait()
	e.log.Info("engine stopped")
}

// OnSnapshot routes a market snapshot to its instrument worker. A full
// worker queue drops the snapshot; the next one supersedes it anyway.
func (e *Engine) OnSnapshot(s market.Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}
	w, err := e.worker(s.Symbol)
	if err != nil {
		return err
	}
	select {
	case w.snapshots <- s:
	default:
		e.log.Warn("snapshot queue full", zap.String("symbol", s.Symbol))
	}
	return nil
}

// OnFill routes an execution to its instrument worker. Fills block
// rather than drop; losing one corrupts the position.
func (e *Engine) OnFill(ctx context.Context, f market.Fill) error {
	if err := f.Validate(); err != nil {
		return err
	}
	w, err := e.worker(f.Symbol)
	if err != nil {
		return err
	}
	select {
	case w.fills <- f:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// View returns the latest published state for a symbol.
func (e *Engine) View(symbol string) (InstrumentView, bool) {
	w, err := e.worker(symbol)
	if err != nil {
		return InstrumentView{}, false
	}
	v := w.view.Load()
	if v == nil {
		return InstrumentView{}, false
	}
	return *v, true
}

// Views returns the latest state of every instrument.
func (e *Engine) Views() []InstrumentView {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]InstrumentView, 0, len(e.workers))
	for _, w := range e.workers {
		if v := w.view.Load(); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// ApplyConfig swaps the shared policies. Workers pick the new config up
// on their next event.
func (e *Engine) ApplyConfig(cfg Config) {
	e.cfgMu.Lock()
	e.cfg = cfg
	e.cfgMu.Unlock()
	e.log.Info("engine config applied")
}

func (e *Engine) config() Config {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	return e.cfg
}

func (e *Engine) worker(symbol string) (*worker, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	w, ok := e.workers[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: unknown instrument %s", quote.ErrInvalidInput, symbol)
	}
	return w, nil
}

// riskLoop periodically sweeps every instrument view through the risk
// monitor and publishes any breaches.
func (e *Engine) riskLoop(ctx context.Context) {
	if e.risk == nil {
		return
	}
	cfg := e.config()
	interval := cfg.RiskInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.sweepRisk(time.Now())
		}
	}
}

func (e *Engine) sweepRisk(now time.Time) {
	views := e.Views()
	if len(views) == 0 {
		return
	}
	invs := make([]inventory.Inventory, 0, len(views))
	vols := make(map[string]decimal.Decimal, len(views))
	for _, v := range views {
		invs = append(invs, v.Inventory)
		if v.Volatility.Sign() > 0 {
			vols[v.Symbol] = v.Volatility
		}
	}

	breaches, err := e.risk.Evaluate(invs, vols)
	if err != nil {
		e.log.Error("risk sweep failed", zap.Error(err))
		return
	}
	sum := e.risk.LastSummary()
	maxVaR, _ := sum.MaxVaR.Float64()
	conc, _ := sum.Concentration.Float64()
	metrics.ObserveRisk(maxVaR, conc)
	for _, b := range breaches {
		metrics.RiskBreaches.WithLabelValues(string(b.Type)).Inc()
		e.publish(stream.EventBreach, b.Symbol, b, now)
	}
}

func (e *Engine) publish(typ stream.EventType, symbol string, payload any, now time.Time) {
	if e.hub == nil {
		return
	}
	if ev, ok := stream.NewEvent(typ, symbol, payload, now); ok {
		e.hub.Publish(ev)
	}
}
