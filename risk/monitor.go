package risk

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mm-quote-engine/inventory"
)

// BreachType names a limit breach.
type BreachType string

const (
	BreachInventoryLimit     BreachType = "INVENTORY_LIMIT"
	BreachVaRLimit           BreachType = "VAR_LIMIT"
	BreachConcentrationLimit BreachType = "CONCENTRATION_LIMIT"
)

// Breach is a signaled risk condition. It is data, not an error: the
// monitor keeps evaluating and the caller decides how to unwind.
type Breach struct {
	Type   BreachType
	Symbol string
	Value  decimal.Decimal
	Limit  decimal.Decimal
	At     time.Time
}

// Summary is the portfolio-level readout of an evaluation, recorded
// whether or not anything breached.
type Summary struct {
	MaxVaR        decimal.Decimal // largest per-instrument VaR
	Concentration decimal.Decimal // book concentration score 0-100
	At            time.Time
}

// Limits configures the monitor.
type Limits struct {
	MaxVaR           decimal.Decimal
	VaRConfidence    decimal.Decimal
	VaRHorizonDays   decimal.Decimal
	MaxConcentration decimal.Decimal // 0-100 score ceiling
	Capital          decimal.Decimal
}

// DefaultLimits returns permissive stock limits; production configs come
// from the config package.
func DefaultLimits() Limits {
	return Limits{
		MaxVaR:           decimal.NewFromInt(1_000_000),
		VaRConfidence:    decimal.RequireFromString("0.95"),
		VaRHorizonDays:   decimal.NewFromInt(1),
		MaxConcentration: decimal.NewFromInt(80),
		Capital:          decimal.NewFromInt(10_000_000),
	}
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// NowUTC is the default clock.
var NowUTC Clock = realClock{}

// Monitor evaluates the book against the configured limits and routes
// breaches to the notifier.
type Monitor struct {
	mu       sync.Mutex
	limits   Limits
	notifier *Notifier
	clock    Clock

	lastBreaches []Breach
	lastSummary  Summary
}

// NewMonitor creates a monitor. notifier may be nil.
func NewMonitor(limits Limits, notifier *Notifier) *Monitor {
	return &Monitor{limits: limits, notifier: notifier, clock: NowUTC}
}

// SetClock swaps the clock; test hook.
func (m *Monitor) SetClock(c Clock) { m.clock = c }

// Evaluate checks every inventory against its position limit, the
// per-instrument VaR against MaxVaR, and the book concentration score.
// volatilities are keyed by symbol; instruments without one skip the VaR
// check rather than guessing.
func (m *Monitor) Evaluate(invs []inventory.Inventory, volatilities map[string]decimal.Decimal) ([]Breach, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	var breaches []Breach
	summary := Summary{At: now}
	values := make([]decimal.Decimal, 0, len(invs))

	for _, inv := range invs {
		values = append(values, inv.Value)

		if inv.Position.Abs().GreaterThan(inv.MaxPosition) {
			breaches = append(breaches, Breach{
				Type:   BreachInventoryLimit,
				Symbol: inv.Symbol,
				Value:  inv.Position.Abs(),
				Limit:  inv.MaxPosition,
				At:     now,
			})
		}

		vol, ok := volatilities[inv.Symbol]
		if !ok || inv.MarkPrice.Sign() <= 0 {
			continue
		}
		v, err := ValueAtRisk(inv.Position, inv.MarkPrice, vol, m.limits.VaRConfidence, m.limits.VaRHorizonDays)
		if err != nil {
			return nil, err
		}
		if v.GreaterThan(summary.MaxVaR) {
			summary.MaxVaR = v
		}
		if v.GreaterThan(m.limits.MaxVaR) {
			breaches = append(breaches, Breach{
				Type:   BreachVaRLimit,
				Symbol: inv.Symbol,
				Value:  v,
				Limit:  m.limits.MaxVaR,
				At:     now,
			})
		}
	}

	if len(values) > 1 {
		conc, err := ConcentrationRisk(values, m.limits.Capital)
		if err != nil {
			return nil, err
		}
		summary.Concentration = conc.Score
		if conc.Score.GreaterThan(m.limits.MaxConcentration) {
			breaches = append(breaches, Breach{
				Type:  BreachConcentrationLimit,
				Value: conc.Score,
				Limit: m.limits.MaxConcentration,
				At:    now,
			})
		}
	}

	m.lastBreaches = breaches
	m.lastSummary = summary
	if m.notifier != nil {
		for _, b := range breaches {
			m.notifier.NotifyBreach(b)
		}
	}
	return breaches, nil
}

// LastSummary returns the portfolio readout from the latest evaluation.
func (m *Monitor) LastSummary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSummary
}

// LastBreaches returns the breaches from the latest evaluation.
func (m *Monitor) LastBreaches() []Breach {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Breach, len(m.lastBreaches))
	copy(out, m.lastBreaches)
	return out
}

// AlertClient abstracts the alert transport.
type AlertClient interface {
	Send(typ, msg string)
}

// Notifier fans risk breaches out to the log and an optional alert sink.
type Notifier struct {
	log   *zap.Logger
	alert AlertClient
}

// NewNotifier creates a notifier. Both arguments may be nil.
func NewNotifier(log *zap.Logger, alert AlertClient) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{log: log, alert: alert}
}

// NotifyBreach logs the breach and forwards it to the alert sink.
func (n *Notifier) NotifyBreach(b Breach) {
	n.log.Warn("risk_breach",
		zap.String("type", string(b.Type)),
		zap.String("symbol", b.Symbol),
		zap.String("value", b.Value.String()),
		zap.String("limit", b.Limit.String()),
	)
	if n.alert != nil {
		n.alert.Send(string(b.Type), b.Symbol+" value="+b.Value.String()+" limit="+b.Limit.String())
	}
}
