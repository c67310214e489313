package quote

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"mm-quote-engine/numeric"
)

// ViolationType names a quoting obligation breach.
type ViolationType string

const (
	ViolationSpreadTooWide  ViolationType = "SPREAD_TOO_WIDE"
	ViolationSizeTooSmall   ViolationType = "SIZE_TOO_SMALL"
	ViolationTooFarFromNBBO ViolationType = "TOO_FAR_FROM_NBBO"
	ViolationQuoteDown      ViolationType = "QUOTE_DOWN"
)

// Severity grades a violation.
type Severity string

const (
	SeverityMinor    Severity = "MINOR"
	SeverityMajor    Severity = "MAJOR"
	SeverityCritical Severity = "CRITICAL"
)

// Violation is one obligation breach. The log is append-only within a
// reporting period; the compliance collaborator resets at period boundary.
type Violation struct {
	Time     time.Time
	Type     ViolationType
	Severity Severity
	Detail   string
}

// ObligationConfig holds the per-instrument regulatory quoting parameters.
type ObligationConfig struct {
	MinQuoteTime    time.Duration   // required continuous presence
	MaxSpreadBps    decimal.Decimal // widest permitted quoted spread
	MinSize         decimal.Decimal // smallest permitted quoted size
	MaxNBBODistBps  decimal.Decimal // farthest mid may sit from the NBBO mid
}

// ObligationMonitor accumulates quoting uptime and obligation violations
// for one instrument. Safe for one writer plus concurrent readers.
type ObligationMonitor struct {
	mu         sync.RWMutex
	cfg        ObligationConfig
	uptime     time.Duration
	violations []Violation
}

// NewObligationMonitor creates a monitor for one instrument.
func NewObligationMonitor(cfg ObligationConfig) *ObligationMonitor {
	return &ObligationMonitor{cfg: cfg}
}

// Observe scores one quoting interval: elapsed is how long q has been the
// standing quote since the last observation, nbboMid the reference mid.
// Compliant intervals extend uptime; breaches append typed violations.
func (m *ObligationMonitor) Observe(q Quote, nbboMid decimal.Decimal, elapsed time.Duration, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if q.State != StateActive {
		m.violations = append(m.violations, Violation{
			Time:     now,
			Type:     ViolationQuoteDown,
			Severity: SeverityMajor,
			Detail:   "no active two-sided quote",
		})
		return
	}

	compliant := true

	if m.cfg.MaxSpreadBps.Sign() > 0 && q.SpreadBps.GreaterThan(m.cfg.MaxSpreadBps) {
		compliant = false
		sev := SeverityMinor
		if q.SpreadBps.GreaterThan(m.cfg.MaxSpreadBps.Mul(numeric.Two)) {
			sev = SeverityMajor
		}
		m.violations = append(m.violations, Violation{
			Time:     now,
			Type:     ViolationSpreadTooWide,
			Severity: sev,
			Detail:   "spread " + q.SpreadBps.String() + "bps > max " + m.cfg.MaxSpreadBps.String() + "bps",
		})
	}

	if m.cfg.MinSize.Sign() > 0 && (q.BidSize.LessThan(m.cfg.MinSize) || q.AskSize.LessThan(m.cfg.MinSize)) {
		compliant = false
		m.violations = append(m.violations, Violation{
			Time:     now,
			Type:     ViolationSizeTooSmall,
			Severity: SeverityMinor,
			Detail:   "quoted size below min " + m.cfg.MinSize.String(),
		})
	}

	if m.cfg.MaxNBBODistBps.Sign() > 0 && nbboMid.Sign() > 0 {
		dist, err := numeric.SafeDiv(q.Mid.Sub(nbboMid).Abs(), nbboMid)
		if err == nil && dist.Mul(numeric.Ten4).GreaterThan(m.cfg.MaxNBBODistBps) {
			compliant = false
			m.violations = append(m.violations, Violation{
				Time:     now,
				Type:     ViolationTooFarFromNBBO,
				Severity: SeverityCritical,
				Detail:   "mid " + q.Mid.String() + " too far from NBBO mid " + nbboMid.String(),
			})
		}
	}

	if compliant {
		m.uptime += elapsed
	}
}

// Uptime returns accumulated compliant quoting time this period.
func (m *ObligationMonitor) Uptime() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uptime
}

// Violations returns a copy of the period's violation log.
func (m *ObligationMonitor) Violations() []Violation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Violation, len(m.violations))
	copy(out, m.violations)
	return out
}

// MeetsMinQuoteTime reports whether accumulated uptime satisfies the
// configured minimum.
func (m *ObligationMonitor) MeetsMinQuoteTime() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uptime >= m.cfg.MinQuoteTime
}
