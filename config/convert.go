package config

import (
	"time"

	"github.com/shopspring/decimal"

	"mm-quote-engine/detect"
	"mm-quote-engine/inventory"
	"mm-quote-engine/pnl"
	"mm-quote-engine/quote"
	"mm-quote-engine/risk"
	"mm-quote-engine/spread"
)

// Converters from YAML floats to the typed package configs. Each starts
// from the package defaults, so fields this file does not map keep their
// stock values.

func (c SpreadConfig) Optimizer() spread.Config {
	out := spread.DefaultConfig()
	out.VolWeight = decimal.NewFromFloat(c.VolWeight)
	out.InventoryWeight = decimal.NewFromFloat(c.InventoryWeight)
	out.CompetitionWeight = decimal.NewFromFloat(c.CompetitionWeight)
	out.AdverseWeight = decimal.NewFromFloat(c.AdverseWeight)
	out.TimeBump = decimal.NewFromFloat(c.TimeBump)
	out.FloorRatio = decimal.NewFromFloat(c.FloorRatio)
	return out
}

func (c QuoteConfig) UpdatePolicy() quote.UpdatePolicy {
	out := quote.DefaultUpdatePolicy()
	out.ThresholdBps = decimal.NewFromFloat(c.UpdateThresholdBps)
	out.InventoryForceRatio = decimal.NewFromFloat(c.InventoryForceRatio)
	out.StaleAfter = time.Duration(c.StaleAfterMs) * time.Millisecond
	return out
}

// MaxSnapshotAge is the staleness bound applied to inbound market data.
func (c QuoteConfig) MaxSnapshotAge() time.Duration {
	return time.Duration(c.MaxSnapshotAgeMs) * time.Millisecond
}

// Obligations maps the regulatory quoting parameters. Zero fields disable
// the corresponding check.
func (c QuoteConfig) Obligations() quote.ObligationConfig {
	return quote.ObligationConfig{
		MinQuoteTime:   time.Duration(c.MinQuoteTimeSec) * time.Second,
		MaxSpreadBps:   decimal.NewFromFloat(c.MaxQuotedSpreadBps),
		MinSize:        decimal.NewFromFloat(c.MinQuoteSize),
		MaxNBBODistBps: decimal.NewFromFloat(c.MaxNBBODistBps),
	}
}

func (c InventoryConfig) Policy() inventory.Policy {
	return inventory.Policy{
		Tiers: inventory.TierThresholds{
			Medium:   decimal.NewFromFloat(c.TierMedium),
			High:     decimal.NewFromFloat(c.TierHigh),
			Critical: decimal.NewFromFloat(c.TierCritical),
		},
		HedgeRatio: decimal.NewFromFloat(c.HedgeRatio),
	}
}

func (c DetectConfig) Stuffing() detect.StuffingConfig {
	out := detect.StuffingConfig{
		QuoteRateHigh:  c.QuoteRateHigh,
		QuoteRateLow:   c.QuoteRateLow,
		QuotePtsHigh:   c.QuotePtsHigh,
		QuotePtsLow:    c.QuotePtsLow,
		CancelRateHigh: c.CancelRateHigh,
		CancelRateLow:  c.CancelRateLow,
		CancelPtsHigh:  c.CancelPtsHigh,
		CancelPtsLow:   c.CancelPtsLow,
		QTRatioHigh:    c.QTRatioHigh,
		QTRatioLow:     c.QTRatioLow,
		QTPtsHigh:      c.QTPtsHigh,
		QTPtsLow:       c.QTPtsLow,
		LifetimeFast:   time.Duration(c.LifetimeFastMs) * time.Millisecond,
		LifetimeSlow:   time.Duration(c.LifetimeSlowMs) * time.Millisecond,
		LifePtsFast:    c.LifePtsFast,
		LifePtsSlow:    c.LifePtsSlow,
		BlockScore:     c.BlockScore,
		ThrottleScore:  c.ThrottleScore,
		WarnScore:      c.WarnScore,
		StuffingScore:  c.StuffingScore,
	}
	if c.StuffingWindowSec > 0 {
		out.Window = time.Duration(c.StuffingWindowSec) * time.Second
	}
	return out
}

func (c DetectConfig) Adverse() detect.AdverseConfig {
	out := detect.DefaultAdverseConfig()
	if c.AdverseWindowSec > 0 {
		out.Window = time.Duration(c.AdverseWindowSec) * time.Second
	}
	out.PauseRatio = c.AdversePauseRatio
	out.ReduceRatio = c.AdverseReduceRatio
	out.WidenRatio = c.AdverseWidenRatio
	return out
}

func (c PnLConfig) Attribution() pnl.Config {
	return pnl.Config{
		MakerRebateBps:   decimal.NewFromFloat(c.MakerRebateBps),
		AdverseLossRatio: decimal.NewFromFloat(c.AdverseLossRatio),
	}
}

func (c RiskConfig) Limits() risk.Limits {
	return risk.Limits{
		MaxVaR:           decimal.NewFromFloat(c.MaxVaR),
		VaRConfidence:    decimal.NewFromFloat(c.VaRConfidence),
		VaRHorizonDays:   decimal.NewFromFloat(c.VaRHorizonDays),
		MaxConcentration: decimal.NewFromFloat(c.MaxConcentration),
		Capital:          decimal.NewFromFloat(c.Capital),
	}
}
