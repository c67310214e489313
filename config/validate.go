package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is internally consistent. Symbol
// entries are optional at load time; symbols may also arrive via admin
// wiring later.
func Validate(cfg EngineConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if cfg.Risk.Capital <= 0 {
		return errors.New("risk.capital must be > 0")
	}
	if cfg.Risk.MaxVaR <= 0 {
		return errors.New("risk.maxVaR must be > 0")
	}
	if cfg.Risk.VaRConfidence < 0.90 || cfg.Risk.VaRConfidence >= 1 {
		return errors.New("risk.varConfidence must be in [0.90, 1)")
	}
	if cfg.Risk.VaRHorizonDays <= 0 {
		return errors.New("risk.varHorizonDays must be > 0")
	}
	if cfg.Quote.UpdateThresholdBps <= 0 {
		return errors.New("quote.updateThresholdBps must be > 0")
	}
	if cfg.Quote.InventoryForceRatio <= 0 || cfg.Quote.InventoryForceRatio > 1 {
		return errors.New("quote.inventoryForceRatio must be in (0, 1]")
	}
	if cfg.Spread.FloorRatio <= 0 || cfg.Spread.FloorRatio > 1 {
		return errors.New("spread.floorRatio must be in (0, 1]")
	}
	if !(cfg.Inventory.TierMedium < cfg.Inventory.TierHigh && cfg.Inventory.TierHigh < cfg.Inventory.TierCritical) {
		return errors.New("inventory tiers must be strictly increasing")
	}
	if cfg.Inventory.TierCritical > 1 {
		return errors.New("inventory.tierCritical must be <= 1")
	}
	if ladderBroken(cfg.Detect.AdversePauseRatio, cfg.Detect.AdverseReduceRatio, cfg.Detect.AdverseWidenRatio) {
		return errors.New("detect adverse ratios must satisfy pause > reduce > widen > 0")
	}
	if !(cfg.Detect.BlockScore > cfg.Detect.ThrottleScore && cfg.Detect.ThrottleScore > cfg.Detect.WarnScore && cfg.Detect.WarnScore > 0) {
		return errors.New("detect stuffing cutoffs must satisfy block > throttle > warn > 0")
	}
	if cfg.Detect.QuoteRateHigh <= cfg.Detect.QuoteRateLow ||
		cfg.Detect.CancelRateHigh <= cfg.Detect.CancelRateLow ||
		cfg.Detect.QTRatioHigh <= cfg.Detect.QTRatioLow {
		return errors.New("detect stuffing rate bands must have high > low")
	}
	if cfg.Detect.LifetimeFastMs <= 0 || cfg.Detect.LifetimeSlowMs <= cfg.Detect.LifetimeFastMs {
		return errors.New("detect stuffing lifetimes must satisfy slow > fast > 0")
	}
	if cfg.PnL.AdverseLossRatio < 0 || cfg.PnL.AdverseLossRatio >= 1 {
		return errors.New("pnl.adverseLossRatio must be in [0, 1)")
	}
	for sym, sc := range cfg.Symbols {
		if sc.MaxPosition <= 0 {
			return fmt.Errorf("symbols.%s.maxPosition must be > 0", sym)
		}
		if sc.BaseSpreadBps <= 0 {
			return fmt.Errorf("symbols.%s.baseSpreadBps must be > 0", sym)
		}
		if sc.BidSize <= 0 || sc.AskSize <= 0 {
			return fmt.Errorf("symbols.%s sizes must be > 0", sym)
		}
	}
	return nil
}

func ladderBroken(pause, reduce, widen float64) bool {
	return !(pause > reduce && reduce > widen && widen > 0)
}
