package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EngineConfig holds the full runtime configuration. Numeric policy knobs
// are plain floats in YAML; the convert helpers turn them into decimals at
// the package boundaries.
type EngineConfig struct {
	Env       string                  `yaml:"env"`
	Log       LogConfig               `yaml:"log"`
	Metrics   MetricsConfig           `yaml:"metrics"`
	Stream    StreamConfig            `yaml:"stream"`
	Risk      RiskConfig              `yaml:"risk"`
	Quote     QuoteConfig             `yaml:"quote"`
	Spread    SpreadConfig            `yaml:"spread"`
	Inventory InventoryConfig         `yaml:"inventory"`
	Detect    DetectConfig            `yaml:"detect"`
	PnL       PnLConfig               `yaml:"pnl"`
	Symbols   map[string]SymbolConfig `yaml:"symbols"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // debug|info|warn|error
	Encoding string `yaml:"encoding"` // json|console
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type StreamConfig struct {
	Addr string `yaml:"addr"`
}

type RiskConfig struct {
	Capital          float64 `yaml:"capital"`
	MaxVaR           float64 `yaml:"maxVaR"`
	VaRConfidence    float64 `yaml:"varConfidence"`
	VaRHorizonDays   float64 `yaml:"varHorizonDays"`
	MaxConcentration float64 `yaml:"maxConcentration"`
}

type QuoteConfig struct {
	UpdateThresholdBps  float64 `yaml:"updateThresholdBps"`
	InventoryForceRatio float64 `yaml:"inventoryForceRatio"`
	StaleAfterMs        int     `yaml:"staleAfterMs"`
	MaxSnapshotAgeMs    int     `yaml:"maxSnapshotAgeMs"`

	MinQuoteTimeSec    int     `yaml:"minQuoteTimeSec"`
	MaxQuotedSpreadBps float64 `yaml:"maxQuotedSpreadBps"`
	MinQuoteSize       float64 `yaml:"minQuoteSize"`
	MaxNBBODistBps     float64 `yaml:"maxNBBODistBps"`
}

type SpreadConfig struct {
	VolWeight         float64 `yaml:"volWeight"`
	InventoryWeight   float64 `yaml:"inventoryWeight"`
	CompetitionWeight float64 `yaml:"competitionWeight"`
	AdverseWeight     float64 `yaml:"adverseWeight"`
	TimeBump          float64 `yaml:"timeBump"`
	FloorRatio        float64 `yaml:"floorRatio"`
}

type InventoryConfig struct {
	TierMedium   float64 `yaml:"tierMedium"`
	TierHigh     float64 `yaml:"tierHigh"`
	TierCritical float64 `yaml:"tierCritical"`
	HedgeRatio   float64 `yaml:"hedgeRatio"`
	MaxLegSize   float64 `yaml:"maxLegSize"`
}

type DetectConfig struct {
	StuffingWindowSec int     `yaml:"stuffingWindowSec"`
	QuoteRateHigh     float64 `yaml:"quoteRateHigh"` // quotes/sec scoring full points
	QuoteRateLow      float64 `yaml:"quoteRateLow"`
	QuotePtsHigh      int     `yaml:"quotePtsHigh"`
	QuotePtsLow       int     `yaml:"quotePtsLow"`
	CancelRateHigh    float64 `yaml:"cancelRateHigh"`
	CancelRateLow     float64 `yaml:"cancelRateLow"`
	CancelPtsHigh     int     `yaml:"cancelPtsHigh"`
	CancelPtsLow      int     `yaml:"cancelPtsLow"`
	QTRatioHigh       float64 `yaml:"qtRatioHigh"` // quote-to-trade ratio
	QTRatioLow        float64 `yaml:"qtRatioLow"`
	QTPtsHigh         int     `yaml:"qtPtsHigh"`
	QTPtsLow          int     `yaml:"qtPtsLow"`
	LifetimeFastMs    int     `yaml:"lifetimeFastMs"` // avg quote lifetime scoring full points
	LifetimeSlowMs    int     `yaml:"lifetimeSlowMs"`
	LifePtsFast       int     `yaml:"lifePtsFast"`
	LifePtsSlow       int     `yaml:"lifePtsSlow"`
	BlockScore        int     `yaml:"blockScore"`
	ThrottleScore     int     `yaml:"throttleScore"`
	WarnScore         int     `yaml:"warnScore"`
	StuffingScore     int     `yaml:"stuffingScore"`

	AdverseWindowSec   int     `yaml:"adverseWindowSec"`
	AdversePauseRatio  float64 `yaml:"adversePauseRatio"`
	AdverseReduceRatio float64 `yaml:"adverseReduceRatio"`
	AdverseWidenRatio  float64 `yaml:"adverseWidenRatio"`
}

type PnLConfig struct {
	MakerRebateBps   float64 `yaml:"makerRebateBps"`
	AdverseLossRatio float64 `yaml:"adverseLossRatio"`
}

// SymbolConfig is the per-instrument quoting setup.
type SymbolConfig struct {
	TargetPosition float64 `yaml:"targetPosition"`
	MaxPosition    float64 `yaml:"maxPosition"`
	BaseSpreadBps  float64 `yaml:"baseSpreadBps"`
	BidSize        float64 `yaml:"bidSize"`
	AskSize        float64 `yaml:"askSize"`
}

// Default returns the stock configuration; Load overlays YAML on top of it,
// so a partial file only has to name what it changes.
func Default() EngineConfig {
	return EngineConfig{
		Env:     "dev",
		Log:     LogConfig{Level: "info", Encoding: "json"},
		Metrics: MetricsConfig{Addr: ":9090"},
		Stream:  StreamConfig{Addr: ":8080"},
		Risk: RiskConfig{
			Capital:          10_000_000,
			MaxVaR:           1_000_000,
			VaRConfidence:    0.95,
			VaRHorizonDays:   1,
			MaxConcentration: 80,
		},
		Quote: QuoteConfig{
			UpdateThresholdBps:  10,
			InventoryForceRatio: 0.8,
			StaleAfterMs:        5000,
			MaxSnapshotAgeMs:    2000,
		},
		Spread: SpreadConfig{
			VolWeight:         0.5,
			InventoryWeight:   0.3,
			CompetitionWeight: 0.2,
			AdverseWeight:     0.4,
			TimeBump:          0.2,
			FloorRatio:        0.5,
		},
		Inventory: InventoryConfig{
			TierMedium:   0.3,
			TierHigh:     0.6,
			TierCritical: 0.9,
			HedgeRatio:   0.5,
			MaxLegSize:   500,
		},
		Detect: DetectConfig{
			StuffingWindowSec: 60,
			QuoteRateHigh:     100,
			QuoteRateLow:      50,
			QuotePtsHigh:      30,
			QuotePtsLow:       15,
			CancelRateHigh:    50,
			CancelRateLow:     25,
			CancelPtsHigh:     30,
			CancelPtsLow:      15,
			QTRatioHigh:       100,
			QTRatioLow:        50,
			QTPtsHigh:         25,
			QTPtsLow:          12,
			LifetimeFastMs:    100,
			LifetimeSlowMs:    500,
			LifePtsFast:       15,
			LifePtsSlow:       7,
			BlockScore:        80,
			ThrottleScore:     60,
			WarnScore:         40,
			StuffingScore:     50,

			AdverseWindowSec:   300,
			AdversePauseRatio:  0.6,
			AdverseReduceRatio: 0.5,
			AdverseWidenRatio:  0.4,
		},
		PnL: PnLConfig{
			MakerRebateBps:   2,
			AdverseLossRatio: 0.15,
		},
	}
}

// Load reads YAML from path over the defaults and validates the result.
func Load(path string) (EngineConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides deploy-specific fields
// from env vars if present.
func LoadWithEnvOverrides(path string) (EngineConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("MM_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MM_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("MM_STREAM_ADDR"); v != "" {
		cfg.Stream.Addr = v
	}
	return cfg, Validate(cfg)
}
