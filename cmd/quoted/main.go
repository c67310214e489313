// quoted is the quoting engine daemon: it loads config, runs the
// per-instrument workers, serves metrics and the event stream, and
// accepts snapshots and fills over HTTP from upstream producers.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mm-quote-engine/config"
	"mm-quote-engine/engine"
	"mm-quote-engine/infrastructure/alert"
	"mm-quote-engine/infrastructure/logger"
	"mm-quote-engine/market"
	"mm-quote-engine/metrics"
	"mm-quote-engine/risk"
	"mm-quote-engine/stream"
)

func main() {
	cfgPath := flag.String("config", "configs/engine.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Encoding})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartMetricsServer(cfg.Metrics.Addr)

	hub := stream.NewHub(log)
	go hub.Run(ctx)

	alerts := alert.NewManager([]alert.Channel{alert.NewZapChannel("log", log)}, 30*time.Second)
	monitor := risk.NewMonitor(cfg.Risk.Limits(), risk.NewNotifier(log, alerts))

	eng := engine.New(engineConfig(cfg), engine.Components{
		Logger:      log,
		Hub:         hub,
		RiskMonitor: monitor,
	})
	for sym, sc := range cfg.Symbols {
		err := eng.AddInstrument(engine.InstrumentConfig{
			Symbol:         sym,
			TargetPosition: decimal.NewFromFloat(sc.TargetPosition),
			MaxPosition:    decimal.NewFromFloat(sc.MaxPosition),
			BaseSpreadBps:  decimal.NewFromFloat(sc.BaseSpreadBps),
			BidSize:        decimal.NewFromFloat(sc.BidSize),
			AskSize:        decimal.NewFromFloat(sc.AskSize),
		})
		if err != nil {
			log.Fatal("add instrument", zap.String("symbol", sym), zap.Error(err))
		}
	}
	if err := eng.Start(ctx); err != nil {
		log.Fatal("start engine", zap.Error(err))
	}

	if watcher, err := config.NewWatcher(*cfgPath, 2*time.Second, log); err != nil {
		log.Warn("config watch disabled", zap.Error(err))
	} else {
		go func() {
			_ = watcher.Run(ctx, func(next config.EngineConfig) {
				eng.ApplyConfig(engineConfig(next))
			})
		}()
	}

	srv := &http.Server{
		Addr:    cfg.Stream.Addr,
		Handler: routes(eng, hub, monitor, log),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server", zap.Error(err))
			stop()
		}
	}()

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Debug("sd_notify unavailable", zap.Error(err))
	}
	log.Info("quoted running",
		zap.String("metrics", cfg.Metrics.Addr),
		zap.String("stream", cfg.Stream.Addr),
		zap.Int("instruments", len(cfg.Symbols)),
	)

	<-ctx.Done()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	eng.Stop()
	log.Info("quoted stopped")
}

// engineConfig maps the YAML config onto the engine's typed policies.
func engineConfig(cfg config.EngineConfig) engine.Config {
	out := engine.DefaultEngineConfig()
	out.UpdatePolicy = cfg.Quote.UpdatePolicy()
	out.SpreadConfig = cfg.Spread.Optimizer()
	out.InventoryPolicy = cfg.Inventory.Policy()
	out.StuffingConfig = cfg.Detect.Stuffing()
	out.AdverseConfig = cfg.Detect.Adverse()
	out.Obligations = cfg.Quote.Obligations()
	out.MaxSnapshotAge = cfg.Quote.MaxSnapshotAge()
	out.MaxHedgeLegSize = decimal.NewFromFloat(cfg.Inventory.MaxLegSize)
	return out
}

// stateResponse is the /state payload: every instrument view plus the
// portfolio-level risk readout.
type stateResponse struct {
	Instruments []engine.InstrumentView `json:"instruments"`
	Breaches    []risk.Breach           `json:"breaches,omitempty"`
	Stress      *risk.StressResult      `json:"stress,omitempty"`
}

func routes(eng *engine.Engine, hub *stream.Hub, monitor *risk.Monitor, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/stream", hub)
	mux.HandleFunc("/snapshot", func(w http.ResponseWriter, r *http.Request) {
		ingest(w, r, log, func(s market.Snapshot) error {
			if s.Timestamp.IsZero() {
				s.Timestamp = time.Now()
			}
			return eng.OnSnapshot(s)
		})
	})
	mux.HandleFunc("/fill", func(w http.ResponseWriter, r *http.Request) {
		ingest(w, r, log, func(f market.Fill) error {
			if f.Timestamp.IsZero() {
				f.Timestamp = time.Now()
			}
			return eng.OnFill(r.Context(), f)
		})
	})
	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		views := eng.Views()
		st := stateResponse{Instruments: views}
		if monitor != nil {
			st.Breaches = monitor.LastBreaches()
		}

		positions := make([]risk.Position, 0, len(views))
		for _, v := range views {
			if v.Inventory.MarkPrice.Sign() > 0 {
				positions = append(positions, risk.Position{
					Symbol:   v.Symbol,
					Quantity: v.Inventory.Position,
					Mark:     v.Inventory.MarkPrice,
				})
			}
		}
		if len(positions) > 0 {
			if res, err := risk.StressTest(positions, risk.DefaultScenarios()); err == nil {
				st.Stress = &res
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(st)
	})
	return mux
}

func ingest[T any](w http.ResponseWriter, r *http.Request, log *zap.Logger, apply func(T) error) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var payload T
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := apply(payload); err != nil {
		log.Warn("ingest rejected", zap.Error(err))
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
