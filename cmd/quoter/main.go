// quoter runs one quoting agent as a long-lived service: synthetic price
// feed in, quote decisions out, with Prometheus metrics, a websocket state
// monitor, and live config reload. The execution layer that turns emitted
// pairs into venue orders plugs in where placeQuotes is.
package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mm-agent-go/config"
	"mm-agent-go/engine"
	"mm-agent-go/infrastructure/alert"
	"mm-agent-go/infrastructure/logger"
	"mm-agent-go/market"
	"mm-agent-go/metrics"
	"mm-agent-go/monitor"
)

func main() {
	cfgPath := flag.String("config", "configs/quoter.yaml", "agent config path, empty for built-in defaults")
	symbol := flag.String("symbol", "", "override configured symbol")
	metricsAddr := flag.String("metricsAddr", ":9100", "prometheus listen address, empty disables")
	monitorAddr := flag.String("monitorAddr", ":8080", "state monitor listen address, empty disables")
	logLevel := flag.String("logLevel", "info", "debug, info, warn or error")
	logFile := flag.String("logFile", "", "also write logs to this rotating file")
	tickMs := flag.Int("tickMs", 500, "synthetic feed tick interval")
	anchor := flag.Float64("anchor", 50000, "synthetic feed starting mid price")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.LoadWithEnvOverrides(*cfgPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	if *symbol != "" {
		cfg.Symbol = strings.ToUpper(*symbol)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = *logLevel
	if *logFile != "" {
		logCfg.Outputs = append(logCfg.Outputs, "file")
		logCfg.OutputFile = *logFile
	}
	lg, err := logger.New(logCfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer lg.Close()

	alerts := alert.NewManager([]alert.Channel{alert.NewLogChannel("log", lg)}, time.Minute)

	eng, err := engine.New(cfg, lg)
	if err != nil {
		lg.Fatal("init engine", zap.Error(err))
	}
	eng.SetAlerts(alerts)
	var current atomic.Pointer[engine.Engine]
	current.Store(eng)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *metricsAddr != "" {
		metrics.StartMetricsServer(*metricsAddr)
		lg.Info("metrics listening", zap.String("addr", *metricsAddr))
	}
	if *monitorAddr != "" {
		mon := monitor.NewServer(liveEngine{&current}, lg, time.Second)
		go func() {
			if err := mon.Start(ctx, *monitorAddr); err != nil {
				lg.Error("monitor server", zap.Error(err))
			}
		}()
	}

	if *cfgPath != "" {
		watcher := config.Watcher{Path: *cfgPath, Cooldown: 2 * time.Second}
		go func() {
			err := watcher.Start(ctx, func(next config.AgentConfig) {
				if *symbol != "" {
					next.Symbol = strings.ToUpper(*symbol)
				}
				fresh, err := engine.New(next, lg)
				if err != nil {
					lg.Error("config reload rejected", zap.Error(err))
					return
				}
				fresh.SetAlerts(alerts)
				// A reload starts a fresh session; the old engine's
				// state is dropped with it.
				current.Store(fresh)
				lg.Info("config reloaded", zap.String("symbol", next.Symbol))
			})
			if err != nil && ctx.Err() == nil {
				lg.Error("config watcher", zap.Error(err))
			}
		}()
	}

	lg.Info("quoter started",
		zap.String("symbol", cfg.Symbol),
		zap.Float64("maxInventory", cfg.Risk.MaxInventory),
		zap.Float64("gamma", cfg.Model.Gamma))

	feed := newSyntheticFeed(cfg.Symbol, *anchor)
	ticker := time.NewTicker(time.Duration(*tickMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			lg.Info("quoter stopping")
			return
		case <-ticker.C:
		}

		st := feed.next()
		e := current.Load()
		e.UpdateMarket(st)
		if pair := e.GenerateQuotes(st); pair != nil {
			placeQuotes(pair)
		}
	}
}

// placeQuotes is the execution-layer seam. The decision core stops at
// emitting PENDING pairs; order placement, tracking and cancellation live
// in a separate service that consumes them.
func placeQuotes(*engine.QuotePair) {}

// liveEngine adapts the swappable engine pointer to the monitor.
type liveEngine struct {
	ptr *atomic.Pointer[engine.Engine]
}

func (l liveEngine) State() engine.State { return l.ptr.Load().State() }

// syntheticFeed produces a geometric random walk around its anchor, enough
// to exercise the full decision path without a venue connection.
type syntheticFeed struct {
	symbol string
	mid    float64
	rng    *rand.Rand
}

func newSyntheticFeed(symbol string, anchor float64) *syntheticFeed {
	return &syntheticFeed{
		symbol: symbol,
		mid:    anchor,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (f *syntheticFeed) next() market.State {
	f.mid *= 1 + f.rng.NormFloat64()*0.0002
	half := f.mid * 0.0003
	return market.State{
		Symbol:    f.symbol,
		Bid:       f.mid - half,
		Ask:       f.mid + half,
		Mid:       f.mid,
		Spread:    2 * half,
		Timestamp: time.Now(),
	}
}
