// sim runs the quoting engine against a seeded random walk with synthetic
// fills and prints the session report. No venue connection, no servers;
// useful for parameter sweeps before touching live config.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"mm-agent-go/config"
	"mm-agent-go/engine"
	"mm-agent-go/market"
)

func main() {
	symbol := flag.String("symbol", "BTCUSDT", "trading symbol")
	ticks := flag.Int("ticks", 5000, "number of ticks to simulate")
	seed := flag.Int64("seed", 0, "rng seed, 0 uses wall clock")
	anchor := flag.Float64("anchor", 50000, "starting mid price")
	stepVol := flag.Float64("stepVol", 0.0003, "per-tick return stdev of the walk")
	gamma := flag.Float64("gamma", 0, "override model gamma (0 keeps default)")
	kappa := flag.Float64("kappa", 0, "override model kappa (0 keeps default)")
	maxInv := flag.Float64("maxInv", 0, "override max inventory (0 keeps default)")
	flag.Parse()

	cfg := config.Default()
	cfg.Symbol = strings.ToUpper(*symbol)
	cfg.Quoting.QuoteRefreshMs = 0 // every tick is a quote opportunity
	if *gamma > 0 {
		cfg.Model.Gamma = *gamma
	}
	if *kappa > 0 {
		cfg.Model.Kappa = *kappa
	}
	if *maxInv > 0 {
		cfg.Risk.MaxInventory = *maxInv
	}

	eng, err := engine.New(cfg, nil)
	if err != nil {
		log.Fatalf("init engine: %v", err)
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))
	fmt.Printf("sim %s ticks=%d seed=%d gamma=%g kappa=%g maxInv=%g\n",
		cfg.Symbol, *ticks, *seed, cfg.Model.Gamma, cfg.Model.Kappa, cfg.Risk.MaxInventory)

	mid := *anchor
	var pair *engine.QuotePair
	var bidFills, askFills, suppressed int
	for i := 0; i < *ticks; i++ {
		mid *= 1 + rng.NormFloat64()**stepVol

		// The previous pair rests in the book; the new price decides
		// whether either side got hit before we requote.
		if pair != nil {
			switch {
			case mid <= pair.Bid.Price:
				eng.ProcessFill(engine.SideBid, pair.Bid.Price, pair.Bid.Quantity)
				bidFills++
			case mid >= pair.Ask.Price:
				eng.ProcessFill(engine.SideAsk, pair.Ask.Price, pair.Ask.Quantity)
				askFills++
			}
		}
		eng.RecordMarketTrade(mid, rng.Float64())

		half := mid * 0.0002
		st := market.State{
			Symbol:    cfg.Symbol,
			Bid:       mid - half,
			Ask:       mid + half,
			Mid:       mid,
			Spread:    2 * half,
			Timestamp: time.Now(),
		}
		eng.UpdateMarket(st)
		pair = eng.GenerateQuotes(st)
		if pair == nil {
			suppressed++
		}
	}

	st := eng.State()
	rep := st.Session
	fmt.Printf("final mid %.2f  inventory %.4f @ %.2f  mode %s\n",
		mid, st.Inventory.Quantity, st.Inventory.AvgPrice, st.Mode)
	fmt.Printf("fills: %d bid / %d ask  suppressed ticks: %d\n", bidFills, askFills, suppressed)
	fmt.Printf("pnl: realized %.4f  unrealized %.4f  peak %.4f\n",
		rep.RealizedPnL, st.Inventory.UnrealizedPnL, st.Breaker.PeakPnL)
	fmt.Printf("trades %d  winRate %.1f%%  avgSpread %.6f  quoteToFill %.4f\n",
		rep.TradeCount, rep.WinRate*100, rep.AvgSpread, rep.QuoteToFillRatio)
	fmt.Printf("spreadCaptured %.4f  adverseCost %.4f  sharpe %.3f  toxicity %.3f (%s)\n",
		rep.SpreadCaptured, rep.AdverseCost, rep.RiskAdjustedReturn, st.ToxicityScore, st.ToxicityAction)
	if st.Breaker.Active {
		fmt.Printf("breaker: TRIPPED (%s)\n", st.Breaker.Reason)
	}
}
