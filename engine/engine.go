// Package engine fuses the pricing model with the live risk controls into
// the per-tick quoting decision.
package engine

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"mm-agent-go/config"
	"mm-agent-go/infrastructure/alert"
	"mm-agent-go/infrastructure/logger"
	"mm-agent-go/inventory"
	"mm-agent-go/market"
	"mm-agent-go/metrics"
	"mm-agent-go/posttrade"
	"mm-agent-go/risk"
	"mm-agent-go/strategy"
)

// Suppression reasons used in logs and counters.
const (
	reasonBreaker   = "breaker"
	reasonToxicity  = "toxicity"
	reasonRefresh   = "refresh"
	reasonRateLimit = "rate_limit"
)

// Engine is the orchestrator for one instrument. It owns every piece of
// mutable session state and is designed for a single logical writer:
// market updates and fills must be delivered as ordered events, with each
// fill applied before the next quote cycle. Run one Engine per instrument;
// instances share nothing.
type Engine struct {
	cfg   config.AgentConfig
	model strategy.Model

	vol      *market.VolatilityEstimator
	regimes  *market.RegimeClassifier
	inv      *inventory.Manager
	toxicity *posttrade.Detector
	breaker  *risk.CircuitBreaker
	session  *posttrade.SessionMetrics

	limiter *rate.Limiter
	clock   risk.Clock
	log     *logger.Logger
	alerts  *alert.Manager

	mu          sync.RWMutex
	mode        Mode
	modeReason  string
	lastMid     float64
	lastQuoteAt time.Time
}

// New builds an engine from a validated config. An invalid config is
// rejected here, before any quoting can happen.
func New(cfg config.AgentConfig, log *logger.Logger) (*Engine, error) {
	return NewWithClock(cfg, log, risk.SystemClock)
}

// NewWithClock is New with an injectable clock for deterministic tests.
func NewWithClock(cfg config.AgentConfig, log *logger.Logger, clock risk.Clock) (*Engine, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}
	if clock == nil {
		clock = risk.SystemClock
	}

	return &Engine{
		cfg: cfg,
		model: strategy.Model{
			Gamma:          cfg.Model.Gamma,
			Kappa:          cfg.Model.Kappa,
			HorizonSeconds: cfg.Model.HorizonSeconds,
			MaxInventory:   cfg.Risk.MaxInventory,
			SkewFactor:     cfg.Inventory.SkewFactor,
		},
		vol:     market.NewVolatilityEstimator(cfg.Vol.Lookback),
		regimes: market.NewRegimeClassifier(cfg.Vol.RegimeLow, cfg.Vol.RegimeNormal, cfg.Vol.RegimeHigh),
		inv:     inventory.NewManager(cfg.Inventory.TargetInventory, cfg.Risk.MaxInventory, cfg.Inventory.RebalanceThreshold),
		toxicity: posttrade.NewDetector(posttrade.DetectorParams{
			WidenLevel:         cfg.Toxicity.WidenLevel,
			PauseLevel:         cfg.Toxicity.PauseLevel,
			Decay:              cfg.Toxicity.Decay,
			BlendOld:           cfg.Toxicity.BlendOld,
			BlendNew:           cfg.Toxicity.BlendNew,
			AdverseMovePercent: cfg.Toxicity.AdverseMovePercent,
		}),
		breaker: risk.NewCircuitBreaker(cfg.Breaker.MaxDrawdownPercent,
			time.Duration(cfg.Breaker.CoolDownMs)*time.Millisecond, clock),
		session: posttrade.NewSessionMetrics(),
		limiter: rate.NewLimiter(rate.Limit(cfg.Breaker.MaxOrdersPerSecond),
			int(math.Max(1, cfg.Breaker.MaxOrdersPerSecond))),
		clock: clock,
		log:   log,
	}, nil
}

// GenerateQuotes runs one quote cycle against a market-state update and
// returns the pair to commit to, or nil when the agent must not quote.
// The gate order is load-bearing: volatility feed, breaker, toxicity,
// model, widen, clamp, emit. nil means "do not quote", never failure.
func (e *Engine) GenerateQuotes(ms market.State) *QuotePair {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	e.lastMid = ms.Mid
	e.vol.AddPrice(ms.Mid)

	// Refresh pacing: too soon after the last pair, nothing beyond the
	// volatility feed may change.
	if refresh := time.Duration(e.cfg.Quoting.QuoteRefreshMs) * time.Millisecond; refresh > 0 &&
		!e.lastQuoteAt.IsZero() && now.Sub(e.lastQuoteAt) < refresh {
		metrics.IncrementQuotesSuppressed(reasonRefresh)
		return nil
	}

	if v := e.breaker.Check(); v.Triggered {
		if e.mode != ModeRiskOff {
			metrics.BreakerTrips.Inc()
			if e.alerts != nil {
				e.alerts.Critical("circuit breaker tripped", map[string]interface{}{
					"symbol": e.cfg.Symbol, "reason": v.Reason,
				})
			}
		}
		e.mode = ModeRiskOff
		e.modeReason = v.Reason
		e.log.LogRisk("breaker_veto", zap.String("reason", v.Reason))
		metrics.IncrementQuotesSuppressed(reasonBreaker)
		return nil
	}

	volatility := e.effectiveVol(ms)
	regime := e.regimes.Classify(volatility)
	inv := e.inv.Snapshot(ms.Mid)

	score := e.toxicity.Score()
	action := e.toxicity.RecommendedAction()
	if action == posttrade.ActionPause {
		if e.alerts != nil {
			e.alerts.Warning("quoting paused on toxic flow", map[string]interface{}{
				"symbol": e.cfg.Symbol, "score": score,
			})
		}
		e.log.LogRisk("toxicity_pause", zap.Float64("score", score))
		metrics.IncrementQuotesSuppressed(reasonToxicity)
		return nil
	}

	q := e.model.OptimalQuotes(ms.Mid, volatility, inv.Quantity, e.cfg.Model.HorizonSeconds)

	spread := q.Spread
	mode, modeReason := ModeNormal, ""
	switch {
	case action == posttrade.ActionWiden:
		spread *= 1.5
		mode, modeReason = ModeInventorySkew, "toxicity widen"
	case e.inv.ShouldRebalance().Needed:
		mode, modeReason = ModeInventorySkew, "inventory rebalance"
	}

	minSpread := ms.Mid * e.cfg.Spread.MinSpreadPercent / 100
	maxSpread := ms.Mid * e.cfg.Spread.BaseSpreadPercent * e.cfg.Spread.MaxSpreadMultiplier / 100
	spread = clamp(spread, minSpread, maxSpread)

	// A rate-limited cycle emits nothing and must leave the mode as the
	// last emitted pair set it.
	if !e.limiter.AllowN(now, 1) {
		metrics.IncrementQuotesSuppressed(reasonRateLimit)
		return nil
	}
	e.mode, e.modeReason = mode, modeReason

	// Quotes are centered on the model's skew-adjusted midpoint so the
	// inventory bias survives the clamp.
	center := (q.BidPrice + q.AskPrice) / 2
	half := spread / 2
	pair := &QuotePair{
		Bid: Quote{Side: SideBid, Price: center - half, Quantity: e.cfg.Quoting.QuoteQuantity,
			HalfSpread: half, Timestamp: now, Status: StatusPending},
		Ask: Quote{Side: SideAsk, Price: center + half, Quantity: e.cfg.Quoting.QuoteQuantity,
			HalfSpread: half, Timestamp: now, Status: StatusPending},
	}
	e.lastQuoteAt = now

	e.session.RecordQuotePair(spread)
	metrics.UpdateMarketMetrics(ms.Mid, volatility, int(regime))
	metrics.UpdateStrategyMetrics(
		e.model.ReservationPrice(ms.Mid, volatility, inv.Quantity, e.cfg.Model.HorizonSeconds), spread)
	metrics.UpdateInventoryMetrics(inv.Quantity, inv.InventoryRisk)
	metrics.IncrementQuotesGenerated("bid")
	metrics.IncrementQuotesGenerated("ask")
	e.log.LogQuote(e.cfg.Symbol, pair.Bid.Price, pair.Ask.Price, spread)

	return pair
}

// ProcessFill applies one fill to inventory and the trade tape. BID fills
// buy (positive quantity), ASK fills sell. Must be called before the next
// GenerateQuotes so skew never prices against stale exposure.
func (e *Engine) ProcessFill(side Side, price, quantity float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	signed := quantity
	if side == SideAsk {
		signed = -quantity
	}
	mark := e.lastMid
	if mark == 0 {
		mark = price
	}

	st, realized := e.inv.Update(signed, price, mark)
	e.toxicity.RecordTrade(price, quantity, true, now)

	spreadCapture := math.Abs(price-mark) * quantity
	adverseCost := e.toxicity.Score() * spreadCapture
	var latency time.Duration
	if !e.lastQuoteAt.IsZero() {
		latency = now.Sub(e.lastQuoteAt)
	}
	e.session.RecordFill(realized, spreadCapture, adverseCost, latency)

	metrics.IncrementFills(string(side))
	metrics.UpdateInventoryMetrics(st.Quantity, st.InventoryRisk)
	e.log.LogFill(e.cfg.Symbol, string(side), price, quantity, st.Quantity)
}

// RecordMarketTrade feeds an outside (not ours) trade to the toxicity
// tape. Without these the detector cannot see post-fill price moves.
func (e *Engine) RecordMarketTrade(price, quantity float64) {
	e.toxicity.RecordTrade(price, quantity, false, e.clock.Now())
}

// UpdateMarket pushes the session PnL into the circuit breaker and
// refreshes the risk gauges. Intended to run on every market tick,
// independently of quote generation.
func (e *Engine) UpdateMarket(ms market.State) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastMid = ms.Mid
	pnl := e.session.Snapshot().RealizedPnL + e.inv.Snapshot(ms.Mid).UnrealizedPnL
	e.breaker.UpdatePnL(pnl)
	metrics.UpdateRiskMetrics(e.toxicity.Score(), e.breaker.Drawdown(), pnl)
}

// State snapshots the whole agent for observability. Safe to poll from
// another goroutine.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()

	vol := e.vol.Realized()
	return State{
		Symbol:         e.cfg.Symbol,
		Mode:           e.mode,
		ModeReason:     e.modeReason,
		Volatility:     vol,
		Regime:         e.regimes.Classify(vol),
		Inventory:      e.inv.Snapshot(e.lastMid),
		ToxicityScore:  e.toxicity.Score(),
		ToxicityAction: e.toxicity.RecommendedAction(),
		Breaker:        e.breaker.State(),
		Session:        e.session.Snapshot(),
		LastQuoteAt:    e.lastQuoteAt,
	}
}

// SetAlerts attaches an operator alert fanout. Pass nil to detach. The
// manager does its own throttling, so repeated breaker checks will not
// repeat the alert.
func (e *Engine) SetAlerts(m *alert.Manager) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alerts = m
}

// Config returns the immutable configuration this engine was built with.
func (e *Engine) Config() config.AgentConfig { return e.cfg }

// Inventory returns the current position snapshot at the last known mid.
func (e *Engine) Inventory() inventory.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.inv.Snapshot(e.lastMid)
}

// ResetSession clears all per-session state for a fresh trading session.
// Never called implicitly.
func (e *Engine) ResetSession() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inv.Reset()
	e.toxicity.Reset()
	e.breaker.Reset()
	e.session.Reset()
	e.vol.Reset()
	e.mode = ModeNormal
	e.modeReason = ""
	e.lastQuoteAt = time.Time{}
	e.lastMid = 0
}

// effectiveVol prefers the internal estimator once it has real samples and
// falls back to the feed's estimate, then to the estimator's default.
func (e *Engine) effectiveVol(ms market.State) float64 {
	if e.vol.SampleCount() >= 2 {
		return e.vol.Realized()
	}
	if ms.FeedVolatility > 0 {
		return ms.FeedVolatility
	}
	return e.vol.Realized()
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
