package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mm-agent-go/config"
	"mm-agent-go/infrastructure/alert"
	"mm-agent-go/market"
	"mm-agent-go/posttrade"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func testConfig() config.AgentConfig {
	cfg := config.Default()
	cfg.Symbol = "TESTUSDC"
	cfg.Quoting.QuoteRefreshMs = 0        // pacing off unless a test opts in
	cfg.Breaker.MaxOrdersPerSecond = 1000 // rate limiting off unless a test opts in
	return cfg
}

func newTestEngine(t *testing.T, cfg config.AgentConfig) (*Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	e, err := NewWithClock(cfg, nil, clock)
	require.NoError(t, err)
	return e, clock
}

func tick(mid float64) market.State {
	return market.State{
		Symbol: "TESTUSDC",
		Bid:    mid - 0.05,
		Ask:    mid + 0.05,
		Mid:    mid,
		Spread: 0.1,
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Model.Gamma = -1
	_, err := New(cfg, nil)
	require.Error(t, err)
}

func TestGenerateQuotesHappyPath(t *testing.T) {
	e, _ := newTestEngine(t, testConfig())

	pair := e.GenerateQuotes(tick(100))
	require.NotNil(t, pair)

	assert.Equal(t, SideBid, pair.Bid.Side)
	assert.Equal(t, SideAsk, pair.Ask.Side)
	assert.Equal(t, StatusPending, pair.Bid.Status)
	assert.Equal(t, StatusPending, pair.Ask.Status)
	assert.Less(t, pair.Bid.Price, pair.Ask.Price)
	assert.Equal(t, e.Config().Quoting.QuoteQuantity, pair.Bid.Quantity)
}

func TestSpreadBounds(t *testing.T) {
	cfg := testConfig()
	e, _ := newTestEngine(t, cfg)

	mids := []float64{100, 100.4, 99.7, 101.2, 98.9, 100.1}
	for _, mid := range mids {
		pair := e.GenerateQuotes(tick(mid))
		require.NotNil(t, pair)
		spread := pair.Ask.Price - pair.Bid.Price
		lo := mid * cfg.Spread.MinSpreadPercent / 100
		hi := mid * cfg.Spread.BaseSpreadPercent * cfg.Spread.MaxSpreadMultiplier / 100
		assert.GreaterOrEqual(t, spread, lo-1e-9, "mid %v", mid)
		assert.LessOrEqual(t, spread, hi+1e-9, "mid %v", mid)
	}
}

func TestInventorySkewMovesQuotes(t *testing.T) {
	flat, _ := newTestEngine(t, testConfig())
	long, _ := newTestEngine(t, testConfig())
	short, _ := newTestEngine(t, testConfig())

	long.ProcessFill(SideBid, 100, 5)
	short.ProcessFill(SideAsk, 100, 5)

	ms := tick(100)
	pf := flat.GenerateQuotes(ms)
	pl := long.GenerateQuotes(ms)
	ps := short.GenerateQuotes(ms)
	require.NotNil(t, pf)
	require.NotNil(t, pl)
	require.NotNil(t, ps)

	assert.Less(t, pl.Bid.Price, pf.Bid.Price, "long inventory lowers the bid")
	assert.Less(t, pl.Ask.Price, pf.Ask.Price, "long inventory lowers the ask")
	assert.Greater(t, ps.Bid.Price, pf.Bid.Price, "short inventory raises the bid")
	assert.Greater(t, ps.Ask.Price, pf.Ask.Price, "short inventory raises the ask")
}

func TestToxicityPauseSuppressesQuotes(t *testing.T) {
	e, _ := newTestEngine(t, testConfig())

	// Every own fill is followed by a 1% move: the score climbs past the
	// pause level no matter what the rest of the market looks like.
	price := 100.0
	for i := 0; i < 12; i++ {
		e.ProcessFill(SideBid, price, 0.01)
		price *= 1.01
		e.RecordMarketTrade(price, 1)
	}
	st := e.State()
	require.GreaterOrEqual(t, st.ToxicityScore, 0.6)
	require.Equal(t, posttrade.ActionPause, st.ToxicityAction)

	assert.Nil(t, e.GenerateQuotes(tick(price)))
}

func TestBreakerVetoAndRecovery(t *testing.T) {
	cfg := testConfig()
	cfg.Breaker.MaxDrawdownPercent = 5
	cfg.Breaker.CoolDownMs = 1000
	e, clock := newTestEngine(t, cfg)

	// Build unrealized profit, then give most of it back.
	e.ProcessFill(SideBid, 100, 1)
	e.UpdateMarket(tick(120)) // pnl 20, new peak
	e.UpdateMarket(tick(102)) // pnl 2, 90% drawdown

	require.Nil(t, e.GenerateQuotes(tick(102)))
	st := e.State()
	assert.Equal(t, ModeRiskOff, st.Mode)
	assert.True(t, st.Breaker.Active)
	assert.NotEmpty(t, st.ModeReason)

	// Still vetoed inside the cooldown window.
	clock.advance(500 * time.Millisecond)
	require.Nil(t, e.GenerateQuotes(tick(102)))

	// After cooldown the breaker re-arms and quoting resumes.
	clock.advance(501 * time.Millisecond)
	pair := e.GenerateQuotes(tick(102))
	require.NotNil(t, pair)
	assert.False(t, e.State().Breaker.Active)
}

func TestBreakerTripRaisesAlert(t *testing.T) {
	cfg := testConfig()
	cfg.Breaker.MaxDrawdownPercent = 5
	e, _ := newTestEngine(t, cfg)

	ch := alert.NewMockChannel("test")
	e.SetAlerts(alert.NewManager([]alert.Channel{ch}, time.Minute))

	e.ProcessFill(SideBid, 100, 1)
	e.UpdateMarket(tick(120))
	e.UpdateMarket(tick(102))

	require.Nil(t, e.GenerateQuotes(tick(102)))
	require.Equal(t, 1, ch.Count())
	assert.Equal(t, alert.LevelCritical, ch.Alerts()[0].Level)

	// The veto repeats every cycle; the alert must not.
	require.Nil(t, e.GenerateQuotes(tick(102)))
	assert.Equal(t, 1, ch.Count())
}

func TestRefreshPacing(t *testing.T) {
	cfg := testConfig()
	cfg.Quoting.QuoteRefreshMs = 250
	e, clock := newTestEngine(t, cfg)

	require.NotNil(t, e.GenerateQuotes(tick(100)))

	clock.advance(100 * time.Millisecond)
	assert.Nil(t, e.GenerateQuotes(tick(100.1)), "inside the refresh interval")

	clock.advance(200 * time.Millisecond)
	assert.NotNil(t, e.GenerateQuotes(tick(100.2)))
}

func TestQuoteRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Breaker.MaxOrdersPerSecond = 1
	e, clock := newTestEngine(t, cfg)

	require.NotNil(t, e.GenerateQuotes(tick(100)))
	require.Equal(t, ModeNormal, e.State().Mode)

	// Position drift would flag INVENTORY_SKEW, but the limited cycle
	// emits nothing, so the mode of the last emitted pair stands.
	e.ProcessFill(SideBid, 100, 6)
	clock.advance(300 * time.Millisecond)
	assert.Nil(t, e.GenerateQuotes(tick(100)), "token budget exhausted")
	assert.Equal(t, ModeNormal, e.State().Mode)
	assert.Empty(t, e.State().ModeReason)

	clock.advance(time.Second)
	assert.NotNil(t, e.GenerateQuotes(tick(100)))
	assert.Equal(t, ModeInventorySkew, e.State().Mode)
}

func TestProcessFillUpdatesInventoryBeforeNextQuote(t *testing.T) {
	e, _ := newTestEngine(t, testConfig())

	before := e.GenerateQuotes(tick(100))
	require.NotNil(t, before)

	e.ProcessFill(SideBid, before.Bid.Price, 5)
	inv := e.Inventory()
	assert.Equal(t, 5.0, inv.Quantity)
	assert.Equal(t, before.Bid.Price, inv.AvgPrice)

	after := e.GenerateQuotes(tick(100))
	require.NotNil(t, after)
	assert.Less(t, after.Bid.Price, before.Bid.Price, "next cycle prices against the new exposure")
}

func TestRebalanceModeFlagged(t *testing.T) {
	cfg := testConfig()
	cfg.Inventory.RebalanceThreshold = 0.3
	e, _ := newTestEngine(t, cfg)

	e.ProcessFill(SideBid, 100, 6) // 6 > 0.3*10
	require.NotNil(t, e.GenerateQuotes(tick(100)))
	st := e.State()
	assert.Equal(t, ModeInventorySkew, st.Mode)
	assert.Equal(t, "inventory rebalance", st.ModeReason)
}

func TestStateSnapshotsAreIdempotent(t *testing.T) {
	e, _ := newTestEngine(t, testConfig())
	e.GenerateQuotes(tick(100))
	e.ProcessFill(SideBid, 99.9, 1)

	assert.Equal(t, e.State(), e.State())
	assert.Equal(t, e.Inventory(), e.Inventory())
	assert.Equal(t, e.Config(), e.Config())
}

func TestSessionMetricsAccumulate(t *testing.T) {
	e, _ := newTestEngine(t, testConfig())

	require.NotNil(t, e.GenerateQuotes(tick(100)))
	e.ProcessFill(SideBid, 99.8, 1)

	rep := e.State().Session
	assert.Equal(t, 1, rep.TradeCount)
	assert.Greater(t, rep.QuoteToFillRatio, 0.0)
	assert.Greater(t, rep.SpreadCaptured, 0.0)
}

func TestResetSession(t *testing.T) {
	e, _ := newTestEngine(t, testConfig())
	e.GenerateQuotes(tick(100))
	e.ProcessFill(SideBid, 100, 5)
	e.UpdateMarket(tick(101))

	e.ResetSession()
	st := e.State()
	assert.Zero(t, st.Inventory.Quantity)
	assert.Zero(t, st.ToxicityScore)
	assert.False(t, st.Breaker.Active)
	assert.Zero(t, st.Session.TradeCount)
	assert.Equal(t, ModeNormal, st.Mode)
	assert.True(t, st.LastQuoteAt.IsZero())

	// A reset engine quotes again from scratch.
	assert.NotNil(t, e.GenerateQuotes(tick(100)))
}
