package posttrade

import (
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// SessionMetrics is the append-only performance ledger for one trading
// session. Monetary sums accumulate as decimals so a long session of tiny
// fills cannot drift the ledger; derived ratios come out as floats.
type SessionMetrics struct {
	mu sync.RWMutex

	realizedPnL    decimal.Decimal
	spreadCaptured decimal.Decimal
	adverseCost    decimal.Decimal

	tradeCount int
	winCount   int
	lossCount  int

	quotePairs int
	fills      int

	sumSpread    float64
	spreadQuotes int

	pnlSamples []float64

	latencySum   time.Duration
	latencyCount int
}

// Report is a read-only snapshot of the ledger.
type Report struct {
	RealizedPnL        float64
	SpreadCaptured     float64
	AdverseCost        float64
	TradeCount         int
	WinRate            float64
	AvgSpread          float64
	AvgFillLatency     time.Duration
	QuoteToFillRatio   float64
	RiskAdjustedReturn float64
}

func NewSessionMetrics() *SessionMetrics {
	return &SessionMetrics{}
}

// RecordQuotePair notes one emitted two-sided quote and its full spread.
func (s *SessionMetrics) RecordQuotePair(spread float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotePairs++
	s.sumSpread += spread
	s.spreadQuotes++
}

// RecordFill folds one fill into the ledger. realized is the PnL closed by
// the fill (zero for opening fills), spreadCapture the half-spread earned
// against mid, adverseCost the toxicity-weighted expected giveback, and
// latency the time since the filled quote was emitted.
func (s *SessionMetrics) RecordFill(realized, spreadCapture, adverseCost float64, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fills++
	s.tradeCount++
	s.realizedPnL = s.realizedPnL.Add(decimal.NewFromFloat(realized))
	s.spreadCaptured = s.spreadCaptured.Add(decimal.NewFromFloat(spreadCapture))
	s.adverseCost = s.adverseCost.Add(decimal.NewFromFloat(adverseCost))

	if realized > 0 {
		s.winCount++
	} else if realized < 0 {
		s.lossCount++
	}
	s.pnlSamples = append(s.pnlSamples, realized)

	if latency > 0 {
		s.latencySum += latency
		s.latencyCount++
	}
}

// Snapshot derives the report. Ratios over empty denominators are zero,
// never NaN.
func (s *SessionMetrics) Snapshot() Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r := Report{
		RealizedPnL:    s.realizedPnL.InexactFloat64(),
		SpreadCaptured: s.spreadCaptured.InexactFloat64(),
		AdverseCost:    s.adverseCost.InexactFloat64(),
		TradeCount:     s.tradeCount,
	}
	if closed := s.winCount + s.lossCount; closed > 0 {
		r.WinRate = float64(s.winCount) / float64(closed)
	}
	if s.spreadQuotes > 0 {
		r.AvgSpread = s.sumSpread / float64(s.spreadQuotes)
	}
	if s.latencyCount > 0 {
		r.AvgFillLatency = s.latencySum / time.Duration(s.latencyCount)
	}
	if s.quotePairs > 0 {
		r.QuoteToFillRatio = float64(s.fills) / float64(s.quotePairs)
	}
	r.RiskAdjustedReturn = sharpeRatio(s.pnlSamples)
	return r
}

// Reset clears the ledger for a new session.
func (s *SessionMetrics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.realizedPnL = decimal.Zero
	s.spreadCaptured = decimal.Zero
	s.adverseCost = decimal.Zero
	s.tradeCount, s.winCount, s.lossCount = 0, 0, 0
	s.quotePairs, s.fills = 0, 0
	s.sumSpread, s.spreadQuotes = 0, 0
	s.pnlSamples = s.pnlSamples[:0]
	s.latencySum, s.latencyCount = 0, 0
}

// sharpeRatio is mean/stdev of per-fill PnL samples. It is a per-fill
// ratio, deliberately not annualized: fills arrive at no fixed cadence.
func sharpeRatio(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	mean := 0.0
	for _, x := range samples {
		mean += x
	}
	mean /= float64(len(samples))

	variance := 0.0
	for _, x := range samples {
		variance += (x - mean) * (x - mean)
	}
	variance /= float64(len(samples) - 1)
	if variance == 0 {
		return 0
	}
	return mean / math.Sqrt(variance)
}
