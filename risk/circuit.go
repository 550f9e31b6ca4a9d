package risk

import (
	"fmt"
	"sync"
	"time"
)

// trip exists only while the breaker is triggered, so a reason can never
// be observed on an armed breaker.
type trip struct {
	reason string
	since  time.Time
}

// Verdict is the outcome of one Check call.
type Verdict struct {
	Triggered bool
	Reason    string
	Since     time.Time
}

// State is an observability snapshot of the breaker.
type State struct {
	Active      bool
	Reason      string
	TriggeredAt time.Time
	PeakPnL     float64
	CurrentPnL  float64
}

// CircuitBreaker halts quoting when drawdown from peak PnL exceeds a limit,
// then re-arms after a cooldown. The cooldown is evaluated lazily against
// the clock on each Check; there is no internal timer. PnL tracking keeps
// running while triggered, and on re-arm the peak restarts from the
// current PnL so the expired episode cannot re-trigger instantly.
type CircuitBreaker struct {
	mu sync.Mutex

	maxDrawdownPercent float64
	coolDown           time.Duration
	clock              Clock

	peakPnL    float64
	currentPnL float64
	trip       *trip // nil while armed
}

func NewCircuitBreaker(maxDrawdownPercent float64, coolDown time.Duration, clock Clock) *CircuitBreaker {
	if clock == nil {
		clock = SystemClock
	}
	return &CircuitBreaker{
		maxDrawdownPercent: maxDrawdownPercent,
		coolDown:           coolDown,
		clock:              clock,
	}
}

// UpdatePnL feeds the running session PnL into peak tracking. Called on
// every market update, in armed and triggered states alike.
func (b *CircuitBreaker) UpdatePnL(currentPnL float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if currentPnL > b.peakPnL {
		b.peakPnL = currentPnL
	}
	b.currentPnL = currentPnL
}

// Check evaluates the state machine. Triggered with the cooldown not yet
// elapsed returns the original trip; an elapsed cooldown re-arms and
// returns clear. Armed computes drawdown from peak (zero when the peak is
// not positive) and trips when it exceeds the limit.
func (b *CircuitBreaker) Check() Verdict {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock.Now()
	if b.trip != nil {
		if now.Sub(b.trip.since) > b.coolDown {
			b.trip = nil
			b.peakPnL = b.currentPnL
			return Verdict{}
		}
		return Verdict{Triggered: true, Reason: b.trip.reason, Since: b.trip.since}
	}

	dd := b.drawdownLocked()
	if dd > b.maxDrawdownPercent {
		b.trip = &trip{
			reason: fmt.Sprintf("drawdown %.2f%% exceeds limit %.2f%%", dd, b.maxDrawdownPercent),
			since:  now,
		}
		return Verdict{Triggered: true, Reason: b.trip.reason, Since: now}
	}
	return Verdict{}
}

func (b *CircuitBreaker) drawdownLocked() float64 {
	if b.peakPnL <= 0 {
		return 0
	}
	return (b.peakPnL - b.currentPnL) / b.peakPnL * 100
}

// Drawdown reports the current drawdown percent without mutating state.
func (b *CircuitBreaker) Drawdown() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.drawdownLocked()
}

// State snapshots the breaker for observability.
func (b *CircuitBreaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := State{PeakPnL: b.peakPnL, CurrentPnL: b.currentPnL}
	if b.trip != nil {
		st.Active = true
		st.Reason = b.trip.reason
		st.TriggeredAt = b.trip.since
	}
	return st
}

// Reset clears trip and PnL tracking at a session boundary. It is never
// called mid-session; cooldown expiry is the only in-session path back to
// armed.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trip = nil
	b.peakPnL = 0
	b.currentPnL = 0
}
