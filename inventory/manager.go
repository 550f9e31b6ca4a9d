package inventory

import (
	"math"
	"sync"
)

// flatEpsilon is the residual below which a position snaps to exactly flat.
const flatEpsilon = 1e-4

// Direction of a rebalance trade.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// State is an immutable snapshot of the position. Quantity is signed,
// positive for long. InventoryRisk is |quantity|/MaxQuantity capped at 1;
// the raw quantity is never clamped, so an oversized fill stays visible as
// a rebalance-required state.
type State struct {
	Quantity       float64
	AvgPrice       float64
	UnrealizedPnL  float64
	InventoryRisk  float64
	TargetQuantity float64
	MaxQuantity    float64
}

// RebalanceSignal reports whether the position has drifted far enough from
// target to warrant an offsetting trade.
type RebalanceSignal struct {
	Needed    bool
	Direction Direction
	Quantity  float64
}

// Manager owns the agent's position. It is mutated only by fill events;
// everything else reads snapshots.
type Manager struct {
	mu sync.RWMutex

	quantity float64
	avgPrice float64

	target             float64
	maxQuantity        float64
	rebalanceThreshold float64 // fraction of maxQuantity
}

func NewManager(target, maxQuantity, rebalanceThreshold float64) *Manager {
	return &Manager{
		target:             target,
		maxQuantity:        maxQuantity,
		rebalanceThreshold: rebalanceThreshold,
	}
}

// Update applies one signed fill (positive = bought) and returns the new
// state plus the PnL realized by any closed quantity.
//
// A fill large enough to flip the position sign is treated as two steps:
// the existing position closes at the fill price, then the remainder opens
// a fresh position whose average price is the fill price.
func (m *Manager) Update(fillQuantity, fillPrice, currentPrice float64) (State, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// A zero-quantity fill carries no position change; applying it through
	// the open branch would set an average price on a flat book.
	if fillQuantity == 0 {
		return m.snapshotLocked(currentPrice), 0
	}

	realized := 0.0
	switch {
	case m.quantity == 0:
		m.quantity = fillQuantity
		m.avgPrice = fillPrice

	case sameSign(m.quantity, fillQuantity):
		total := m.quantity + fillQuantity
		m.avgPrice = (m.avgPrice*m.quantity + fillPrice*fillQuantity) / total
		m.quantity = total

	default:
		remaining := m.quantity + fillQuantity
		closed := math.Min(math.Abs(fillQuantity), math.Abs(m.quantity))
		realized = (fillPrice - m.avgPrice) * closed * sign(m.quantity)

		if math.Abs(remaining) < flatEpsilon {
			m.quantity = 0
			m.avgPrice = 0
		} else if sameSign(remaining, m.quantity) {
			m.quantity = remaining // reducing, entry price unchanged
		} else {
			m.quantity = remaining // flipped through flat
			m.avgPrice = fillPrice
		}
	}

	return m.snapshotLocked(currentPrice), realized
}

// Snapshot returns the current state marked at price.
func (m *Manager) Snapshot(price float64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked(price)
}

func (m *Manager) snapshotLocked(price float64) State {
	unrealized := 0.0
	if m.quantity != 0 {
		unrealized = (price - m.avgPrice) * m.quantity
	}
	return State{
		Quantity:       m.quantity,
		AvgPrice:       m.avgPrice,
		UnrealizedPnL:  unrealized,
		InventoryRisk:  math.Min(1, math.Abs(m.quantity)/m.maxQuantity),
		TargetQuantity: m.target,
		MaxQuantity:    m.maxQuantity,
	}
}

// ShouldRebalance signals when |quantity - target| exceeds the configured
// fraction of the position cap.
func (m *Manager) ShouldRebalance() RebalanceSignal {
	m.mu.RLock()
	defer m.mu.RUnlock()

	drift := m.quantity - m.target
	if math.Abs(drift) <= m.rebalanceThreshold*m.maxQuantity {
		return RebalanceSignal{}
	}
	dir := DirectionSell
	if drift < 0 {
		dir = DirectionBuy
	}
	return RebalanceSignal{Needed: true, Direction: dir, Quantity: math.Abs(drift)}
}

// Skew is quantity/maxQuantity. Not clamped: an oversized position reports
// a ratio beyond -1..1 so callers can see the overshoot.
func (m *Manager) Skew() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.quantity / m.maxQuantity
}

// Reset flattens the book for a new trading session.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quantity = 0
	m.avgPrice = 0
}

func sameSign(a, b float64) bool { return (a > 0) == (b > 0) }

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}
