package strategy

import "math"

// Model implements the Avellaneda-Stoikov (2008) optimal market-making
// formulas. It carries configuration only, no mutable state, so one value
// may be shared across goroutines and instruments.
type Model struct {
	Gamma          float64 // risk aversion
	Kappa          float64 // order-book liquidity intensity
	HorizonSeconds float64 // trading horizon T
	MaxInventory   float64 // normalizes inventory into a -1..1 ratio
	SkewFactor     float64 // scales the inventory skew term
}

// QuoteSet is the model output for one pricing call. Spread is the full
// bid/ask distance in price units.
type QuoteSet struct {
	BidPrice float64
	AskPrice float64
	Spread   float64
}

// OptimalQuotes prices a two-sided quote around mid. The half-spread is
//
//	gamma*sigma^2*t/2 + (1/kappa)*ln(1 + gamma/kappa)
//
// as a fraction of price. The inventory skew term shifts both quotes
// against the position: a long book lowers bid and ask to encourage
// selling down, a short book raises both. timeRemaining <= 0 falls back
// to the configured horizon.
func (m Model) OptimalQuotes(mid, volatility, inventory, timeRemaining float64) QuoteSet {
	t := m.horizon(timeRemaining)
	variance := volatility * volatility

	halfSpread := m.Gamma*variance*t/2 + (1/m.Kappa)*math.Log(1+m.Gamma/m.Kappa)
	skew := m.Gamma * (inventory / m.MaxInventory) * variance * t * m.SkewFactor

	return QuoteSet{
		BidPrice: mid - halfSpread*mid - skew,
		AskPrice: mid + halfSpread*mid - skew,
		Spread:   2 * halfSpread * mid,
	}
}

// ReservationPrice is the inventory-adjusted indifference price,
// mid - (inventory/maxInventory)*gamma*sigma^2*t. Exposed for diagnostics
// and tests; quoting goes through OptimalQuotes.
func (m Model) ReservationPrice(mid, volatility, inventory, timeRemaining float64) float64 {
	t := m.horizon(timeRemaining)
	variance := volatility * volatility
	return mid - (inventory/m.MaxInventory)*m.Gamma*variance*t
}

// FillProbability estimates the chance of a passive fill from queue
// position: exp(-pos/avgQueue) scaled up by short-term volatility, capped
// at +50%. Zero queue data means no book ahead of us, so assume an
// immediate fill. Callers clamp the result to [0, 1].
func (m Model) FillProbability(queuePosition, averageQueueSize, volatility float64) float64 {
	if averageQueueSize == 0 {
		return 1
	}
	boost := math.Min(volatility*10, 0.5)
	return math.Exp(-queuePosition/averageQueueSize) * (1 + boost)
}

func (m Model) horizon(timeRemaining float64) float64 {
	if timeRemaining <= 0 {
		return m.HorizonSeconds
	}
	return timeRemaining
}
