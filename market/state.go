package market

import "time"

// State is one normalized tick of market data for a single instrument,
// produced by an external feed handler. FeedVolatility is the feed's own
// realized-vol estimate; the engine overrides it with the internal
// estimator once that has enough samples.
type State struct {
	Symbol         string
	Bid            float64
	Ask            float64
	Mid            float64
	Spread         float64 // natural bid/ask spread, absolute
	FeedVolatility float64
	Volume24h      float64
	Imbalance      float64 // order-book imbalance, -1..1
	FlowPressure   float64 // signed net trade-flow pressure
	Timestamp      time.Time
}

// TapeTrade is one record on the rolling trade tape. OwnQuote marks fills
// against this agent's quotes, which is what adverse-selection analysis
// keys on.
type TapeTrade struct {
	Price     float64
	Quantity  float64
	OwnQuote  bool
	Timestamp time.Time
}
