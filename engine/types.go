package engine

import (
	"time"

	"mm-agent-go/inventory"
	"mm-agent-go/market"
	"mm-agent-go/posttrade"
	"mm-agent-go/risk"
)

// Side of a quote or fill.
type Side string

const (
	SideBid Side = "BID"
	SideAsk Side = "ASK"
)

// QuoteStatus is owned by the execution layer after emission; this core
// only ever produces PENDING quotes.
type QuoteStatus string

const (
	StatusPending   QuoteStatus = "PENDING"
	StatusLive      QuoteStatus = "LIVE"
	StatusFilled    QuoteStatus = "FILLED"
	StatusCancelled QuoteStatus = "CANCELLED"
)

// Quote is one side of an emitted pair.
type Quote struct {
	Side       Side
	Price      float64
	Quantity   float64
	HalfSpread float64 // distance from the quote center
	Timestamp  time.Time
	Status     QuoteStatus
}

// QuotePair is the two-sided commitment produced by one engine cycle.
type QuotePair struct {
	Bid Quote
	Ask Quote
}

// Mode describes what is currently shaping the engine's quotes.
type Mode int

const (
	ModeNormal Mode = iota
	ModeInventorySkew
	ModeRiskOff
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "NORMAL"
	case ModeInventorySkew:
		return "INVENTORY_SKEW"
	case ModeRiskOff:
		return "RISK_OFF"
	default:
		return "UNKNOWN"
	}
}

// State is the read-only observability snapshot of one agent.
type State struct {
	Symbol         string
	Mode           Mode
	ModeReason     string
	Volatility     float64
	Regime         market.VolRegime
	Inventory      inventory.State
	ToxicityScore  float64
	ToxicityAction posttrade.Action
	Breaker        risk.State
	Session        posttrade.Report
	LastQuoteAt    time.Time
}
