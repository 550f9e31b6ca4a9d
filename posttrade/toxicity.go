package posttrade

import (
	"math"
	"sync"
	"time"

	"mm-agent-go/market"
)

const (
	tapeSize       = 100 // trades kept on the rolling tape
	toxicityWindow = 20  // most recent trades examined per recompute
)

// Action is the detector's quoting recommendation.
type Action int

const (
	ActionContinue Action = iota
	ActionWiden
	ActionPause
)

func (a Action) String() string {
	switch a {
	case ActionContinue:
		return "CONTINUE"
	case ActionWiden:
		return "WIDEN"
	case ActionPause:
		return "PAUSE"
	default:
		return "UNKNOWN"
	}
}

// DetectorParams tunes the toxicity model. Zero values are invalid; build
// them from a validated config.
type DetectorParams struct {
	WidenLevel         float64 // score above which quotes should widen
	PauseLevel         float64 // score above which quoting should stop
	Decay              float64 // per-update decay when the window has no own fills
	BlendOld           float64 // weight of the running score
	BlendNew           float64 // weight of the fresh sample
	AdverseMovePercent float64 // post-fill move that counts as adverse
}

// Detector estimates how often the agent's own passive fills are followed
// by an unfavorable price move. The score is a 0..1 exponentially blended
// fraction; it only changes when new tape data arrives.
type Detector struct {
	mu     sync.RWMutex
	params DetectorParams
	tape   []market.TapeTrade
	score  float64
}

func NewDetector(params DetectorParams) *Detector {
	return &Detector{
		params: params,
		tape:   make([]market.TapeTrade, 0, tapeSize),
	}
}

// RecordTrade appends one trade to the tape and recomputes the score.
// ownQuote marks fills of this agent's quotes.
func (d *Detector) RecordTrade(price, quantity float64, ownQuote bool, ts time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.tape = append(d.tape, market.TapeTrade{
		Price:     price,
		Quantity:  quantity,
		OwnQuote:  ownQuote,
		Timestamp: ts,
	})
	if len(d.tape) > tapeSize {
		d.tape = d.tape[1:]
	}
	d.recomputeLocked()
}

// recomputeLocked scans the most recent window: for each own fill that has
// a successor trade, a price move beyond the adverse threshold counts
// against us. The adverse fraction blends into the running score; a window
// without own fills decays the score instead.
func (d *Detector) recomputeLocked() {
	window := d.tape
	if len(window) > toxicityWindow {
		window = window[len(window)-toxicityWindow:]
	}

	ownFills, adverse := 0, 0
	for i := 0; i < len(window)-1; i++ {
		if !window[i].OwnQuote {
			continue
		}
		ownFills++
		move := math.Abs(window[i+1].Price-window[i].Price) / window[i].Price * 100
		if move > d.params.AdverseMovePercent {
			adverse++
		}
	}

	if ownFills == 0 {
		d.score *= d.params.Decay
		return
	}
	sample := float64(adverse) / float64(ownFills)
	d.score = d.score*d.params.BlendOld + sample*d.params.BlendNew
}

// Score returns the current toxicity estimate in [0, 1].
func (d *Detector) Score() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.score
}

// RecommendedAction maps the score onto quoting behavior. At or above the
// pause level quoting stops entirely, it does not merely widen.
func (d *Detector) RecommendedAction() Action {
	d.mu.RLock()
	defer d.mu.RUnlock()
	switch {
	case d.score < d.params.WidenLevel:
		return ActionContinue
	case d.score < d.params.PauseLevel:
		return ActionWiden
	default:
		return ActionPause
	}
}

// TapeLen reports the number of trades currently on the tape.
func (d *Detector) TapeLen() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.tape)
}

// Reset clears tape and score at a session boundary.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tape = d.tape[:0]
	d.score = 0
}
