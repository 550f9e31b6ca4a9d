package market

import "math"

// annualizeFactor scales per-minute return stdev to a one-year horizon
// (sqrt of minutes per year). Ports sampling at a different bar interval
// must replace this factor.
var annualizeFactor = math.Sqrt(525600)

// defaultVol is returned whenever there is not enough data for a real
// estimate. 20% annualized is deliberately conservative; an empty estimator
// must widen quotes, not tighten them.
const defaultVol = 0.2

// VolatilityEstimator keeps a fixed ring of simple per-update returns and
// produces an annualized realized-volatility estimate. Not safe for
// concurrent use; one estimator belongs to one agent.
type VolatilityEstimator struct {
	lookback  int
	returns   []float64
	lastPrice float64
	primed    bool
}

func NewVolatilityEstimator(lookback int) *VolatilityEstimator {
	return &VolatilityEstimator{
		lookback: lookback,
		returns:  make([]float64, 0, lookback),
	}
}

// AddPrice records the simple return against the previously recorded price.
// The first call only primes the reference price and contributes no return,
// so the first one or two estimates fall back to the default.
func (v *VolatilityEstimator) AddPrice(price float64) {
	if price <= 0 {
		return
	}
	if !v.primed {
		v.lastPrice = price
		v.primed = true
		return
	}
	v.returns = append(v.returns, (price-v.lastPrice)/v.lastPrice)
	v.lastPrice = price
	if len(v.returns) > v.lookback {
		v.returns = v.returns[1:]
	}
}

// Realized returns the annualized sample standard deviation of the recorded
// returns, or the default when fewer than two samples exist.
func (v *VolatilityEstimator) Realized() float64 {
	n := len(v.returns)
	if n < 2 {
		return defaultVol
	}
	mean := 0.0
	for _, r := range v.returns {
		mean += r
	}
	mean /= float64(n)

	sumSq := 0.0
	for _, r := range v.returns {
		d := r - mean
		sumSq += d * d
	}
	variance := sumSq / float64(n-1)
	return math.Sqrt(variance) * annualizeFactor
}

// Parkinson estimates volatility from high/low ranges:
// sqrt( sum(ln(high/low)^2) / (4 n ln2) ), annualized the same way as
// Realized. Falls back to the default on empty or mismatched inputs.
func Parkinson(highs, lows []float64) float64 {
	n := len(highs)
	if n == 0 || n != len(lows) {
		return defaultVol
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		if highs[i] <= 0 || lows[i] <= 0 || highs[i] < lows[i] {
			return defaultVol
		}
		r := math.Log(highs[i] / lows[i])
		sum += r * r
	}
	return math.Sqrt(sum/(4*float64(n)*math.Ln2)) * annualizeFactor
}

// SampleCount reports how many returns are currently held.
func (v *VolatilityEstimator) SampleCount() int { return len(v.returns) }

// Reset drops all samples, for use at session boundaries only.
func (v *VolatilityEstimator) Reset() {
	v.returns = v.returns[:0]
	v.lastPrice = 0
	v.primed = false
}
