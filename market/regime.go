package market

// VolRegime buckets annualized volatility into discrete bands the strategy
// and observability layers can key on.
type VolRegime int

const (
	RegimeLow VolRegime = iota
	RegimeNormal
	RegimeHigh
	RegimeExtreme
)

func (r VolRegime) String() string {
	switch r {
	case RegimeLow:
		return "LOW"
	case RegimeNormal:
		return "NORMAL"
	case RegimeHigh:
		return "HIGH"
	case RegimeExtreme:
		return "EXTREME"
	default:
		return "UNKNOWN"
	}
}

// RegimeClassifier maps a volatility estimate onto a regime using
// configured cut points (low < normal < high; at or beyond high is extreme).
type RegimeClassifier struct {
	low    float64
	normal float64
	high   float64
}

func NewRegimeClassifier(low, normal, high float64) *RegimeClassifier {
	return &RegimeClassifier{low: low, normal: normal, high: high}
}

func (c *RegimeClassifier) Classify(vol float64) VolRegime {
	switch {
	case vol < c.low:
		return RegimeLow
	case vol < c.normal:
		return RegimeNormal
	case vol < c.high:
		return RegimeHigh
	default:
		return RegimeExtreme
	}
}
