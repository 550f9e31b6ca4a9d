package market

import (
	"math"
	"testing"
)

func TestRealizedDefaultWithNoSamples(t *testing.T) {
	v := NewVolatilityEstimator(30)
	if got := v.Realized(); got != 0.2 {
		t.Fatalf("empty estimator: want 0.2, got %f", got)
	}
	v.AddPrice(100) // primes only, still no return samples
	if got := v.Realized(); got != 0.2 {
		t.Fatalf("one price: want 0.2, got %f", got)
	}
	v.AddPrice(101) // one return sample, still below minimum
	if got := v.Realized(); got != 0.2 {
		t.Fatalf("one return: want 0.2, got %f", got)
	}
}

func TestRealizedMatchesHandComputation(t *testing.T) {
	v := NewVolatilityEstimator(30)
	prices := []float64{100, 101, 100, 102}
	for _, p := range prices {
		v.AddPrice(p)
	}
	// Returns: 0.01, -1/101, 0.02
	r := []float64{0.01, -1.0 / 101.0, 0.02}
	mean := (r[0] + r[1] + r[2]) / 3
	variance := 0.0
	for _, x := range r {
		variance += (x - mean) * (x - mean)
	}
	variance /= 2
	want := math.Sqrt(variance) * math.Sqrt(525600)

	if got := v.Realized(); math.Abs(got-want) > 1e-9 {
		t.Fatalf("want %f, got %f", want, got)
	}
}

func TestRealizedZeroVarianceSeries(t *testing.T) {
	v := NewVolatilityEstimator(10)
	for i := 0; i < 5; i++ {
		v.AddPrice(100)
	}
	if got := v.Realized(); got != 0 {
		t.Fatalf("flat series must yield zero vol, got %f", got)
	}
}

func TestLookbackEviction(t *testing.T) {
	v := NewVolatilityEstimator(3)
	for i := 0; i < 10; i++ {
		v.AddPrice(100 + float64(i))
	}
	if v.SampleCount() != 3 {
		t.Fatalf("want 3 retained samples, got %d", v.SampleCount())
	}
}

func TestAddPriceIgnoresNonPositive(t *testing.T) {
	v := NewVolatilityEstimator(10)
	v.AddPrice(100)
	v.AddPrice(0)
	v.AddPrice(-5)
	if v.SampleCount() != 0 {
		t.Fatalf("non-positive prices must not produce returns, got %d samples", v.SampleCount())
	}
}

func TestParkinson(t *testing.T) {
	highs := []float64{101, 102, 103}
	lows := []float64{99, 100, 101}
	sum := 0.0
	for i := range highs {
		r := math.Log(highs[i] / lows[i])
		sum += r * r
	}
	want := math.Sqrt(sum/(4*3*math.Ln2)) * math.Sqrt(525600)
	if got := Parkinson(highs, lows); math.Abs(got-want) > 1e-9 {
		t.Fatalf("want %f, got %f", want, got)
	}
}

func TestParkinsonFallbacks(t *testing.T) {
	if got := Parkinson(nil, nil); got != 0.2 {
		t.Fatalf("empty input: want 0.2, got %f", got)
	}
	if got := Parkinson([]float64{101, 102}, []float64{100}); got != 0.2 {
		t.Fatalf("mismatched input: want 0.2, got %f", got)
	}
	if got := Parkinson([]float64{99}, []float64{100}); got != 0.2 {
		t.Fatalf("inverted range: want 0.2, got %f", got)
	}
}

func TestResetClearsState(t *testing.T) {
	v := NewVolatilityEstimator(10)
	v.AddPrice(100)
	v.AddPrice(105)
	v.Reset()
	if v.SampleCount() != 0 {
		t.Fatalf("reset must drop samples")
	}
	if got := v.Realized(); got != 0.2 {
		t.Fatalf("reset estimator must fall back to default, got %f", got)
	}
}

func TestRegimeClassifier(t *testing.T) {
	c := NewRegimeClassifier(0.3, 0.6, 1.0)
	cases := []struct {
		vol  float64
		want VolRegime
	}{
		{0.0, RegimeLow},
		{0.29, RegimeLow},
		{0.3, RegimeNormal},
		{0.59, RegimeNormal},
		{0.6, RegimeHigh},
		{0.99, RegimeHigh},
		{1.0, RegimeExtreme},
		{5.0, RegimeExtreme},
	}
	for _, tc := range cases {
		if got := c.Classify(tc.vol); got != tc.want {
			t.Errorf("vol %.2f: want %s, got %s", tc.vol, tc.want, got)
		}
	}
}
