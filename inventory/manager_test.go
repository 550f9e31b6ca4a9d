package inventory

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenAndAverageUp(t *testing.T) {
	m := NewManager(0, 100, 0.5)

	st, realized := m.Update(10, 100, 100)
	assert.Equal(t, 10.0, st.Quantity)
	assert.Equal(t, 100.0, st.AvgPrice)
	assert.Zero(t, realized)

	st, realized = m.Update(5, 106, 106)
	assert.Equal(t, 15.0, st.Quantity)
	assert.InDelta(t, 102.0, st.AvgPrice, 1e-12, "(10*100+5*106)/15")
	assert.Zero(t, realized)
	assert.InDelta(t, (106.0-102.0)*15, st.UnrealizedPnL, 1e-12)
}

func TestZeroQuantityFillIsIgnored(t *testing.T) {
	m := NewManager(0, 100, 0.5)

	// Flat book: a zero fill must not leave an average price behind.
	st, realized := m.Update(0, 123.45, 123.45)
	assert.Zero(t, st.Quantity)
	assert.Zero(t, st.AvgPrice)
	assert.Zero(t, realized)

	// Open book: position and entry stay untouched.
	m.Update(10, 100, 100)
	st, realized = m.Update(0, 150, 150)
	assert.Equal(t, 10.0, st.Quantity)
	assert.Equal(t, 100.0, st.AvgPrice)
	assert.Zero(t, realized)
}

func TestReduceRealizesPnL(t *testing.T) {
	m := NewManager(0, 100, 0.5)
	m.Update(10, 100, 100)

	st, realized := m.Update(-4, 110, 110)
	assert.Equal(t, 6.0, st.Quantity)
	assert.Equal(t, 100.0, st.AvgPrice, "entry price unchanged on a reduce")
	assert.InDelta(t, 40.0, realized, 1e-12)
}

func TestCloseSnapsToFlat(t *testing.T) {
	m := NewManager(0, 100, 0.5)
	m.Update(10, 100, 100)

	st, realized := m.Update(-10.00001, 105, 105)
	assert.Zero(t, st.Quantity, "residual below epsilon snaps flat")
	assert.Zero(t, st.AvgPrice)
	assert.InDelta(t, 50.0, realized, 1e-3)
	assert.Zero(t, st.UnrealizedPnL)
}

func TestFlipThroughFlat(t *testing.T) {
	m := NewManager(0, 100, 0.5)
	m.Update(10, 100, 100)

	// Sell 25 against a 10-long: close the 10 at 105, go 15 short at 105.
	st, realized := m.Update(-25, 105, 105)
	assert.Equal(t, -15.0, st.Quantity)
	assert.Equal(t, 105.0, st.AvgPrice, "flipped side opens at the fill price")
	assert.InDelta(t, 50.0, realized, 1e-12, "only the closed 10 realizes")
}

func TestShortSideAveraging(t *testing.T) {
	m := NewManager(0, 100, 0.5)
	m.Update(-10, 100, 100)
	st, _ := m.Update(-10, 98, 98)
	assert.Equal(t, -20.0, st.Quantity)
	assert.InDelta(t, 99.0, st.AvgPrice, 1e-12)
	// Short position marked below entry is in profit.
	assert.InDelta(t, (98.0-99.0)*-20, st.UnrealizedPnL, 1e-12)
	assert.Greater(t, st.UnrealizedPnL, 0.0)
}

func TestInventoryRiskAndOvershoot(t *testing.T) {
	m := NewManager(0, 10, 0.5)
	st, _ := m.Update(25, 100, 100)

	// A single oversized fill: quantity is never clamped, risk caps at 1.
	assert.Equal(t, 25.0, st.Quantity)
	assert.Equal(t, 1.0, st.InventoryRisk)
	assert.Equal(t, 2.5, m.Skew(), "skew reports the overshoot")
	assert.True(t, m.ShouldRebalance().Needed)
}

func TestShouldRebalance(t *testing.T) {
	m := NewManager(0, 10, 0.5)
	assert.False(t, m.ShouldRebalance().Needed)

	m.Update(4, 100, 100) // |4 - 0| <= 0.5*10
	assert.False(t, m.ShouldRebalance().Needed)

	m.Update(3, 100, 100) // 7 > 5
	sig := m.ShouldRebalance()
	assert.True(t, sig.Needed)
	assert.Equal(t, DirectionSell, sig.Direction)
	assert.InDelta(t, 7.0, sig.Quantity, 1e-12)

	m.Reset()
	m.Update(-6, 100, 100)
	sig = m.ShouldRebalance()
	assert.True(t, sig.Needed)
	assert.Equal(t, DirectionBuy, sig.Direction)
	assert.InDelta(t, 6.0, sig.Quantity, 1e-12)
}

func TestSnapshotIdempotent(t *testing.T) {
	m := NewManager(0, 10, 0.5)
	m.Update(3, 100, 101)
	a := m.Snapshot(101)
	b := m.Snapshot(101)
	assert.Equal(t, a, b)
}

func TestResetFlattens(t *testing.T) {
	m := NewManager(0, 10, 0.5)
	m.Update(5, 100, 100)
	m.Reset()
	st := m.Snapshot(100)
	assert.Zero(t, st.Quantity)
	assert.Zero(t, st.AvgPrice)
	assert.False(t, math.Signbit(st.Quantity))
}
