package factor

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/quant/market"
)

func barsFromCloses(closes ...float64) []market.PriceBar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = market.PriceBar{
			Instrument: 1,
			Date:       start.AddDate(0, 0, i),
			AdjClose:   c,
			AdjVolume:  1000,
		}
	}
	return bars
}

func TestMomentumCompute(t *testing.T) {
	t.Parallel()
	m := NewMomentum(2, 1)
	assert.Equal(t, "mom_2d_skip1", m.Name())
	assert.Equal(t, "factor:momentum:2:1:v1", m.StateKey())

	cols := m.Compute(barsFromCloses(10, 11, 12, 13, 14))
	require.Len(t, cols, 1)
	vals := cols[0].Values
	require.Len(t, vals, 5)

	// Needs skip+lookback prior bars.
	for i := 0; i < 3; i++ {
		assert.False(t, vals[i].Valid, "index %d", i)
	}
	require.True(t, vals[3].Valid)
	assert.InDelta(t, 12.0/10.0-1.0, vals[3].V, 1e-12)
	require.True(t, vals[4].Valid)
	assert.InDelta(t, 13.0/11.0-1.0, vals[4].V, 1e-12)
}

func TestMomentumNameWithoutSkip(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "mom_63d", NewMomentum(63, 0).Name())
}

func TestMomentumInvalidPrices(t *testing.T) {
	t.Parallel()
	m := NewMomentum(1, 0)
	cols := m.Compute(barsFromCloses(0, 10, 11))
	vals := cols[0].Values
	assert.False(t, vals[1].Valid) // base price not positive
	require.True(t, vals[2].Valid)
	assert.InDelta(t, 0.1, vals[2].V, 1e-12)
}

func TestVolatilityConstantGrowthIsZero(t *testing.T) {
	t.Parallel()
	v := NewVolatility(3, 252)
	assert.Equal(t, "vol_3d_ann", v.Name())

	// Price doubles every day: log returns are constant, so sample std is 0.
	cols := v.Compute(barsFromCloses(1, 2, 4, 8, 16, 32))
	vals := cols[0].Values

	// First return appears at index 1; the window fills at index 3.
	for i := 0; i < 3; i++ {
		assert.False(t, vals[i].Valid, "index %d", i)
	}
	for i := 3; i < 6; i++ {
		require.True(t, vals[i].Valid, "index %d", i)
		assert.InDelta(t, 0.0, vals[i].V, 1e-12)
	}
}

func TestVolatilityKnownValue(t *testing.T) {
	t.Parallel()
	v := NewVolatility(2, 252)
	cols := v.Compute(barsFromCloses(100, 110, 100))
	vals := cols[0].Values

	r1 := math.Log(110.0 / 100.0)
	r2 := math.Log(100.0 / 110.0)
	m := (r1 + r2) / 2
	std := math.Sqrt(((r1-m)*(r1-m) + (r2-m)*(r2-m)) / 1.0)

	require.True(t, vals[2].Valid)
	assert.InDelta(t, std*math.Sqrt(252), vals[2].V, 1e-12)
}

func TestVolOfVolConstantGrowth(t *testing.T) {
	t.Parallel()
	v := NewVolOfVol(2, 2, 252)
	assert.Equal(t, "volvol_2d_from_vol2d", v.Name())

	cols := v.Compute(barsFromCloses(1, 2, 4, 8, 16))
	vals := cols[0].Values

	for i := 0; i < 3; i++ {
		assert.False(t, vals[i].Valid, "index %d", i)
	}
	require.True(t, vals[3].Valid)
	assert.InDelta(t, 0.0, vals[3].V, 1e-12)
}

func TestDollarVolumeCompute(t *testing.T) {
	t.Parallel()
	d := NewDollarVolume(2)
	assert.Equal(t, "dv_2d_log", d.Name())

	bars := barsFromCloses(2, 2, 2)
	for i := range bars {
		bars[i].AdjVolume = 50
	}
	cols := d.Compute(bars)
	vals := cols[0].Values

	assert.False(t, vals[0].Valid)
	for i := 1; i < 3; i++ {
		require.True(t, vals[i].Valid, "index %d", i)
		assert.InDelta(t, math.Log(100.0), vals[i].V, 1e-12)
	}
}

func TestDollarVolumeZeroVolumeInvalid(t *testing.T) {
	t.Parallel()
	d := NewDollarVolume(2)
	bars := barsFromCloses(2, 2, 2)
	bars[1].AdjVolume = 0
	cols := d.Compute(bars)
	vals := cols[0].Values

	// The zero-volume day poisons every window containing it.
	assert.False(t, vals[1].Valid)
	assert.False(t, vals[2].Valid)
}

func TestJumpRiskCompute(t *testing.T) {
	t.Parallel()
	j := NewJumpRisk(2, 0.5, 10.0)
	assert.Equal(t, "jump_2d_max", j.Name())
	assert.Equal(t, "jump_2d_cnt", j.CountName())
	assert.Equal(t, "factor:jump:2:v1", j.StateKey())

	cols := j.Compute(barsFromCloses(10, 10.1, 20, 20.2))
	require.Len(t, cols, 2)
	maxVals := cols[0].Values
	cntVals := cols[1].Values

	gap := 20.0/10.1 - 1.0

	require.True(t, maxVals[1].Valid)
	assert.InDelta(t, 0.0, maxVals[1].V, 1e-12)
	require.True(t, maxVals[2].Valid)
	assert.InDelta(t, gap, maxVals[2].V, 1e-12)
	require.True(t, maxVals[3].Valid)
	assert.InDelta(t, gap, maxVals[3].V, 1e-12)

	assert.InDelta(t, 0.0, cntVals[1].V, 1e-12)
	assert.InDelta(t, 1.0, cntVals[2].V, 1e-12)
	assert.InDelta(t, 1.0, cntVals[3].V, 1e-12)
}

func TestJumpRiskRatioLimitDiscardsDataErrors(t *testing.T) {
	t.Parallel()
	j := NewJumpRisk(2, 0.5, 10.0)

	// A 50x move is beyond the ratio limit: treated as a data glitch, not a jump.
	cols := j.Compute(barsFromCloses(10, 500, 500))
	cntVals := cols[1].Values
	require.True(t, cntVals[2].Valid)
	assert.InDelta(t, 0.0, cntVals[2].V, 1e-12)
}

func TestMaxDrawdownCompute(t *testing.T) {
	t.Parallel()
	m := NewMaxDrawdown(3)
	assert.Equal(t, "mdd_3d", m.Name())

	cols := m.Compute(barsFromCloses(10, 12, 11, 9, 13))
	vals := cols[0].Values

	assert.False(t, vals[0].Valid)
	assert.False(t, vals[1].Valid)
	require.True(t, vals[2].Valid)
	assert.InDelta(t, 11.0/12.0-1.0, vals[2].V, 1e-12)
	require.True(t, vals[3].Valid)
	assert.InDelta(t, 9.0/12.0-1.0, vals[3].V, 1e-12)
	// Window [11, 9, 13]: the 11 -> 9 decline counts even though the window
	// closes at a new high.
	require.True(t, vals[4].Valid)
	assert.InDelta(t, 9.0/11.0-1.0, vals[4].V, 1e-12)
}

func TestMaxDrawdownSurvivesRecovery(t *testing.T) {
	t.Parallel()
	m := NewMaxDrawdown(3)

	// A full round trip still records the halving in between.
	cols := m.Compute(barsFromCloses(100, 50, 100))
	vals := cols[0].Values
	require.True(t, vals[2].Valid)
	assert.InDelta(t, -0.5, vals[2].V, 1e-12)

	// Monotonic rise: no decline anywhere in the window.
	cols = m.Compute(barsFromCloses(100, 101, 102))
	vals = cols[0].Values
	require.True(t, vals[2].Valid)
	assert.InDelta(t, 0.0, vals[2].V, 1e-12)
}

func TestRollSkipsWindowsWithInvalidInputs(t *testing.T) {
	t.Parallel()
	vals := []Scalar{
		{V: 1, Valid: true},
		{Valid: false},
		{V: 3, Valid: true},
		{V: 5, Valid: true},
	}
	out := roll(vals, 2, mean)
	assert.False(t, out[0].Valid)
	assert.False(t, out[1].Valid)
	assert.False(t, out[2].Valid)
	require.True(t, out[3].Valid)
	assert.InDelta(t, 4.0, out[3].V, 1e-12)
}
