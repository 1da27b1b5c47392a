package decomp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hec-growth-lab/tfp-cli/internal/panel"
)

func TestCumulativeLevel(t *testing.T) {
	levels := CumulativeLevel([]float64{0.01, 0.02, -0.005})
	require.Len(t, levels, 3)
	assert.InDelta(t, 1.01, levels[0], 1e-12)
	assert.InDelta(t, 1.03, levels[1], 1e-12)
	assert.InDelta(t, 1.025, levels[2], 1e-12)
}

func TestRebase_BaseIsExactly100(t *testing.T) {
	periods := []panel.Period{1961, 1962, 1963}
	out, err := Rebase(periods, []float64{1.0, 1.03, 1.05}, 1962)
	require.NoError(t, err)
	assert.Equal(t, 100.0, out[1])
	assert.InDelta(t, 100.0/1.03, out[0], 1e-12)
	assert.InDelta(t, 105.0/1.03, out[2], 1e-12)
}

func TestRebase_Idempotent(t *testing.T) {
	periods := []panel.Period{1961, 1962, 1963}
	once, err := Rebase(periods, []float64{1.0, 1.03, 1.05}, 1961)
	require.NoError(t, err)
	twice, err := Rebase(periods, once, 1961)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
	assert.Equal(t, 100.0, twice[0])
}

func TestRebase_UnknownBase(t *testing.T) {
	_, err := Rebase([]panel.Period{1961, 1962}, []float64{1, 2}, 1990)
	assert.Error(t, err)
}

func TestRebase_ZeroBaseLevel(t *testing.T) {
	_, err := Rebase([]panel.Period{1961, 1962}, []float64{0, 2}, 1961)
	assert.Error(t, err)
}

func TestRebase_LengthMismatch(t *testing.T) {
	_, err := Rebase([]panel.Period{1961}, []float64{1, 2}, 1961)
	assert.Error(t, err)
}

func TestSmoothTrailing_WindowTwo(t *testing.T) {
	out, err := SmoothTrailing([]float64{0.02, 0.04, 0.06}, 2)
	require.NoError(t, err)
	require.Len(t, out, 3)

	// First observation of the window has no smoothed value.
	assert.False(t, out[0].Valid)
	assert.Zero(t, out[0].Value)

	require.True(t, out[1].Valid)
	assert.InDelta(t, 0.03, out[1].Value, 1e-12)
	require.True(t, out[2].Valid)
	assert.InDelta(t, 0.05, out[2].Value, 1e-12)
}

func TestSmoothTrailing_WindowOneIsIdentity(t *testing.T) {
	values := []float64{0.02, 0.04, 0.06}
	out, err := SmoothTrailing(values, 1)
	require.NoError(t, err)
	for k, v := range values {
		require.True(t, out[k].Valid)
		assert.Equal(t, v, out[k].Value)
	}
}

func TestSmoothTrailing_InvalidWindow(t *testing.T) {
	_, err := SmoothTrailing([]float64{0.02}, 0)
	assert.Error(t, err)
}
