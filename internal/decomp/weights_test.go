package decomp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hec-growth-lab/tfp-cli/internal/panel"
)

func TestComputeWeights_Shares(t *testing.T) {
	// A: output 100, intermediates 40 -> VA 60. B: output 80, intermediates 40 -> VA 40.
	// Aggregate VA = 100, aggregate output = 180.
	p, err := panel.Load([]panel.Row{
		{Industry: "A", Period: 1961, Cell: cell(100, 25, 35, 40)},
		{Industry: "B", Period: 1961, Cell: cell(80, 15, 25, 40)},
		{Industry: "A", Period: 1962, Cell: cell(100, 25, 35, 40)},
		{Industry: "B", Period: 1962, Cell: cell(80, 15, 25, 40)},
	})
	require.NoError(t, err)

	ws, err := ComputeWeights(p, 1961)
	require.NoError(t, err)

	assert.InDelta(t, 0.6, ws.VAShare["A"], 1e-12)
	assert.InDelta(t, 0.4, ws.VAShare["B"], 1e-12)
	assert.InDelta(t, 1.0, ws.Domar["A"], 1e-12)  // 100/100
	assert.InDelta(t, 0.8, ws.Domar["B"], 1e-12)  // 80/100
	assert.InDelta(t, 1.8, ws.DomarSum, 1e-12)    // 180/100, > 1 with intermediates

	// Cost shares for A: 25/100, 35/100, 40/100.
	assert.InDelta(t, 0.25, ws.CostShares["A"].Capital, 1e-12)
	assert.InDelta(t, 0.35, ws.CostShares["A"].Labor, 1e-12)
	assert.InDelta(t, 0.40, ws.CostShares["A"].Intermediate, 1e-12)
}

func TestComputeWeights_VASharesSumToOne(t *testing.T) {
	p, err := panel.Load([]panel.Row{
		{Industry: "A", Period: 1961, Cell: cell(100, 25, 35, 40)},
		{Industry: "B", Period: 1961, Cell: cell(80, 15, 25, 40)},
		{Industry: "C", Period: 1961, Cell: cell(55, 10, 25, 20)},
		{Industry: "A", Period: 1962, Cell: cell(100, 25, 35, 40)},
		{Industry: "B", Period: 1962, Cell: cell(80, 15, 25, 40)},
		{Industry: "C", Period: 1962, Cell: cell(55, 10, 25, 20)},
	})
	require.NoError(t, err)

	for _, per := range p.Periods() {
		ws, err := ComputeWeights(p, per)
		require.NoError(t, err)
		var sum float64
		for _, s := range ws.VAShare {
			sum += s
		}
		assert.InDelta(t, 1.0, sum, 1e-6)
	}
}

func TestComputeWeights_ZeroValueAddedIndustry(t *testing.T) {
	// B's intermediates equal its output: zero VA, weight 0, no error.
	p, err := panel.Load([]panel.Row{
		{Industry: "A", Period: 1961, Cell: cell(100, 25, 35, 40)},
		{Industry: "B", Period: 1961, Cell: cell(80, 0, 0, 80)},
		{Industry: "A", Period: 1962, Cell: cell(100, 25, 35, 40)},
		{Industry: "B", Period: 1962, Cell: cell(80, 0, 0, 80)},
	})
	require.NoError(t, err)

	ws, err := ComputeWeights(p, 1961)
	require.NoError(t, err)
	assert.Zero(t, ws.VAShare["B"])
	assert.InDelta(t, 1.0, ws.VAShare["A"], 1e-12)
	// B still carries a Domar weight: 80/60.
	assert.InDelta(t, 80.0/60.0, ws.Domar["B"], 1e-12)
}

func TestComputeWeights_AbsentIndustryExcluded(t *testing.T) {
	// C only exists in 1962; the 1961 weight sums must not see it.
	p, err := panel.Load([]panel.Row{
		{Industry: "A", Period: 1961, Cell: cell(100, 25, 35, 40)},
		{Industry: "B", Period: 1961, Cell: cell(80, 15, 25, 40)},
		{Industry: "A", Period: 1962, Cell: cell(100, 25, 35, 40)},
		{Industry: "B", Period: 1962, Cell: cell(80, 15, 25, 40)},
		{Industry: "C", Period: 1962, Cell: cell(50, 10, 20, 20)},
	})
	require.NoError(t, err)

	ws, err := ComputeWeights(p, 1961)
	require.NoError(t, err)
	_, hasC := ws.VAShare["C"]
	assert.False(t, hasC)
	assert.InDelta(t, 0.6, ws.VAShare["A"], 1e-12)

	ws1962, err := ComputeWeights(p, 1962)
	require.NoError(t, err)
	// VA: A 60, B 40, C 30 -> aggregate 130.
	assert.InDelta(t, 60.0/130.0, ws1962.VAShare["A"], 1e-12)
	assert.InDelta(t, 30.0/130.0, ws1962.VAShare["C"], 1e-12)
}

func TestComputeWeights_ZeroCostIndustry(t *testing.T) {
	p, err := panel.Load([]panel.Row{
		{Industry: "A", Period: 1961, Cell: cell(100, 25, 35, 40)},
		{Industry: "B", Period: 1961, Cell: cell(0, 0, 0, 0)},
		{Industry: "A", Period: 1962, Cell: cell(100, 25, 35, 40)},
		{Industry: "B", Period: 1962, Cell: cell(0, 0, 0, 0)},
	})
	require.NoError(t, err)

	ws, err := ComputeWeights(p, 1961)
	require.NoError(t, err)
	assert.Equal(t, FactorShares{}, ws.CostShares["B"])
}
