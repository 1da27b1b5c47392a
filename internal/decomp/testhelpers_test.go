package decomp

import (
	"github.com/hec-growth-lab/tfp-cli/internal/panel"
)

// cell builds a panel cell with unit indices. Factor costs must sum to the
// nominal output so the panel validates.
func cell(output, capComp, labComp, interExp float64) panel.Cell {
	return panel.Cell{
		NominalOutput:     output,
		RealOutput:        1.0,
		CapitalComp:       capComp,
		CapitalIndex:      1.0,
		LaborComp:         labComp,
		LaborIndex:        1.0,
		IntermediateExp:   interExp,
		IntermediateIndex: 1.0,
		OutputPrice:       1.0,
	}
}

// cellWithIndices builds a cell with explicit quantity indices.
func cellWithIndices(output, capComp, labComp, interExp, realOut, capIdx, labIdx, intIdx float64) panel.Cell {
	c := cell(output, capComp, labComp, interExp)
	c.RealOutput = realOut
	c.CapitalIndex = capIdx
	c.LaborIndex = labIdx
	c.IntermediateIndex = intIdx
	return c
}

// weightSet builds a WeightSet literal for engine-level tests.
func weightSet(t panel.Period, domar, vaShare map[panel.Industry]float64) *WeightSet {
	return &WeightSet{
		Period:     t,
		Domar:      domar,
		VAShare:    vaShare,
		CostShares: map[panel.Industry]FactorShares{},
	}
}

// record builds a GrowthRecord carrying only a TFP growth rate.
func record(i panel.Industry, t panel.Period, tfp float64) GrowthRecord {
	return GrowthRecord{Industry: i, From: t, To: t + 1, Output: tfp, TFP: tfp}
}
