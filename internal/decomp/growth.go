package decomp

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/hec-growth-lab/tfp-cli/internal/panel"
)

// Method selects the index-number convention for growth accounting.
type Method string

const (
	// MethodLogDiff weights factor growth by period-t shares only.
	MethodLogDiff Method = "logdiff"
	// MethodTornqvist weights factor growth by the average of the period-t
	// and period-t+1 shares (Divisia convention).
	MethodTornqvist Method = "tornqvist"
)

// Valid reports whether m names a known index method.
func (m Method) Valid() bool {
	return m == MethodLogDiff || m == MethodTornqvist
}

// GrowthRecord holds one industry's growth rates over one period transition.
// TFP is the Solow/Hulten residual: output growth net of input growth.
type GrowthRecord struct {
	Industry panel.Industry `json:"industry"`
	From     panel.Period   `json:"from"`
	To       panel.Period   `json:"to"`
	Output   float64        `json:"output"` // log difference of the output quantity index
	Input    float64        `json:"input"`  // cost-share-weighted factor growth
	TFP      float64        `json:"tfp"`
}

// ComputeGrowth produces one GrowthRecord per industry present in both t and
// t+1. Industries entering or exiting at the transition are excluded, not
// zeroed. Mid-panel absences (present before and after the missing period)
// are returned as DataGapErrors so callers can record them; the affected
// industry is likewise excluded from the transition.
func ComputeGrowth(p *panel.Panel, t, t1 panel.Period, wt, wt1 *WeightSet, method Method) (map[panel.Industry]GrowthRecord, []*DataGapError, error) {
	if t1 != t+1 {
		return nil, nil, eris.Errorf("growth: periods %d and %d are not adjacent", t, t1)
	}
	if !method.Valid() {
		return nil, nil, eris.Errorf("growth: unknown index method %q", method)
	}

	records := make(map[panel.Industry]GrowthRecord)
	var gaps []*DataGapError

	for _, i := range p.AllIndustries() {
		presT, presT1 := p.Present(i, t), p.Present(i, t1)
		switch {
		case presT && presT1:
			rec := growthRecord(p, i, t, t1, wt, wt1, method)
			records[i] = rec
		case !presT && interiorAbsence(p, i, t):
			gaps = append(gaps, &DataGapError{Industry: string(i), Period: int(t)})
		case !presT1 && interiorAbsence(p, i, t1):
			gaps = append(gaps, &DataGapError{Industry: string(i), Period: int(t1)})
		}
	}

	return records, gaps, nil
}

// growthRecord computes the record for an industry present in both periods.
func growthRecord(p *panel.Panel, i panel.Industry, t, t1 panel.Period, wt, wt1 *WeightSet, method Method) GrowthRecord {
	ct, _ := p.Cell(i, t)
	ct1, _ := p.Cell(i, t1)

	gOut := math.Log(ct1.RealOutput) - math.Log(ct.RealOutput)
	gCap := math.Log(ct1.CapitalIndex) - math.Log(ct.CapitalIndex)
	gLab := math.Log(ct1.LaborIndex) - math.Log(ct.LaborIndex)
	gInt := math.Log(ct1.IntermediateIndex) - math.Log(ct.IntermediateIndex)

	shares := inputShares(wt.CostShares[i], wt1.CostShares[i], method)
	gIn := shares.Capital*gCap + shares.Labor*gLab + shares.Intermediate*gInt

	return GrowthRecord{
		Industry: i,
		From:     t,
		To:       t1,
		Output:   gOut,
		Input:    gIn,
		TFP:      gOut - gIn,
	}
}

// inputShares returns the cost shares used to weight factor growth.
func inputShares(st, st1 FactorShares, method Method) FactorShares {
	if method == MethodLogDiff {
		return st
	}
	return FactorShares{
		Capital:      (st.Capital + st1.Capital) / 2,
		Labor:        (st.Labor + st1.Labor) / 2,
		Intermediate: (st.Intermediate + st1.Intermediate) / 2,
	}
}

// interiorAbsence reports whether the industry's absence at period t lies
// strictly inside its presence span: observed at some earlier period and some
// later one. Absence runs touching the panel boundary are entry or exit.
func interiorAbsence(p *panel.Panel, i panel.Industry, t panel.Period) bool {
	first, last := p.Span()
	before, after := false, false
	for u := first; u < t; u++ {
		if p.Present(i, u) {
			before = true
			break
		}
	}
	for u := t + 1; u <= last; u++ {
		if p.Present(i, u) {
			after = true
			break
		}
	}
	return before && after
}
