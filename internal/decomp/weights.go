package decomp

import (
	"github.com/rotisserie/eris"

	"github.com/hec-growth-lab/tfp-cli/internal/panel"
)

// FactorShares holds an industry's cost shares. They sum to 1 unless the
// industry had zero total cost that period, in which case all three are 0.
type FactorShares struct {
	Capital      float64 `json:"capital"`
	Labor        float64 `json:"labor"`
	Intermediate float64 `json:"intermediate"`
}

// WeightSet holds the per-industry weights for one period, recomputed fresh
// every period from the panel. Industries absent in the period do not appear.
type WeightSet struct {
	Period     panel.Period
	Domar      map[panel.Industry]float64
	VAShare    map[panel.Industry]float64
	CostShares map[panel.Industry]FactorShares

	// DomarSum is aggregate gross output over aggregate value added. It
	// exceeds 1 whenever intermediates are traded between industries.
	DomarSum float64
}

// ComputeWeights derives the WeightSet for one period. Industries absent in
// the period are excluded from every sum; an industry with zero value added
// gets a zero value-added share, never an error.
func ComputeWeights(p *panel.Panel, t panel.Period) (*WeightSet, error) {
	industries := p.Industries(t)
	if len(industries) == 0 {
		return nil, eris.Errorf("weights: no industries present in period %d", t)
	}

	var aggVA, aggOutput float64
	for _, i := range industries {
		c, _ := p.Cell(i, t)
		aggVA += c.ValueAdded()
		aggOutput += c.NominalOutput
	}
	if aggVA <= 0 {
		return nil, eris.Errorf("weights: aggregate value added %.6g is not positive in period %d", aggVA, t)
	}

	ws := &WeightSet{
		Period:     t,
		Domar:      make(map[panel.Industry]float64, len(industries)),
		VAShare:    make(map[panel.Industry]float64, len(industries)),
		CostShares: make(map[panel.Industry]FactorShares, len(industries)),
		DomarSum:   aggOutput / aggVA,
	}

	for _, i := range industries {
		c, _ := p.Cell(i, t)
		ws.Domar[i] = c.NominalOutput / aggVA
		ws.VAShare[i] = c.ValueAdded() / aggVA

		if total := c.TotalCost(); total > 0 {
			ws.CostShares[i] = FactorShares{
				Capital:      c.CapitalComp / total,
				Labor:        c.LaborComp / total,
				Intermediate: c.IntermediateExp / total,
			}
		} else {
			ws.CostShares[i] = FactorShares{}
		}
	}

	return ws, nil
}
