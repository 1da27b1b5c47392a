package decomp

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/hec-growth-lab/tfp-cli/internal/panel"
)

// identityTol is the relative tolerance for the reallocation cross-check.
const identityTol = 1e-6

// Decomposition breaks one transition's aggregate TFP growth into the three
// channels. The accounting identity Aggregate = Within + Structural +
// Reallocation holds by construction and is cross-checked against a direct
// formula before the value leaves the engine.
type Decomposition struct {
	From panel.Period `json:"from"`
	To   panel.Period `json:"to"`

	Aggregate    float64 `json:"aggregate"`
	Within       float64 `json:"within"`
	Structural   float64 `json:"structural"`
	Reallocation float64 `json:"reallocation"`

	// Industries is the number of industries contributing to the transition
	// (present in both periods, no gap).
	Industries int `json:"industries"`
}

// Decompose aggregates per-industry TFP growth into the within, structural
// (Baumol), and reallocation channels for one period pair.
//
//	Aggregate  = Σ λ̄ᵢ·gᵢ   (Hulten: Domar-weighted industry TFP growth)
//	Within     = Σ s̄ᵢ·gᵢ   (value-added-share weighted)
//	Structural = Σ Δsᵢ·gᵢ  (share shifts toward fast/slow growers)
//
// with λ̄ and s̄ averaged across the two periods under MethodTornqvist and
// taken at t under MethodLogDiff; Δs is always s(t+1) − s(t). Reallocation is
// the residual enforcing the identity exactly, cross-checked by an
// independent single pass; a mismatch is an *IdentityViolation.
//
// Weights are renormalized over the transition's common industry set before
// use. Entering and exiting industries therefore contribute nothing, and
// removing one from the panel leaves every other industry's terms unchanged.
func Decompose(records map[panel.Industry]GrowthRecord, wt, wt1 *WeightSet, method Method) (Decomposition, error) {
	d := Decomposition{From: wt.Period, To: wt1.Period, Industries: len(records)}
	if len(records) == 0 {
		return d, nil
	}

	// Deterministic accumulation order regardless of map iteration.
	industries := make([]panel.Industry, 0, len(records))
	for i := range records {
		industries = append(industries, i)
	}
	sort.Slice(industries, func(a, b int) bool { return industries[a] < industries[b] })

	normT, normT1, err := shareNorms(industries, wt, wt1)
	if err != nil {
		return Decomposition{}, err
	}

	for _, i := range industries {
		g := records[i].TFP
		lambda := pairWeight(wt.Domar[i]/normT, wt1.Domar[i]/normT1, method)
		share := pairWeight(wt.VAShare[i]/normT, wt1.VAShare[i]/normT1, method)
		delta := wt1.VAShare[i]/normT1 - wt.VAShare[i]/normT

		d.Aggregate += lambda * g
		d.Within += share * g
		d.Structural += delta * g
	}

	d.Reallocation = d.Aggregate - d.Within - d.Structural

	// Cross-check: accumulate the reallocation term directly, industry by
	// industry, in a separate pass over the record set itself. Divergence
	// means the two passes disagreed about weights or membership.
	var direct float64
	for i, rec := range records {
		lambda := pairWeight(wt.Domar[i]/normT, wt1.Domar[i]/normT1, method)
		share := pairWeight(wt.VAShare[i]/normT, wt1.VAShare[i]/normT1, method)
		delta := wt1.VAShare[i]/normT1 - wt.VAShare[i]/normT
		direct += (lambda - share - delta) * rec.TFP
	}

	diff := math.Abs(d.Reallocation - direct)
	if diff > identityTol*math.Max(1, math.Abs(d.Aggregate)) {
		return Decomposition{}, &IdentityViolation{
			From:       int(wt.Period),
			To:         int(wt1.Period),
			Residual:   d.Reallocation,
			Direct:     direct,
			Difference: diff,
		}
	}

	return d, nil
}

// pairWeight combines a weight observed at t and t+1 per the index method.
func pairWeight(at, at1 float64, method Method) float64 {
	if method == MethodLogDiff {
		return at
	}
	return (at + at1) / 2
}

// shareNorms returns the summed value-added shares of the common industry set
// in each period, used to renormalize weights over that set.
func shareNorms(industries []panel.Industry, wt, wt1 *WeightSet) (normT, normT1 float64, err error) {
	for _, i := range industries {
		normT += wt.VAShare[i]
		normT1 += wt1.VAShare[i]
	}
	if normT <= 0 || normT1 <= 0 {
		return 0, 0, eris.Errorf("decompose %d->%d: common industry set carries no value added", wt.Period, wt1.Period)
	}
	return normT, normT1, nil
}

// WithinFixedBase computes the within component holding value-added shares at
// a fixed base period's WeightSet. Industries without a base-period share
// contribute nothing.
func WithinFixedBase(records map[panel.Industry]GrowthRecord, base *WeightSet) float64 {
	industries := make([]panel.Industry, 0, len(records))
	for i := range records {
		industries = append(industries, i)
	}
	sort.Slice(industries, func(a, b int) bool { return industries[a] < industries[b] })

	var within float64
	for _, i := range industries {
		within += base.VAShare[i] * records[i].TFP
	}
	return within
}
