// Package panel holds the immutable, validated industry-by-period panel
// consumed by the decomposition pipeline. A cell that was never observed is
// absent, never zero; downstream stages must treat absence explicitly.
package panel

import (
	"fmt"
	"sort"
)

// Industry is a stable industry identifier (a NAICS code or grouping such as
// "44-45").
type Industry string

// Period is an annual time point.
type Period int

// costShareTol is the relative tolerance for the factor-cost-share invariant:
// capital + labor + intermediate compensation must equal nominal gross output.
const costShareTol = 1e-6

// Cell holds the observed values for one (industry, period).
type Cell struct {
	NominalOutput     float64 `json:"nominal_output"`     // nominal gross output
	RealOutput        float64 `json:"real_output"`        // gross output quantity index
	CapitalComp       float64 `json:"capital_comp"`       // capital compensation
	CapitalIndex      float64 `json:"capital_index"`      // capital input quantity index
	LaborComp         float64 `json:"labor_comp"`         // labor compensation
	LaborIndex        float64 `json:"labor_index"`        // labor input quantity index
	IntermediateExp   float64 `json:"intermediate_exp"`   // intermediate input expenditure
	IntermediateIndex float64 `json:"intermediate_index"` // intermediate input quantity index
	OutputPrice       float64 `json:"output_price"`       // gross output price index
}

// ValueAdded returns nominal value added: gross output net of intermediates.
func (c Cell) ValueAdded() float64 {
	return c.NominalOutput - c.IntermediateExp
}

// TotalCost returns the industry's total factor cost.
func (c Cell) TotalCost() float64 {
	return c.CapitalComp + c.LaborComp + c.IntermediateExp
}

// Row is one input observation used to build a Panel.
type Row struct {
	Industry Industry `json:"industry"`
	Period   Period   `json:"period"`
	Cell     Cell     `json:"cell"`
}

type cellKey struct {
	ind Industry
	per Period
}

// Panel is the immutable industry-by-period grid. The grid is declared by the
// union of observed industries and the contiguous min..max period range; a
// (industry, period) pair without a cell is absent (entry, exit, or a gap).
type Panel struct {
	industries []Industry
	periods    []Period
	cells      map[cellKey]Cell
}

// Load validates rows and constructs a Panel. It never drops or imputes rows:
// any structural violation is a *ValidationError.
func Load(rows []Row) (*Panel, error) {
	if len(rows) == 0 {
		return nil, &ValidationError{Reason: "empty panel"}
	}

	cells := make(map[cellKey]Cell, len(rows))
	indSet := make(map[Industry]bool)
	minPer, maxPer := rows[0].Period, rows[0].Period

	for _, r := range rows {
		if r.Industry == "" {
			return nil, &ValidationError{Period: r.Period, Reason: "empty industry identifier"}
		}
		k := cellKey{r.Industry, r.Period}
		if _, dup := cells[k]; dup {
			return nil, &ValidationError{Industry: r.Industry, Period: r.Period, Reason: "duplicate cell"}
		}
		if err := validateCell(r.Industry, r.Period, r.Cell); err != nil {
			return nil, err
		}
		cells[k] = r.Cell
		indSet[r.Industry] = true
		if r.Period < minPer {
			minPer = r.Period
		}
		if r.Period > maxPer {
			maxPer = r.Period
		}
	}

	if minPer == maxPer {
		return nil, &ValidationError{Period: minPer, Reason: "panel spans a single period"}
	}

	industries := make([]Industry, 0, len(indSet))
	for i := range indSet {
		industries = append(industries, i)
	}
	sort.Slice(industries, func(a, b int) bool { return industries[a] < industries[b] })

	periods := make([]Period, 0, int(maxPer-minPer)+1)
	for t := minPer; t <= maxPer; t++ {
		periods = append(periods, t)
	}

	// Every period in the declared range must have at least one present
	// industry, otherwise the period sequence has a hole.
	for _, t := range periods {
		present := false
		for _, i := range industries {
			if _, ok := cells[cellKey{i, t}]; ok {
				present = true
				break
			}
		}
		if !present {
			return nil, &ValidationError{Period: t, Reason: "no industry observed in period"}
		}
	}

	return &Panel{industries: industries, periods: periods, cells: cells}, nil
}

// validateCell enforces per-cell invariants.
func validateCell(ind Industry, per Period, c Cell) error {
	fail := func(reason string) error {
		return &ValidationError{Industry: ind, Period: per, Reason: reason}
	}

	if c.NominalOutput < 0 || c.CapitalComp < 0 || c.LaborComp < 0 || c.IntermediateExp < 0 {
		return fail("negative nominal value")
	}
	// Quantity and price indices enter as log differences downstream.
	if c.RealOutput <= 0 || c.CapitalIndex <= 0 || c.LaborIndex <= 0 || c.IntermediateIndex <= 0 || c.OutputPrice <= 0 {
		return fail("non-positive quantity or price index")
	}
	// Cost shares must normalize: total factor cost equals gross output.
	if c.NominalOutput > 0 {
		rel := (c.TotalCost() - c.NominalOutput) / c.NominalOutput
		if rel > costShareTol || rel < -costShareTol {
			return fail(fmt.Sprintf("factor costs %.6f do not sum to gross output %.6f", c.TotalCost(), c.NominalOutput))
		}
	}
	return nil
}

// Industries returns the industries present in the given period, sorted.
func (p *Panel) Industries(t Period) []Industry {
	out := make([]Industry, 0, len(p.industries))
	for _, i := range p.industries {
		if _, ok := p.cells[cellKey{i, t}]; ok {
			out = append(out, i)
		}
	}
	return out
}

// AllIndustries returns every industry that appears anywhere in the panel.
func (p *Panel) AllIndustries() []Industry {
	out := make([]Industry, len(p.industries))
	copy(out, p.industries)
	return out
}

// Periods returns the contiguous period range, ascending.
func (p *Panel) Periods() []Period {
	out := make([]Period, len(p.periods))
	copy(out, p.periods)
	return out
}

// Cell returns the cell for (industry, period). ok is false when absent.
func (p *Panel) Cell(i Industry, t Period) (Cell, bool) {
	c, ok := p.cells[cellKey{i, t}]
	return c, ok
}

// Present reports whether the industry was observed in the period.
func (p *Panel) Present(i Industry, t Period) bool {
	_, ok := p.cells[cellKey{i, t}]
	return ok
}

// Span returns the first and last period of the panel.
func (p *Panel) Span() (first, last Period) {
	return p.periods[0], p.periods[len(p.periods)-1]
}
