package decomp

import "fmt"

// DataGapError reports a genuine mid-panel gap: an industry absent for a
// period while present both before and after the absence. The industry is
// excluded from the affected transition and the gap is surfaced as a warning
// on the ResultSet; it never silently disappears.
type DataGapError struct {
	Industry string
	Period   int
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("decomp: data gap for industry %s at period %d", e.Industry, e.Period)
}

// IdentityViolation reports a mismatch between the residual reallocation term
// and its direct-formula cross-check. It signals a weight or growth-rate
// computation defect, not a data problem, and is always fatal.
type IdentityViolation struct {
	From, To   int
	Residual   float64
	Direct     float64
	Difference float64
}

func (e *IdentityViolation) Error() string {
	return fmt.Sprintf("decomp: identity violation for transition %d->%d: residual %.12g vs direct %.12g (diff %.3g)",
		e.From, e.To, e.Residual, e.Direct, e.Difference)
}
