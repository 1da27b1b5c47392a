package panel

import "fmt"

// ValidationError reports a panel that fails a structural invariant. It is
// fatal: the pipeline must not run on a panel that failed validation.
type ValidationError struct {
	Industry Industry
	Period   Period
	Reason   string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Industry != "" && e.Period != 0:
		return fmt.Sprintf("panel: invalid cell (%s, %d): %s", e.Industry, e.Period, e.Reason)
	case e.Period != 0:
		return fmt.Sprintf("panel: invalid period %d: %s", e.Period, e.Reason)
	default:
		return fmt.Sprintf("panel: %s", e.Reason)
	}
}
