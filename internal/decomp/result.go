package decomp

import (
	"strconv"

	"github.com/hec-growth-lab/tfp-cli/internal/panel"
)

// ResultRow is one transition of the decomposed series, keyed by the ending
// period of the transition.
type ResultRow struct {
	Period panel.Period `json:"period"`

	Aggregate    float64 `json:"aggregate"`
	Within       float64 `json:"within"`
	Structural   float64 `json:"structural"`
	Reallocation float64 `json:"reallocation"`

	// WithinFixed holds value-added shares at the base year instead of
	// chaining them.
	WithinFixed float64 `json:"within_fixed"`

	// SmoothedAggregate is the trailing rolling mean of Aggregate; absent
	// for the first window−1 transitions.
	SmoothedAggregate Obs `json:"smoothed_aggregate"`

	// AggregateLevel and WithinLevel are cumulated level series rebased so
	// the base year equals 100. WithinLevel is the counterfactual without
	// the structural and reallocation channels.
	AggregateLevel float64 `json:"aggregate_level"`
	WithinLevel    float64 `json:"within_level"`
}

// ResultSet is the final, read-only output of a pipeline run.
type ResultSet struct {
	Economy  string       `json:"economy"`
	Method   Method       `json:"method"`
	BaseYear panel.Period `json:"base_year"`
	Window   int          `json:"window"`

	Rows []ResultRow `json:"rows"`

	// Warnings records non-fatal exclusions (data gaps) encountered while
	// building the series.
	Warnings []string `json:"warnings,omitempty"`
}

// tableHeader is the columnar form of a ResultSet, consumed by exporters.
var tableHeader = []string{
	"period",
	"aggregate",
	"within",
	"structural",
	"reallocation",
	"within_fixed",
	"aggregate_smoothed",
	"aggregate_level",
	"within_level",
}

// Table returns the result as an ordered columnar table. Absent smoothed
// values are empty strings, not zeros.
func (rs *ResultSet) Table() (header []string, rows [][]string) {
	header = append([]string(nil), tableHeader...)
	rows = make([][]string, 0, len(rs.Rows))
	for _, r := range rs.Rows {
		smoothed := ""
		if r.SmoothedAggregate.Valid {
			smoothed = formatFloat(r.SmoothedAggregate.Value)
		}
		rows = append(rows, []string{
			strconv.Itoa(int(r.Period)),
			formatFloat(r.Aggregate),
			formatFloat(r.Within),
			formatFloat(r.Structural),
			formatFloat(r.Reallocation),
			formatFloat(r.WithinFixed),
			smoothed,
			formatFloat(r.AggregateLevel),
			formatFloat(r.WithinLevel),
		})
	}
	return header, rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 12, 64)
}
