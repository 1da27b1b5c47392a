package ingest

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/hec-growth-lab/tfp-cli/internal/panel"
)

// columns holds resolved header positions. A wide table binds every value
// column; a long table binds variable and value instead.
type columns struct {
	industry int
	period   int
	variable int
	value    int
	wide     map[string]int // canonical value-column name -> index
}

func (c columns) isLong() bool { return c.variable >= 0 }

// canonical value-column names, in panel.Cell field order.
var valueColumns = []string{
	"nominal_output",
	"real_output",
	"capital_comp",
	"capital_index",
	"labor_comp",
	"labor_index",
	"intermediate_exp",
	"intermediate_index",
	"output_price",
}

// headerAliases maps source header spellings to canonical column names.
var headerAliases = map[string]string{
	"ref_date": "period",
	"year":     "period",
	"north american industry classification system (naics)": "industry",
	"naics":    "industry",
	"multifactor productivity and related variables": "variable",
	"measure": "variable",
}

// variableAliases maps long-layout measure labels to canonical value columns.
var variableAliases = map[string]string{
	"gross output":             "nominal_output",
	"real gross output":        "real_output",
	"capital cost":             "capital_comp",
	"capital input":            "capital_index",
	"labour compensation":      "labor_comp",
	"labor compensation":       "labor_comp",
	"labour input":             "labor_index",
	"labor input":              "labor_index",
	"intermediate inputs":      "intermediate_exp",
	"real intermediate inputs": "intermediate_index",
	"gross output price index": "output_price",
}

// indexHeader resolves column positions from the header row.
func indexHeader(header []string) (columns, error) {
	cols := columns{industry: -1, period: -1, variable: -1, value: -1, wide: map[string]int{}}

	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if alias, ok := headerAliases[name]; ok {
			name = alias
		}
		switch name {
		case "industry":
			cols.industry = i
		case "period":
			cols.period = i
		case "variable":
			cols.variable = i
		case "value":
			cols.value = i
		default:
			for _, vc := range valueColumns {
				if name == vc {
					cols.wide[vc] = i
					break
				}
			}
		}
	}

	if cols.industry < 0 {
		return cols, eris.New("ingest: header has no industry column")
	}
	if cols.period < 0 {
		return cols, eris.New("ingest: header has no period column")
	}
	if cols.variable >= 0 {
		if cols.value < 0 {
			return cols, eris.New("ingest: long layout has no value column")
		}
		return cols, nil
	}
	for _, vc := range valueColumns {
		if _, ok := cols.wide[vc]; !ok {
			return cols, eris.Errorf("ingest: header missing value column %q", vc)
		}
	}
	return cols, nil
}

// parseWide reads one observation per record.
func parseWide(cols columns, records [][]string) ([]rawRow, error) {
	raws := make([]rawRow, 0, len(records))
	for n, rec := range records {
		label, period, err := identity(cols, rec, n)
		if err != nil {
			return nil, err
		}

		var vals [9]float64
		for i, vc := range valueColumns {
			idx := cols.wide[vc]
			if idx >= len(rec) {
				return nil, eris.Errorf("ingest: record %d is missing column %q", n+1, vc)
			}
			v, err := parseValue(rec[idx])
			if err != nil {
				return nil, eris.Wrapf(err, "ingest: record %d column %q", n+1, vc)
			}
			vals[i] = v
		}

		raws = append(raws, rawRow{label: label, period: period, cell: panel.Cell{
			NominalOutput:     vals[0],
			RealOutput:        vals[1],
			CapitalComp:       vals[2],
			CapitalIndex:      vals[3],
			LaborComp:         vals[4],
			LaborIndex:        vals[5],
			IntermediateExp:   vals[6],
			IntermediateIndex: vals[7],
			OutputPrice:       vals[8],
		}})
	}
	return raws, nil
}

// parseLong pivots (industry, period, variable, value) records into cells.
// Every (industry, period) must supply all nine variables.
func parseLong(cols columns, records [][]string) ([]rawRow, error) {
	type key struct {
		label  string
		period panel.Period
	}
	vals := make(map[key]map[string]float64)
	order := make([]key, 0)

	for n, rec := range records {
		label, period, err := identity(cols, rec, n)
		if err != nil {
			return nil, err
		}
		if cols.variable >= len(rec) || cols.value >= len(rec) {
			return nil, eris.Errorf("ingest: record %d is truncated", n+1)
		}

		variable := strings.ToLower(strings.TrimSpace(rec[cols.variable]))
		if alias, ok := variableAliases[variable]; ok {
			variable = alias
		}
		known := false
		for _, vc := range valueColumns {
			if variable == vc {
				known = true
				break
			}
		}
		if !known {
			// Source tables carry measures the decomposition does not use.
			continue
		}

		v, err := parseValue(rec[cols.value])
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: record %d value", n+1)
		}

		k := key{label, period}
		if _, seen := vals[k]; !seen {
			vals[k] = make(map[string]float64, len(valueColumns))
			order = append(order, k)
		}
		vals[k][variable] = v
	}

	raws := make([]rawRow, 0, len(order))
	for _, k := range order {
		cell := panel.Cell{}
		got := vals[k]
		for _, vc := range valueColumns {
			if _, ok := got[vc]; !ok {
				return nil, eris.Errorf("ingest: industry %q period %d is missing variable %q", k.label, k.period, vc)
			}
		}
		cell.NominalOutput = got["nominal_output"]
		cell.RealOutput = got["real_output"]
		cell.CapitalComp = got["capital_comp"]
		cell.CapitalIndex = got["capital_index"]
		cell.LaborComp = got["labor_comp"]
		cell.LaborIndex = got["labor_index"]
		cell.IntermediateExp = got["intermediate_exp"]
		cell.IntermediateIndex = got["intermediate_index"]
		cell.OutputPrice = got["output_price"]
		raws = append(raws, rawRow{label: k.label, period: k.period, cell: cell})
	}
	return raws, nil
}

// identity extracts the industry label and period from a record.
func identity(cols columns, rec []string, n int) (string, panel.Period, error) {
	if cols.industry >= len(rec) || cols.period >= len(rec) {
		return "", 0, eris.Errorf("ingest: record %d is truncated", n+1)
	}
	label := strings.TrimSpace(rec[cols.industry])
	if label == "" {
		return "", 0, eris.Errorf("ingest: record %d has an empty industry", n+1)
	}
	// StatCan REF_DATE values are "1961" or "1961-01-01".
	perStr := strings.TrimSpace(rec[cols.period])
	if len(perStr) > 4 {
		perStr = perStr[:4]
	}
	per, err := strconv.Atoi(perStr)
	if err != nil {
		return "", 0, eris.Wrapf(err, "ingest: record %d period %q", n+1, rec[cols.period])
	}
	return label, panel.Period(per), nil
}

// parseValue parses a numeric cell. BEA extracts mark suppressed values with
// "..."; those read as zero.
func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || s == "..." || s == ".." {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: parse number %q", s)
	}
	return v, nil
}
