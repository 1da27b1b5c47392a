package report

import (
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hec-growth-lab/tfp-cli/internal/decomp"
)

// WriteSummary renders the human-readable run summary. The printer localizes
// the transition count; years are pre-formatted so they do not pick up digit
// grouping.
func WriteSummary(w io.Writer, rs *decomp.ResultSet) error {
	p := message.NewPrinter(language.English)

	if len(rs.Rows) == 0 {
		_, err := p.Fprintf(w, "TFP decomposition: economy %s, method %s, no transitions\n", rs.Economy, rs.Method)
		return eris.Wrap(err, "report: write summary")
	}

	year := func(per decomp.ResultRow) string { return strconv.Itoa(int(per.Period)) }

	first, last := rs.Rows[0], rs.Rows[len(rs.Rows)-1]
	if _, err := p.Fprintf(w, "TFP decomposition: economy %s, method %s, %d transitions (%s-%s)\n",
		rs.Economy, rs.Method, len(rs.Rows), year(first), year(last)); err != nil {
		return eris.Wrap(err, "report: write summary")
	}

	var agg, within, structural, realloc float64
	for _, r := range rs.Rows {
		agg += r.Aggregate
		within += r.Within
		structural += r.Structural
		realloc += r.Reallocation
	}
	n := float64(len(rs.Rows))
	p.Fprintf(w, "  mean growth per transition: aggregate %.4f, within %.4f, structural %.4f, reallocation %.4f\n",
		agg/n, within/n, structural/n, realloc/n)

	p.Fprintf(w, "  level at %s (base %s = 100): aggregate %.1f, within-only %.1f\n",
		year(last), strconv.Itoa(int(rs.BaseYear)), last.AggregateLevel, last.WithinLevel)

	if len(rs.Warnings) > 0 {
		p.Fprintf(w, "  %d data gap warning(s):\n", len(rs.Warnings))
		for _, warn := range rs.Warnings {
			p.Fprintf(w, "    %s\n", warn)
		}
	}
	return nil
}
