package decomp

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hec-growth-lab/tfp-cli/internal/panel"
)

// Options configures a pipeline run. Validation beyond what config.Validate
// already guarantees is repeated here so the package stands on its own.
type Options struct {
	Economy  string
	Method   Method
	BaseYear panel.Period
	Window   int

	// Parallelism bounds the number of period pairs decomposed
	// concurrently. Zero means GOMAXPROCS. Results are independent of the
	// setting: each transition depends only on its own two periods.
	Parallelism int
}

// Run executes the full pipeline: weights per period, growth records and a
// Decomposition per period pair, then smoothing and rebased level series.
// The returned ResultSet is complete and immutable.
func Run(ctx context.Context, p *panel.Panel, opts Options) (*ResultSet, error) {
	if !opts.Method.Valid() {
		return nil, eris.Errorf("pipeline: unknown index method %q", opts.Method)
	}
	if opts.Window < 1 {
		return nil, eris.Errorf("pipeline: rolling window %d must be >= 1", opts.Window)
	}

	periods := p.Periods()
	first, last := p.Span()
	if opts.BaseYear < first || opts.BaseYear > last {
		return nil, eris.Errorf("pipeline: base year %d outside panel range %d..%d", opts.BaseYear, first, last)
	}

	// Weights are cheap and every transition needs two of them; compute all
	// periods up front, sequentially.
	weights := make(map[panel.Period]*WeightSet, len(periods))
	for _, t := range periods {
		ws, err := ComputeWeights(p, t)
		if err != nil {
			return nil, eris.Wrap(err, fmt.Sprintf("pipeline: weights for period %d", t))
		}
		weights[t] = ws
	}
	baseWeights := weights[opts.BaseYear]

	type transition struct {
		decomp Decomposition
		fixed  float64
		gaps   []*DataGapError
	}
	transitions := make([]transition, len(periods)-1)

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for k := range transitions {
		t, t1 := periods[k], periods[k+1]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return eris.Wrap(err, "pipeline: cancelled")
			}
			records, gaps, err := ComputeGrowth(p, t, t1, weights[t], weights[t1], opts.Method)
			if err != nil {
				return eris.Wrap(err, fmt.Sprintf("pipeline: growth %d->%d", t, t1))
			}
			d, err := Decompose(records, weights[t], weights[t1], opts.Method)
			if err != nil {
				// IdentityViolation must surface unwrapped-matchable.
				return err
			}
			transitions[k] = transition{
				decomp: d,
				fixed:  WithinFixedBase(records, baseWeights),
				gaps:   gaps,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// An interior absence is flagged by the transition on each side of it;
	// deduplicate before recording.
	var allGaps []*DataGapError
	for _, tr := range transitions {
		allGaps = append(allGaps, tr.gaps...)
	}

	rs := &ResultSet{
		Economy:  opts.Economy,
		Method:   opts.Method,
		BaseYear: opts.BaseYear,
		Window:   opts.Window,
		Warnings: gapWarnings(allGaps),
	}

	aggGrowth := make([]float64, len(transitions))
	withinGrowth := make([]float64, len(transitions))
	for k, tr := range transitions {
		aggGrowth[k] = tr.decomp.Aggregate
		withinGrowth[k] = tr.decomp.Within
	}

	smoothed, err := SmoothTrailing(aggGrowth, opts.Window)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: smoothing")
	}

	// Level series are anchored at 1 in the first panel period, so the base
	// year may be any period including the very first.
	aggLevels, err := rebasedLevels(periods, aggGrowth, opts.BaseYear)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: aggregate levels")
	}
	withinLevels, err := rebasedLevels(periods, withinGrowth, opts.BaseYear)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: within levels")
	}

	rs.Rows = make([]ResultRow, len(transitions))
	for k, tr := range transitions {
		rs.Rows[k] = ResultRow{
			Period:            periods[k+1],
			Aggregate:         tr.decomp.Aggregate,
			Within:            tr.decomp.Within,
			Structural:        tr.decomp.Structural,
			Reallocation:      tr.decomp.Reallocation,
			WithinFixed:       tr.fixed,
			SmoothedAggregate: smoothed[k],
			AggregateLevel:    aggLevels[k+1],
			WithinLevel:       withinLevels[k+1],
		}
	}

	zap.L().Info("decomp: pipeline complete",
		zap.String("economy", opts.Economy),
		zap.String("method", string(opts.Method)),
		zap.Int("transitions", len(rs.Rows)),
		zap.Int("warnings", len(rs.Warnings)),
	)

	return rs, nil
}

// rebasedLevels builds the cumulated level series over all panel periods
// (anchor 1 at the first period) and rebases it to the base year.
func rebasedLevels(periods []panel.Period, growth []float64, base panel.Period) ([]float64, error) {
	levels := make([]float64, 0, len(periods))
	levels = append(levels, 1)
	levels = append(levels, CumulativeLevel(growth)...)
	return Rebase(periods, levels, base)
}

// gapWarnings renders deduplicated, sorted warning strings from gap errors.
func gapWarnings(gaps []*DataGapError) []string {
	seen := make(map[string]bool)
	var out []string
	for _, gap := range gaps {
		msg := gap.Error()
		if !seen[msg] {
			seen[msg] = true
			out = append(out, msg)
		}
	}
	sort.Strings(out)
	return out
}
