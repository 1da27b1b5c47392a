package decomp

import (
	"github.com/rotisserie/eris"

	"github.com/hec-growth-lab/tfp-cli/internal/panel"
)

// Obs is an observation that may be absent. Absent values are reported as
// such, never as zero or as the raw value.
type Obs struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// CumulativeLevel turns a growth-rate series into a level series anchored at
// 1 before the first transition: level_t = 1 + Σ growth up to t.
func CumulativeLevel(growth []float64) []float64 {
	levels := make([]float64, len(growth))
	var cum float64
	for k, g := range growth {
		cum += g
		levels[k] = 1 + cum
	}
	return levels
}

// Rebase rescales a level series so the base period's value is exactly 100.
// Rebasing is multiplicative and idempotent: rebasing an already-rebased
// series to the same base is a no-op.
func Rebase(periods []panel.Period, levels []float64, base panel.Period) ([]float64, error) {
	if len(periods) != len(levels) {
		return nil, eris.Errorf("rebase: %d periods vs %d values", len(periods), len(levels))
	}

	baseIdx := -1
	for k, t := range periods {
		if t == base {
			baseIdx = k
			break
		}
	}
	if baseIdx < 0 {
		return nil, eris.Errorf("rebase: base period %d not in series %d..%d", base, periods[0], periods[len(periods)-1])
	}
	if levels[baseIdx] == 0 {
		return nil, eris.Errorf("rebase: zero level at base period %d", base)
	}

	out := make([]float64, len(levels))
	for k, v := range levels {
		out[k] = 100 * v / levels[baseIdx]
	}
	return out, nil
}

// SmoothTrailing computes a trailing rolling mean over the given window. The
// first window−1 observations have no smoothed value and come back absent.
func SmoothTrailing(values []float64, window int) ([]Obs, error) {
	if window < 1 {
		return nil, eris.Errorf("smooth: window %d must be >= 1", window)
	}

	out := make([]Obs, len(values))
	for k := range values {
		if k < window-1 {
			continue
		}
		var sum float64
		for j := k - window + 1; j <= k; j++ {
			sum += values[j]
		}
		out[k] = Obs{Value: sum / float64(window), Valid: true}
	}
	return out, nil
}
