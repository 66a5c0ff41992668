// Package stats computes rolling-window context for a series: z-score and
// tie-aware percentile of the latest value against a trailing window, plus
// day-over-day deltas. Everything here is pure and recomputed every run.
package stats

import (
	"fmt"
	"math"

	"RiskPulse/internal/domain/models"
	"RiskPulse/internal/store"
)

// Comparison epsilons, one per unit so threshold decisions do not flap at
// rounding boundaries.
const (
	EpsZ   = 1e-9 // z-score units
	EpsPct = 1e-6 // percentile points
	EpsRet = 1e-6 // percent-return units

	// EpsDenominator guards 1-period returns against near-zero previous
	// values (rate series can legitimately cross zero).
	EpsDenominator = 1e-3
)

// WindowAt evaluates the trailing w observations ending at (and including)
// index anchor. The window never reaches past the anchor, so re-evaluating a
// historical date can never see future data.
//
// A window with fewer than w usable (non-NA) points yields NA with reason
// INSUFFICIENT_HISTORY:<n>/<w>; the window is never silently shortened.
func WindowAt(s *store.Series, anchor, w int) models.WindowStat {
	stat := models.WindowStat{WindowLen: w}
	if s != nil {
		stat.SeriesID = s.ID
	}
	if s == nil || w <= 0 || anchor < 0 || anchor >= s.Len() {
		stat.Reason = insufficientReason(0, w)
		return stat
	}

	start := anchor - w + 1
	if start < 0 {
		start = 0
	}
	window := make([]float64, 0, w)
	for i := start; i <= anchor; i++ {
		if v := s.At(i).Value; v.Valid {
			window = append(window, v.Value)
		}
	}
	stat.NUsed = len(window)

	latest := s.At(anchor).Value
	if len(window) < w || !latest.Valid {
		stat.Reason = insufficientReason(len(window), w)
		return stat
	}

	x := latest.Value
	mean, stdev := meanStdev(window)

	switch {
	case stdev > 0:
		stat.Z = models.Some((x - mean) / stdev)
	case math.Abs(x-mean) <= EpsZ:
		// Constant window: deviation and spread both vanish.
		stat.Z = models.Some(0)
	default:
		stat.Reason = "ZERO_VARIANCE"
	}

	stat.Percentile = models.Some(percentileOf(x, window))
	return stat
}

// Latest evaluates the window anchored at the most recent observation.
func Latest(s *store.Series, w int) models.WindowStat {
	if s == nil {
		return WindowAt(nil, 0, w)
	}
	return WindowAt(s, s.Len()-1, w)
}

// meanStdev returns mean and population standard deviation (ddof=0).
func meanStdev(vals []float64) (float64, float64) {
	n := float64(len(vals))
	var sum, sum2 float64
	for _, v := range vals {
		sum += v
		sum2 += v * v
	}
	mean := sum / n
	variance := sum2/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

// percentileOf is the tie-aware rank of x within window (which includes x):
// (count_less + 0.5*count_equal) / n * 100.
func percentileOf(x float64, window []float64) float64 {
	var less, equal float64
	for _, v := range window {
		switch {
		case v < x:
			less++
		case v == x:
			equal++
		}
	}
	return (less + 0.5*equal) / float64(len(window)) * 100
}

func insufficientReason(n, w int) string {
	return fmt.Sprintf("INSUFFICIENT_HISTORY:%d/%d", n, w)
}
