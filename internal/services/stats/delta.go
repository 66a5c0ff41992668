package stats

import (
	"math"

	"RiskPulse/internal/domain/models"
	"RiskPulse/internal/store"
)

// Delta computes change metrics between the latest observation and the most
// recent prior observation present in the series (not a calendar offset).
//
// Both endpoints get a full independent window evaluation anchored at their
// own date; deltas are never taken from rounded display values. Any NA
// endpoint makes its dependent delta NA.
func Delta(s *store.Series, w int) models.DeltaStat {
	d := models.DeltaStat{WindowLen: w}
	if s != nil {
		d.SeriesID = s.ID
	}
	if s == nil || s.Len() < 2 {
		return d
	}

	last := s.Len() - 1
	today := WindowAt(s, last, w)
	prev := WindowAt(s, last-1, w)

	if today.Z.Valid && prev.Z.Valid {
		d.ZDelta = models.Some(today.Z.Value - prev.Z.Value)
	}
	if today.Percentile.Valid && prev.Percentile.Valid {
		d.PDelta = models.Some(today.Percentile.Value - prev.Percentile.Value)
	}
	d.Ret1Pct = ret1(s.At(last).Value, s.At(last-1).Value)
	return d
}

// ret1 is the 1-period simple return in percent. A previous value within
// EpsDenominator of zero yields NA instead of a blown-up ratio.
func ret1(today, prev models.Metric) models.Metric {
	if !today.Valid || !prev.Valid {
		return models.None()
	}
	if math.Abs(prev.Value) < EpsDenominator {
		return models.None()
	}
	return models.Some((today.Value - prev.Value) / math.Abs(prev.Value) * 100)
}
