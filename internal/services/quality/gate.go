// Package quality applies the staleness policy to classified signals. The
// gate runs strictly after classification and can only lower a tier.
package quality

import (
	"fmt"

	"RiskPulse/internal/domain/models"
)

// TagStaleData marks a record whose data lagged past the policy threshold.
const TagStaleData = "STALE_DATA"

// Policy holds per-series (or default) staleness thresholds in days of lag
// between a record's data date and the run date.
type Policy struct {
	// MaxLagDays is the default allowed lag. Zero disables the gate.
	MaxLagDays int
	// PerSeries overrides the default for named series ids (flow series
	// with weekly cadence need looser thresholds than daily indices).
	PerSeries map[string]int
	// ClampTo is the ceiling applied to stale records: TierInfo or TierNone.
	ClampTo models.Tier
}

// maxLagFor resolves the effective threshold for a series.
func (p Policy) maxLagFor(seriesID string) int {
	if v, ok := p.PerSeries[seriesID]; ok {
		return v
	}
	return p.MaxLagDays
}

// Apply clamps rec's tier when its data date lags runDate beyond the policy
// threshold, attaching a STALE_DATA tag carrying the measured lag. Confidence
// is marked DOWNGRADED. The tier is never raised.
func (p Policy) Apply(rec *models.SignalRecord, runDate models.Date) {
	maxLag := p.maxLagFor(rec.SeriesID)
	if maxLag <= 0 || rec.DataDate.IsZero() {
		return
	}
	lag := runDate.DaysSince(rec.DataDate)
	if lag <= maxLag {
		return
	}

	clamp := p.ClampTo
	if clamp > models.TierInfo {
		clamp = models.TierInfo
	}
	rec.Tier = rec.Tier.Min(clamp)
	rec.Confidence = models.ConfidenceDowngraded
	rec.Tags = append(rec.Tags, TagStaleData)

	note := fmt.Sprintf("%s lag=%dd>max %dd", TagStaleData, lag, maxLag)
	if rec.Reason == "" {
		rec.Reason = note
	} else {
		rec.Reason += "; " + note
	}
}
