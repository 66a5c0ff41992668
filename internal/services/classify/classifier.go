package classify

import (
	"fmt"
	"math"
	"strings"

	"RiskPulse/internal/domain/models"
	"RiskPulse/internal/services/stats"
)

// Tags attached per satisfied rule clause.
const (
	TagExtremeZ    = "EXTREME_Z"
	TagLongExtreme = "LONG_EXTREME"
	TagJumpZ       = "JUMP_Z"
	TagJumpP       = "JUMP_P"
	TagJumpRet     = "JUMP_RET"
)

// Near-tag metric names. The renderer shows these verbatim.
const (
	NearZDelta = "NEAR:z_delta"
	NearPDelta = "NEAR:p_delta"
	NearRet1   = "NEAR:ret1%"
)

// Inputs is the full tuple classification depends on. The long window is
// diagnostic except for its percentile extreme bands; it never drives
// ordering or jump evaluation.
type Inputs struct {
	ZShort   models.Metric
	PctShort models.Metric
	PctLong  models.Metric
	ZDelta   models.Metric
	PDelta   models.Metric
	Ret1Pct  models.Metric
}

// Result is the classifier output before the data-quality gate.
type Result struct {
	Tier     models.Tier
	Tags     []string
	NearTags []string
	Reason   string
}

// Classify is a pure function of the inputs and the ruleset. NA inputs make
// their clause non-evaluable: the clause is skipped, never assumed to pass or
// fail.
func Classify(in Inputs, rs Ruleset) Result {
	var (
		tier    models.Tier
		tags    []string
		near    []string
		clauses []string

		extremeZFired bool
		longBandFired bool
		deepTailFired bool
	)

	raise := func(t models.Tier) { tier = tier.Max(t) }

	// Extreme level on the short-window z-score.
	if in.ZShort.Valid {
		az := math.Abs(in.ZShort.Value)
		switch {
		case ge(az, rs.ExtremeAlertZ, stats.EpsZ):
			extremeZFired = true
			raise(models.TierAlert)
			tags = append(tags, TagExtremeZ)
			clauses = append(clauses, fmt.Sprintf("%s |z_short|=%.2f>=%.2f(ALERT)", TagExtremeZ, az, rs.ExtremeAlertZ))
		case ge(az, rs.ExtremeWatchZ, stats.EpsZ):
			extremeZFired = true
			raise(models.TierWatch)
			tags = append(tags, TagExtremeZ)
			clauses = append(clauses, fmt.Sprintf("%s |z_short|=%.2f>=%.2f(WATCH)", TagExtremeZ, az, rs.ExtremeWatchZ))
		}
	}

	// Long-window percentile extremes. Deep tail outranks the plain band.
	if in.PctLong.Valid {
		p := in.PctLong.Value
		tail := math.Min(p, 100-p)
		switch {
		case rs.DeepTailBand > 0 && le(tail, rs.DeepTailBand, stats.EpsPct):
			deepTailFired = true
			raise(models.TierAlert)
			tags = append(tags, TagLongExtreme)
			clauses = append(clauses, fmt.Sprintf("%s pct_long=%.1f in deep tail %.1f(ALERT)", TagLongExtreme, p, rs.DeepTailBand))
		case le(tail, rs.LongExtremeBand, stats.EpsPct):
			longBandFired = true
			raise(models.ParseTier(rs.LongExtremeTier))
			tags = append(tags, TagLongExtreme)
			clauses = append(clauses, fmt.Sprintf("%s pct_long=%.1f in band %.1f(%s)", TagLongExtreme, p, rs.LongExtremeBand, rs.LongExtremeTier))
		}
	}

	// Jump clauses: each satisfied clause is tagged and audited; whether the
	// tier escalates depends on the ruleset's composition variant.
	type jumpClause struct {
		metric  models.Metric
		thr     float64
		eps     float64
		tag     string
		nearTag string
	}
	jumps := []jumpClause{
		{in.ZDelta, rs.JumpZ, stats.EpsZ, TagJumpZ, NearZDelta},
		{in.PDelta, rs.JumpP, stats.EpsPct, TagJumpP, NearPDelta},
		{in.Ret1Pct, rs.JumpRet, stats.EpsRet, TagJumpRet, NearRet1},
	}
	fired := 0
	for _, jc := range jumps {
		if !jc.metric.Valid {
			continue
		}
		mag := math.Abs(jc.metric.Value)
		if ge(mag, jc.thr, jc.eps) {
			fired++
			tags = append(tags, jc.tag)
			clauses = append(clauses, fmt.Sprintf("%s |Δ|=%.2f>=%.2f", jc.tag, mag, jc.thr))
			continue
		}
		// Within the tolerance band just below the threshold: annotate only.
		if rs.NearTolerance > 0 && ge(mag, jc.thr*(1-rs.NearTolerance), jc.eps) {
			near = append(near, jc.nearTag)
		}
	}
	jumpFired := false
	switch rs.JumpVariant {
	case JumpVote:
		jumpFired = fired >= rs.JumpVoteN
	default:
		jumpFired = fired >= 1
	}
	if jumpFired {
		raise(models.TierWatch)
	}

	// Long-run extremity alone is informational, not actionable: when only
	// the long band fired (no jump, no deep tail, short z below the
	// actionable bound) the tier is capped at INFO.
	if longBandFired && !deepTailFired && !jumpFired && !extremeZFired {
		shortActionable := in.ZShort.Valid && ge(math.Abs(in.ZShort.Value), rs.ActionableZ, stats.EpsZ)
		if !shortActionable {
			tier = tier.Min(models.TierInfo)
		}
	}

	return Result{
		Tier:     tier,
		Tags:     dedup(tags),
		NearTags: dedup(near),
		Reason:   strings.Join(clauses, "; "),
	}
}

// ge compares v >= thr with a unit-appropriate epsilon so an observation at
// the exact threshold classifies the same way every run.
func ge(v, thr, eps float64) bool { return v >= thr-eps }

// le compares v <= thr with the same epsilon discipline.
func le(v, thr, eps float64) bool { return v <= thr+eps }

func dedup(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
