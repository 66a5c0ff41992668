package models

import "time"

// Confidence marks whether a record passed the data-quality gate untouched.
type Confidence string

const (
	ConfidenceOK         Confidence = "OK"
	ConfidenceDowngraded Confidence = "DOWNGRADED"
)

// DeltaSame is the DeltaSignal value for an unchanged tier.
const DeltaSame = "SAME"

// SignalRecord is the atomic unit appended to the history ledger: one
// classified signal for one series under one ruleset on one data date.
// At most one record exists per (module, ruleset_id, series_id, data_date);
// a same-day re-run overwrites in place.
type SignalRecord struct {
	Module    string `json:"module"`
	RulesetID string `json:"ruleset_id"`
	SeriesID  string `json:"series_id"`
	DataDate  Date   `json:"data_date"`

	Tier       Tier       `json:"signal_tier"`
	Tags       []string   `json:"tags,omitempty"`
	NearTags   []string   `json:"near_tags,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	Confidence Confidence `json:"confidence"`

	ZShort   Metric `json:"z_short"`
	PctShort Metric `json:"percentile_short"`
	PctLong  Metric `json:"percentile_long"`
	ZDelta   Metric `json:"z_delta"`
	PDelta   Metric `json:"p_delta"`
	Ret1Pct  Metric `json:"ret1_pct"`

	RunAt time.Time `json:"run_at"`
}

// SameKey reports whether two records share the full ledger key.
func (r SignalRecord) SameKey(o SignalRecord) bool {
	return r.Module == o.Module &&
		r.RulesetID == o.RulesetID &&
		r.SeriesID == o.SeriesID &&
		r.DataDate.Equal(o.DataDate)
}

// SeriesResult is a SignalRecord enriched with history context, surfaced
// verbatim to the report renderer and the read API.
type SeriesResult struct {
	SignalRecord

	PrevSignal  Tier   `json:"prev_signal"`
	DeltaSignal string `json:"delta_signal"`
	StreakWA    int    `json:"streak_wa"`
	StreakHist  int    `json:"streak_hist"`
}
