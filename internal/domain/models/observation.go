package models

// Observation is one dated point of one series, as delivered by the feed
// layer. Immutable once recorded for a given (series_id, data_date); a
// re-ingest of the same date replaces the whole observation (last write wins).
type Observation struct {
	SeriesID  string `json:"series_id"`
	DataDate  Date   `json:"data_date"`
	Value     Metric `json:"value"`
	SourceURL string `json:"source_url,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// WindowStat is the rolling-window context of a series' latest value. It is
// derived state, recomputed every run; only the ledger is ground truth.
type WindowStat struct {
	SeriesID   string `json:"series_id"`
	WindowLen  int    `json:"window_len"`
	Z          Metric `json:"z"`
	Percentile Metric `json:"percentile"`
	NUsed      int    `json:"n_used"`
	// Reason explains an invalid stat, e.g. INSUFFICIENT_HISTORY:12/60.
	Reason string `json:"reason,omitempty"`
}

// DeltaStat holds change metrics between the latest evaluation date and the
// most recent prior date present in the series.
type DeltaStat struct {
	SeriesID  string `json:"series_id"`
	WindowLen int    `json:"window_len"`
	ZDelta    Metric `json:"z_delta"`
	PDelta    Metric `json:"p_delta"`
	Ret1Pct   Metric `json:"ret1_pct"`
}
