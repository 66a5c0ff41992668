package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"RiskPulse/internal/domain/models"
)

// ClickHouseArchive appends observations and emitted results to ClickHouse
// for offline analysis. Write-only: the engine never reads it back, so an
// archive outage cannot affect signals.
type ClickHouseArchive struct {
	db       *sql.DB
	database string
}

// ArchiveSchema is the idempotent DDL the archive needs.
func ArchiveSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.observations (
			series_id String, data_date Date, value Nullable(Float64),
			source_url String, ingested_at DateTime
		) ENGINE=ReplacingMergeTree(ingested_at) ORDER BY (series_id, data_date)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.signals (
			module String, ruleset_id String, series_id String, data_date Date,
			signal_tier String, tags String, reason String, confidence String,
			z_short Nullable(Float64), pct_short Nullable(Float64), pct_long Nullable(Float64),
			z_delta Nullable(Float64), p_delta Nullable(Float64), ret1_pct Nullable(Float64),
			prev_signal String, delta_signal String, streak_wa Int32, streak_hist Int32,
			run_at DateTime
		) ENGINE=ReplacingMergeTree(run_at) ORDER BY (module, ruleset_id, series_id, data_date)`, database),
	}
}

// NewClickHouseArchive wraps an open pool.
func NewClickHouseArchive(db *sql.DB, database string) *ClickHouseArchive {
	return &ClickHouseArchive{db: db, database: database}
}

func (a *ClickHouseArchive) ArchiveObservations(ctx context.Context, obs []models.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO %s.observations (series_id, data_date, value, source_url, ingested_at) VALUES ", a.database)
	args := make([]interface{}, 0, len(obs)*5)
	rows := make([]string, 0, len(obs))
	now := time.Now().UTC()
	for _, o := range obs {
		rows = append(rows, "(?, ?, ?, ?, ?)")
		args = append(args, o.SeriesID, o.DataDate.Time(), nullable(o.Value), o.SourceURL, now)
	}
	if _, err := a.db.ExecContext(ctx, q+strings.Join(rows, ","), args...); err != nil {
		return fmt.Errorf("archive observations: %w", err)
	}
	return nil
}

func (a *ClickHouseArchive) ArchiveResults(ctx context.Context, module string, results []models.SeriesResult) error {
	if len(results) == 0 {
		return nil
	}
	q := fmt.Sprintf(`INSERT INTO %s.signals (module, ruleset_id, series_id, data_date,
		signal_tier, tags, reason, confidence,
		z_short, pct_short, pct_long, z_delta, p_delta, ret1_pct,
		prev_signal, delta_signal, streak_wa, streak_hist, run_at) VALUES `, a.database)
	args := make([]interface{}, 0, len(results)*19)
	rows := make([]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			module, r.RulesetID, r.SeriesID, r.DataDate.Time(),
			r.Tier.String(), strings.Join(r.Tags, ","), r.Reason, string(r.Confidence),
			nullable(r.ZShort), nullable(r.PctShort), nullable(r.PctLong),
			nullable(r.ZDelta), nullable(r.PDelta), nullable(r.Ret1Pct),
			r.PrevSignal.String(), r.DeltaSignal, int32(r.StreakWA), int32(r.StreakHist),
			r.RunAt.UTC(),
		)
	}
	if _, err := a.db.ExecContext(ctx, q+strings.Join(rows, ","), args...); err != nil {
		return fmt.Errorf("archive signals: %w", err)
	}
	return nil
}

func nullable(m models.Metric) interface{} {
	if !m.Valid {
		return nil
	}
	return m.Value
}
