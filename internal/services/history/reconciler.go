// Package history merges each run's classified signals into the append-only
// ledger and derives previous-signal and streak context from it.
package history

import (
	"context"
	"fmt"
	"sort"

	"RiskPulse/internal/domain/models"
	domrepo "RiskPulse/internal/domain/repository"
	"RiskPulse/pkg/logger"
)

// Outcome is the history context attached to one reconciled record.
type Outcome struct {
	PrevSignal  models.Tier
	DeltaSignal string
	StreakWA    int // consecutive runs at today's tier, counting today
	StreakHist  int // same, excluding today
}

// Merge applies today's record to the partition and returns both the updated
// partition and the derived history context. It is pure: callers own the
// load/save around it.
//
// A record already present at today's exact key is excluded from the baseline
// comparison and then overwritten in place, so a same-day re-run can neither
// inflate its own streak nor grow the ledger.
func Merge(partition []models.SignalRecord, rec models.SignalRecord) ([]models.SignalRecord, Outcome) {
	// Prior records for this series, today's key excluded, newest last.
	prior := make([]models.SignalRecord, 0, 8)
	for _, r := range partition {
		if r.SeriesID != rec.SeriesID {
			continue
		}
		if r.DataDate.Equal(rec.DataDate) || r.DataDate.After(rec.DataDate) {
			continue
		}
		prior = append(prior, r)
	}
	sort.Slice(prior, func(i, j int) bool {
		return prior[i].DataDate.Before(prior[j].DataDate)
	})

	out := Outcome{PrevSignal: models.TierNone, DeltaSignal: models.DeltaSame}
	if len(prior) > 0 {
		out.PrevSignal = prior[len(prior)-1].Tier
	}
	if out.PrevSignal != rec.Tier {
		out.DeltaSignal = fmt.Sprintf("%s→%s", out.PrevSignal, rec.Tier)
	}
	for i := len(prior) - 1; i >= 0; i-- {
		if prior[i].Tier != rec.Tier {
			break
		}
		out.StreakHist++
	}
	out.StreakWA = out.StreakHist + 1

	// Upsert today's record.
	replaced := false
	merged := make([]models.SignalRecord, 0, len(partition)+1)
	for _, r := range partition {
		if r.SameKey(rec) {
			merged = append(merged, rec)
			replaced = true
			continue
		}
		merged = append(merged, r)
	}
	if !replaced {
		merged = append(merged, rec)
	}
	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].DataDate.Equal(merged[j].DataDate) {
			return merged[i].DataDate.Before(merged[j].DataDate)
		}
		return merged[i].SeriesID < merged[j].SeriesID
	})
	return merged, out
}

// Reconciler wraps a ledger partition in the read-merge-write discipline.
type Reconciler struct {
	ledger domrepo.LedgerStore
	log    *logger.Logger
}

// New creates a reconciler over an explicit ledger handle.
func New(ledger domrepo.LedgerStore, log *logger.Logger) *Reconciler {
	return &Reconciler{ledger: ledger, log: log}
}

// ReconcileAll loads the (module, rulesetID) partition once, merges every
// record, and writes the partition back once.
//
// A missing or corrupt partition is treated as empty history: the failure is
// logged as an audit note and the run proceeds (fail-open). Only the final
// save can fail the call, since losing the write would silently reset
// streaks on the next run.
func (r *Reconciler) ReconcileAll(ctx context.Context, module, rulesetID string, recs []models.SignalRecord) ([]Outcome, error) {
	partition, err := r.ledger.Load(ctx, module, rulesetID)
	if err != nil {
		r.log.Warn("ledger unreadable, proceeding with empty history",
			logger.String("module", module),
			logger.String("ruleset", rulesetID),
			logger.Error(err))
		partition = nil
	}

	outcomes := make([]Outcome, 0, len(recs))
	for _, rec := range recs {
		var out Outcome
		partition, out = Merge(partition, rec)
		outcomes = append(outcomes, out)
	}

	if err := r.ledger.Save(ctx, module, rulesetID, partition); err != nil {
		return outcomes, fmt.Errorf("save ledger %s/%s: %w", module, rulesetID, err)
	}
	return outcomes, nil
}
