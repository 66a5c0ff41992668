package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"RiskPulse/internal/domain/models"
	"RiskPulse/pkg/logger"
)

func rec(series string, day int, tier models.Tier) models.SignalRecord {
	return models.SignalRecord{
		Module:     "macro",
		RulesetID:  "v1",
		SeriesID:   series,
		DataDate:   models.NewDate(2026, time.February, 1).AddDays(day),
		Tier:       tier,
		Confidence: models.ConfidenceOK,
	}
}

func TestMergeEmptyHistoryFailsOpen(t *testing.T) {
	part, out := Merge(nil, rec("spx", 0, models.TierWatch))
	if out.PrevSignal != models.TierNone {
		t.Fatalf("prev = %v, want NONE", out.PrevSignal)
	}
	if out.DeltaSignal != "NONE→WATCH" {
		t.Fatalf("delta = %q", out.DeltaSignal)
	}
	if out.StreakWA != 1 || out.StreakHist != 0 {
		t.Fatalf("streaks = %d/%d, want 1/0", out.StreakWA, out.StreakHist)
	}
	if len(part) != 1 {
		t.Fatalf("partition len = %d", len(part))
	}
}

func TestMergeSameTierExtendsStreak(t *testing.T) {
	var part []models.SignalRecord
	var out Outcome
	for day := 0; day < 4; day++ {
		part, out = Merge(part, rec("spx", day, models.TierWatch))
	}
	if out.DeltaSignal != models.DeltaSame {
		t.Fatalf("delta = %q, want SAME", out.DeltaSignal)
	}
	if out.StreakWA != 4 || out.StreakHist != 3 {
		t.Fatalf("streaks = %d/%d, want 4/3", out.StreakWA, out.StreakHist)
	}
}

func TestMergeTierChangeResetsStreak(t *testing.T) {
	var part []models.SignalRecord
	part, _ = Merge(part, rec("spx", 0, models.TierWatch))
	part, _ = Merge(part, rec("spx", 1, models.TierWatch))
	_, out := Merge(part, rec("spx", 2, models.TierAlert))

	if out.PrevSignal != models.TierWatch {
		t.Fatalf("prev = %v", out.PrevSignal)
	}
	if out.DeltaSignal != "WATCH→ALERT" {
		t.Fatalf("delta = %q", out.DeltaSignal)
	}
	if out.StreakWA != 1 || out.StreakHist != 0 {
		t.Fatalf("streaks = %d/%d, want 1/0", out.StreakWA, out.StreakHist)
	}
}

func TestMergeSameDayRerunIdempotent(t *testing.T) {
	var part []models.SignalRecord
	part, _ = Merge(part, rec("spx", 0, models.TierWatch))
	part, first := Merge(part, rec("spx", 1, models.TierWatch))
	wantLen := len(part)

	// Re-run the same day: length and streak must not move, and the stored
	// record is fully replaced by the latest run.
	rerun := rec("spx", 1, models.TierWatch)
	rerun.Reason = "second run"
	part, again := Merge(part, rerun)

	if len(part) != wantLen {
		t.Fatalf("ledger grew on rerun: %d -> %d", wantLen, len(part))
	}
	if again.StreakWA != first.StreakWA {
		t.Fatalf("streak changed on rerun: %d -> %d", first.StreakWA, again.StreakWA)
	}
	var stored models.SignalRecord
	for _, r := range part {
		if r.SameKey(rerun) {
			stored = r
		}
	}
	if stored.Reason != "second run" {
		t.Fatalf("rerun must overwrite in place, reason = %q", stored.Reason)
	}
}

func TestMergeSameDayTierFlipUsesPriorBaseline(t *testing.T) {
	// Existing record at today's key must not act as its own baseline.
	var part []models.SignalRecord
	part, _ = Merge(part, rec("spx", 0, models.TierNone))
	part, _ = Merge(part, rec("spx", 1, models.TierAlert))

	_, out := Merge(part, rec("spx", 1, models.TierAlert))
	if out.PrevSignal != models.TierNone {
		t.Fatalf("rerun baseline = %v, want NONE (day-0 record)", out.PrevSignal)
	}
	if out.StreakWA != 1 {
		t.Fatalf("rerun streak = %d, want 1", out.StreakWA)
	}
}

func TestMergeIsolatesSeries(t *testing.T) {
	var part []models.SignalRecord
	part, _ = Merge(part, rec("vix", 0, models.TierAlert))
	part, out := Merge(part, rec("spx", 1, models.TierAlert))
	if out.StreakHist != 0 {
		t.Fatalf("streak leaked across series: %d", out.StreakHist)
	}
	if len(part) != 2 {
		t.Fatalf("partition len = %d", len(part))
	}
}

// fakeLedger returns a canned load error and captures saves.
type fakeLedger struct {
	loadErr error
	records []models.SignalRecord
	saved   []models.SignalRecord
}

func (f *fakeLedger) Load(_ context.Context, _, _ string) ([]models.SignalRecord, error) {
	return f.records, f.loadErr
}

func (f *fakeLedger) Save(_ context.Context, _, _ string, recs []models.SignalRecord) error {
	f.saved = recs
	return nil
}

func TestReconcileAllFailsOpenOnCorruptLedger(t *testing.T) {
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	ledger := &fakeLedger{loadErr: errors.New("unexpected end of JSON input")}
	r := New(ledger, log)

	outs, err := r.ReconcileAll(context.Background(), "macro", "v1", []models.SignalRecord{
		rec("spx", 0, models.TierWatch),
	})
	if err != nil {
		t.Fatalf("corrupt ledger must not fail the run: %v", err)
	}
	if len(outs) != 1 || outs[0].PrevSignal != models.TierNone {
		t.Fatalf("outcomes = %+v", outs)
	}
	if len(ledger.saved) != 1 {
		t.Fatalf("rebuilt partition not saved: %v", ledger.saved)
	}
}
