package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"RiskPulse/internal/domain/models"
)

func ledgerRecord(day int, tier models.Tier) models.SignalRecord {
	return models.SignalRecord{
		Module:     "macro",
		RulesetID:  "v1",
		SeriesID:   "spx",
		DataDate:   models.NewDate(2026, time.April, 1).AddDays(day),
		Tier:       tier,
		Confidence: models.ConfidenceOK,
	}
}

func TestFileLedgerRoundTrip(t *testing.T) {
	l, err := NewFileLedger(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	want := []models.SignalRecord{ledgerRecord(0, models.TierWatch), ledgerRecord(1, models.TierAlert)}
	if err := l.Save(ctx, "macro", "v1", want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := l.Load(ctx, "macro", "v1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[1].Tier != models.TierAlert || !got[0].DataDate.Equal(want[0].DataDate) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestFileLedgerMissingPartitionIsEmpty(t *testing.T) {
	l, _ := NewFileLedger(t.TempDir())
	got, err := l.Load(context.Background(), "macro", "v1")
	if err != nil {
		t.Fatalf("missing partition must not error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %v", got)
	}
}

func TestFileLedgerCorruptPartition(t *testing.T) {
	dir := t.TempDir()
	l, _ := NewFileLedger(dir)
	path := l.path("macro", "v1")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := l.Load(context.Background(), "macro", "v1")
	if !errors.Is(err, ErrLedgerCorrupt) {
		t.Fatalf("err = %v, want ErrLedgerCorrupt", err)
	}
}

func TestFileLedgerSaveKeepsBackup(t *testing.T) {
	dir := t.TempDir()
	l, _ := NewFileLedger(dir)
	ctx := context.Background()

	if err := l.Save(ctx, "macro", "v1", []models.SignalRecord{ledgerRecord(0, models.TierInfo)}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := l.Save(ctx, "macro", "v1", []models.SignalRecord{ledgerRecord(0, models.TierWatch)}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	if _, err := os.Stat(l.path("macro", "v1") + ".bak"); err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	got, err := l.Load(ctx, "macro", "v1")
	if err != nil || len(got) != 1 || got[0].Tier != models.TierWatch {
		t.Fatalf("latest save not visible: %+v err=%v", got, err)
	}
}

func TestFileLedgerPartitionIsolation(t *testing.T) {
	dir := t.TempDir()
	l, _ := NewFileLedger(dir)
	ctx := context.Background()

	_ = l.Save(ctx, "macro", "v1", []models.SignalRecord{ledgerRecord(0, models.TierInfo)})
	_ = l.Save(ctx, "rates", "v1", nil)

	got, err := l.Load(ctx, "macro", "v1")
	if err != nil || len(got) != 1 {
		t.Fatalf("partition bleed: %+v err=%v", got, err)
	}
	entries, _ := os.ReadDir(dir)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if len(names) < 2 {
		t.Fatalf("expected separate partition files, got %v", names)
	}
	if filepath.Ext(names[0]) == "" {
		t.Fatalf("unexpected file %v", names)
	}
}

func TestFileObservationsRoundTripAndFailOpen(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFileObservations(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	series := map[string][]models.Observation{
		"spx": {{
			SeriesID: "spx",
			DataDate: models.NewDate(2026, time.April, 1),
			Value:    models.Some(100),
		}},
	}
	if err := f.Save(ctx, "macro", series); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := f.Load(ctx, "macro")
	if err != nil || len(got["spx"]) != 1 {
		t.Fatalf("load: %v %v", got, err)
	}

	// Corrupt snapshot: empty map plus error, never a failed run.
	if err := os.WriteFile(f.path("macro"), []byte("np"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	got, err = f.Load(ctx, "macro")
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("fail-open map expected, got %v", got)
	}
}
