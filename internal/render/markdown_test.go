package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"RiskPulse/internal/domain/models"
)

func result(series string, tier models.Tier, z float64) models.SeriesResult {
	return models.SeriesResult{
		SignalRecord: models.SignalRecord{
			Module:     "rates",
			RulesetID:  "v1",
			SeriesID:   series,
			DataDate:   models.NewDate(2026, 8, 22),
			Tier:       tier,
			Confidence: models.ConfidenceOK,
			ZShort:     models.Some(z),
			PctShort:   models.Some(97.5),
		},
		PrevSignal:  models.TierNone,
		DeltaSignal: models.DeltaSame,
	}
}

func TestRenderModuleOrdering(t *testing.T) {
	rows := []models.SeriesResult{
		result("quiet", models.TierNone, 0.2),
		result("hot", models.TierAlert, 3.4),
		result("warm-low", models.TierWatch, -1.1),
		result("warm-high", models.TierWatch, -2.6),
	}

	out := RenderModule("rates", time.Now(), rows)

	order := []string{"| hot |", "| warm-high |", "| warm-low |", "| quiet |"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(out, marker)
		if idx < 0 {
			t.Fatalf("report is missing row %q:\n%s", marker, out)
		}
		if idx < last {
			t.Fatalf("row %q out of order:\n%s", marker, out)
		}
		last = idx
	}
}

func TestRenderModuleCells(t *testing.T) {
	row := result("vix", models.TierWatch, 2.123)
	row.ZDelta = models.None()
	row.NearTags = []string{"NEAR:ret1%"}
	row.Reason = "EXTREME_Z z=2.12|pct=97.5"
	row.DeltaSignal = "NONE->WATCH"
	row.StreakWA = 3

	out := RenderModule("vol", time.Now(), []models.SeriesResult{row})

	for _, want := range []string{"2.12", "NA", "NONE->WATCH", "Near misses", "NEAR:ret1%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "\\|pct=97.5") {
		t.Fatalf("pipe in reason should be escaped:\n%s", out)
	}
}

func TestWriteModuleBackup(t *testing.T) {
	dir := t.TempDir()
	r := NewMarkdownRenderer(dir)

	rows := []models.SeriesResult{result("a", models.TierInfo, 1.0)}
	if _, err := r.WriteModule("rates", time.Now(), rows); err != nil {
		t.Fatalf("first write: %v", err)
	}
	path, err := r.WriteModule("rates", time.Now(), rows)
	if err != nil {
		t.Fatalf("second write: %v", err)
	}
	if filepath.Base(path) != "rates.md" {
		t.Fatalf("unexpected report path %s", path)
	}
	if _, err := os.Stat(filepath.Join(dir, "rates.md.bak")); err != nil {
		t.Fatalf("expected backup file: %v", err)
	}
}
