package stats

import (
	"fmt"
	"math"
	"testing"
	"time"

	"RiskPulse/internal/domain/models"
	"RiskPulse/internal/store"
)

func seriesOf(t *testing.T, id string, values ...float64) *store.Series {
	t.Helper()
	st := store.New(0)
	base := models.NewDate(2026, time.January, 1)
	for i, v := range values {
		st.Append(models.Observation{
			SeriesID: id,
			DataDate: base.AddDays(i),
			Value:    models.Some(v),
		})
	}
	return st.Series(id)
}

func TestWindowConstantSeries(t *testing.T) {
	vals := make([]float64, 60)
	for i := range vals {
		vals[i] = 4.25
	}
	got := Latest(seriesOf(t, "dgs10", vals...), 60)

	if !got.Z.Valid || got.Z.Value != 0 {
		t.Fatalf("z = %v, want 0", got.Z)
	}
	if !got.Percentile.Valid || got.Percentile.Value != 50 {
		t.Fatalf("percentile = %v, want 50", got.Percentile)
	}
	if got.NUsed != 60 {
		t.Fatalf("n_used = %d, want 60", got.NUsed)
	}
}

func TestWindowInsufficientHistory(t *testing.T) {
	const w = 60
	for n := 0; n < w; n++ {
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = float64(100 + i)
		}
		st := store.New(0)
		base := models.NewDate(2026, time.January, 1)
		for i, v := range vals {
			st.Append(models.Observation{SeriesID: "spx", DataDate: base.AddDays(i), Value: models.Some(v)})
		}

		got := Latest(st.Series("spx"), w)
		if got.Z.Valid || got.Percentile.Valid {
			t.Fatalf("n=%d: expected NA stat, got %+v", n, got)
		}
		want := fmt.Sprintf("INSUFFICIENT_HISTORY:%d/%d", n, w)
		if got.Reason != want {
			t.Fatalf("n=%d: reason = %q, want %q", n, got.Reason, want)
		}
	}
}

func TestWindowExactlyWPointsUsesAll(t *testing.T) {
	vals := make([]float64, 60)
	for i := range vals {
		vals[i] = float64(i)
	}
	got := Latest(seriesOf(t, "spx", vals...), 60)
	if !got.Z.Valid {
		t.Fatalf("expected valid stat, reason=%q", got.Reason)
	}
	if got.NUsed != 60 {
		t.Fatalf("n_used = %d, want 60", got.NUsed)
	}
}

func TestWindowSpikeAtEnd(t *testing.T) {
	vals := make([]float64, 60)
	for i := 0; i < 59; i++ {
		vals[i] = 100
	}
	vals[59] = 130
	got := Latest(seriesOf(t, "spx", vals...), 60)

	if !got.Z.Valid || got.Z.Value < 5 {
		t.Fatalf("z = %v, want strongly positive", got.Z)
	}
	// Unique maximum: 59 below, the value itself the only tie.
	want := (59 + 0.5) / 60 * 100
	if !got.Percentile.Valid || math.Abs(got.Percentile.Value-want) > 1e-9 {
		t.Fatalf("percentile = %v, want %v", got.Percentile, want)
	}
}

func TestWindowNAPointMakesWindowInsufficient(t *testing.T) {
	st := store.New(0)
	base := models.NewDate(2026, time.January, 1)
	for i := 0; i < 60; i++ {
		v := models.Some(100)
		if i == 30 {
			v = models.None()
		}
		st.Append(models.Observation{SeriesID: "hyg", DataDate: base.AddDays(i), Value: v})
	}

	got := Latest(st.Series("hyg"), 60)
	if got.Z.Valid {
		t.Fatalf("expected NA, got z=%v", got.Z)
	}
	if got.Reason != "INSUFFICIENT_HISTORY:59/60" {
		t.Fatalf("reason = %q", got.Reason)
	}
}

func TestWindowAnchorExcludesFutureData(t *testing.T) {
	vals := make([]float64, 61)
	for i := 0; i < 60; i++ {
		vals[i] = 100
	}
	vals[60] = 500 // only visible to the final anchor
	s := seriesOf(t, "spx", vals...)

	prior := WindowAt(s, 59, 60)
	if !prior.Z.Valid || prior.Z.Value != 0 {
		t.Fatalf("anchor 59 z = %v, want 0 (future spike must be invisible)", prior.Z)
	}
}

func TestPercentileTieWeighting(t *testing.T) {
	// x=2 with window [1,2,2,3]: (1 + 0.5*2)/4*100 = 50.
	got := percentileOf(2, []float64{1, 2, 2, 3})
	if got != 50 {
		t.Fatalf("percentile = %v, want 50", got)
	}
}
