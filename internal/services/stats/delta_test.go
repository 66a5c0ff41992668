package stats

import (
	"math"
	"testing"
	"time"

	"RiskPulse/internal/domain/models"
	"RiskPulse/internal/store"
)

func TestRet1Exact(t *testing.T) {
	got := ret1(models.Some(102), models.Some(100))
	if !got.Valid || got.Value != 2.0 {
		t.Fatalf("ret1 = %v, want 2.0", got)
	}
}

func TestRet1NegativePrevUsesAbs(t *testing.T) {
	got := ret1(models.Some(-98), models.Some(-100))
	if !got.Valid || math.Abs(got.Value-2.0) > 1e-12 {
		t.Fatalf("ret1 = %v, want 2.0", got)
	}
}

func TestRet1DegenerateDenominator(t *testing.T) {
	for _, prev := range []float64{0, 0.0005, -0.0009} {
		if got := ret1(models.Some(1), models.Some(prev)); got.Valid {
			t.Fatalf("prev=%v: expected NA, got %v", prev, got)
		}
	}
	// Just above the guard.
	if got := ret1(models.Some(0.002), models.Some(0.001)); !got.Valid {
		t.Fatalf("prev=0.001: expected valid return")
	}
}

func TestRet1NAEndpoints(t *testing.T) {
	if got := ret1(models.None(), models.Some(100)); got.Valid {
		t.Fatalf("NA today must yield NA")
	}
	if got := ret1(models.Some(100), models.None()); got.Valid {
		t.Fatalf("NA prev must yield NA")
	}
}

func TestDeltaIndependentAnchors(t *testing.T) {
	// 61 points so both today (index 60) and prev (index 59) carry a full
	// 60-point window.
	vals := make([]float64, 61)
	for i := 0; i < 60; i++ {
		vals[i] = 100
	}
	vals[60] = 102
	s := seriesOf(t, "spx", vals...)

	d := Delta(s, 60)
	if !d.Ret1Pct.Valid || d.Ret1Pct.Value != 2.0 {
		t.Fatalf("ret1 = %v, want 2.0", d.Ret1Pct)
	}
	if !d.ZDelta.Valid || d.ZDelta.Value <= 0 {
		t.Fatalf("z_delta = %v, want positive", d.ZDelta)
	}
	if !d.PDelta.Valid || math.Abs(d.PDelta.Value-(99.1666666667-50)) > 1e-6 {
		t.Fatalf("p_delta = %v", d.PDelta)
	}
}

func TestDeltaNAWhenPrevWindowShort(t *testing.T) {
	// Exactly 60 points: today's window is full, the prior anchor's is not.
	vals := make([]float64, 60)
	for i := range vals {
		vals[i] = float64(100 + i)
	}
	d := Delta(seriesOf(t, "spx", vals...), 60)
	if d.ZDelta.Valid || d.PDelta.Valid {
		t.Fatalf("expected NA deltas, got %+v", d)
	}
	if !d.Ret1Pct.Valid {
		t.Fatalf("ret1 depends only on raw values, should still compute")
	}
}

func TestDeltaTooFewPoints(t *testing.T) {
	st := store.New(0)
	st.Append(models.Observation{
		SeriesID: "spx",
		DataDate: models.NewDate(2026, time.January, 1),
		Value:    models.Some(100),
	})
	d := Delta(st.Series("spx"), 60)
	if d.ZDelta.Valid || d.PDelta.Valid || d.Ret1Pct.Valid {
		t.Fatalf("single point series must yield all-NA deltas: %+v", d)
	}
}
