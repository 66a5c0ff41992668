package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"RiskPulse/pkg/cache"
	"RiskPulse/pkg/config"
	xhttp "RiskPulse/pkg/http"
	"RiskPulse/pkg/logger"
)

type nopMetrics struct{ fetchErrors int }

func (m *nopMetrics) RecordRunDuration(string, float64) {}
func (m *nopMetrics) RecordSeriesEvaluated(string)      {}
func (m *nopMetrics) RecordSignal(string, string)       {}
func (m *nopMetrics) RecordLedgerFailure(string)        {}
func (m *nopMetrics) RecordFetchError(string)           { m.fetchErrors++ }

func newTestFetcher(t *testing.T, payloads cache.Service) (*Fetcher, *nopMetrics) {
	t.Helper()
	m := &nopMetrics{}
	f := NewFetcher(xhttp.NewClient(xhttp.WithTimeout(5*time.Second)), payloads, time.Hour, logger.Nop(), m)
	return f, m
}

func serve(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchSeriesCSV(t *testing.T) {
	srv := serve(t, "text/csv", "date,value\n2026-08-20,1.5\n2026-08-21,.\n2026-08-22,2.25\n")

	f, _ := newTestFetcher(t, nil)
	spec := config.SeriesSpec{
		ID: "t10y", URL: srv.URL, Format: "csv",
		DateField: "date", ValueField: "value", DateLayout: "2006-01-02",
	}

	obs, err := f.fetchSeries(context.Background(), spec)
	if err != nil {
		t.Fatalf("fetchSeries: %v", err)
	}
	if len(obs) != 3 {
		t.Fatalf("got %d observations, want 3", len(obs))
	}
	if !obs[0].Value.Valid || obs[0].Value.Value != 1.5 {
		t.Fatalf("first value = %+v, want 1.5", obs[0].Value)
	}
	if obs[1].Value.Valid {
		t.Fatalf("placeholder value should decode as NA, got %+v", obs[1].Value)
	}
	if got := obs[2].DataDate.String(); got != "2026-08-22" {
		t.Fatalf("third date = %s, want 2026-08-22", got)
	}
}

func TestFetchSeriesJSONArray(t *testing.T) {
	srv := serve(t, "application/json",
		`[{"d":"2026-08-21","v":3.1},{"d":"2026-08-22","v":"NA"},{"d":"garbage","v":1}]`)

	f, _ := newTestFetcher(t, nil)
	spec := config.SeriesSpec{
		ID: "vix", URL: srv.URL, Format: "json",
		DateField: "d", ValueField: "v", DateLayout: "2006-01-02",
	}

	obs, err := f.fetchSeries(context.Background(), spec)
	if err != nil {
		t.Fatalf("fetchSeries: %v", err)
	}
	if len(obs) != 2 {
		t.Fatalf("got %d observations, want 2 (bad date row dropped)", len(obs))
	}
	if obs[0].Value.Value != 3.1 {
		t.Fatalf("first value = %v, want 3.1", obs[0].Value.Value)
	}
	if obs[1].Value.Valid {
		t.Fatalf("NA value should stay invalid")
	}
}

func TestFetchSeriesJSONEnvelope(t *testing.T) {
	srv := serve(t, "application/json",
		`{"observations":[{"date":"2026-08-22","value":"4.25"}]}`)

	f, _ := newTestFetcher(t, nil)
	spec := config.SeriesSpec{
		ID: "dff", URL: srv.URL, Format: "json",
		DateField: "date", ValueField: "value", DateLayout: "2006-01-02",
	}

	obs, err := f.fetchSeries(context.Background(), spec)
	if err != nil {
		t.Fatalf("fetchSeries: %v", err)
	}
	if len(obs) != 1 || obs[0].Value.Value != 4.25 {
		t.Fatalf("unexpected observations: %+v", obs)
	}
}

func TestFetchModuleFailOpen(t *testing.T) {
	good := serve(t, "text/csv", "date,value\n2026-08-22,7\n")
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	t.Cleanup(bad.Close)

	f, m := newTestFetcher(t, nil)
	module := config.ModuleSpec{
		Name: "rates",
		Series: []config.SeriesSpec{
			{ID: "good", URL: good.URL, Format: "csv", DateField: "date", ValueField: "value", DateLayout: "2006-01-02"},
			{ID: "bad", URL: bad.URL, Format: "csv", DateField: "date", ValueField: "value", DateLayout: "2006-01-02"},
		},
	}

	obs := f.FetchModule(context.Background(), module)
	if len(obs) != 1 || obs[0].SeriesID != "good" {
		t.Fatalf("expected only the healthy series, got %+v", obs)
	}
	if m.fetchErrors != 1 {
		t.Fatalf("fetch error count = %d, want 1", m.fetchErrors)
	}
}

func TestFetchSeriesUsesPayloadCache(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("date,value\n2026-08-22,1\n"))
	}))
	t.Cleanup(srv.Close)

	f, _ := newTestFetcher(t, cache.NewMemoryCache(time.Hour))
	spec := config.SeriesSpec{
		ID: "cached", URL: srv.URL, Format: "csv",
		DateField: "date", ValueField: "value", DateLayout: "2006-01-02",
	}

	for i := 0; i < 3; i++ {
		if _, err := f.fetchSeries(context.Background(), spec); err != nil {
			t.Fatalf("fetchSeries #%d: %v", i, err)
		}
	}
	if hits != 1 {
		t.Fatalf("provider hit %d times, want 1 (cache should serve reruns)", hits)
	}
}
