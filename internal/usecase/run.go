// Package usecase orchestrates one evaluation run: fetch, window stats,
// deltas, classification, staleness gate, history reconciliation, rendering
// and delivery.
package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"RiskPulse/internal/domain/models"
	domrepo "RiskPulse/internal/domain/repository"
	"RiskPulse/internal/render"
	"RiskPulse/internal/service/feed"
	"RiskPulse/internal/services/classify"
	"RiskPulse/internal/services/history"
	"RiskPulse/internal/services/quality"
	"RiskPulse/internal/services/stats"
	"RiskPulse/internal/store"
	"RiskPulse/pkg/config"
	"RiskPulse/pkg/logger"
)

// Runner executes evaluation runs module by module and keeps the latest
// results in memory for the read API.
type Runner struct {
	cfg        *config.Config
	fetcher    *feed.Fetcher
	obs        domrepo.ObservationStore
	reconciler *history.Reconciler
	rulesets   map[string]classify.Ruleset
	policy     quality.Policy
	renderer   *render.MarkdownRenderer
	archive    domrepo.Archive             // optional
	publisher  domrepo.TransitionPublisher // optional
	metrics    domrepo.Metrics
	log        *logger.Logger

	mu     sync.RWMutex
	latest map[string][]models.SeriesResult
}

// RunnerParams collects the runner's collaborators. Archive and Publisher may
// be nil when the corresponding sink is disabled.
type RunnerParams struct {
	Config     *config.Config
	Fetcher    *feed.Fetcher
	ObsStore   domrepo.ObservationStore
	Reconciler *history.Reconciler
	Rulesets   map[string]classify.Ruleset
	Policy     quality.Policy
	Renderer   *render.MarkdownRenderer
	Archive    domrepo.Archive
	Publisher  domrepo.TransitionPublisher
	Metrics    domrepo.Metrics
	Logger     *logger.Logger
}

func NewRunner(p RunnerParams) *Runner {
	return &Runner{
		cfg:        p.Config,
		fetcher:    p.Fetcher,
		obs:        p.ObsStore,
		reconciler: p.Reconciler,
		rulesets:   p.Rulesets,
		policy:     p.Policy,
		renderer:   p.Renderer,
		archive:    p.Archive,
		publisher:  p.Publisher,
		metrics:    p.Metrics,
		log:        p.Logger,
		latest:     make(map[string][]models.SeriesResult),
	}
}

// RunOnce evaluates every configured module against the active ruleset.
// Module failures are isolated: a broken module is logged and the next one
// still runs. The returned error is the first module error, if any.
func (r *Runner) RunOnce(ctx context.Context) error {
	rs, ok := r.rulesets[r.cfg.ActiveRuleset]
	if !ok {
		return fmt.Errorf("active ruleset %q not in bundle", r.cfg.ActiveRuleset)
	}

	runAt := time.Now().UTC()
	var firstErr error
	for _, module := range r.cfg.Modules {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.runModule(ctx, module, rs, runAt); err != nil {
			r.log.Error("module run failed",
				logger.String("module", module.Name),
				logger.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("module %s: %w", module.Name, err)
			}
		}
	}
	return firstErr
}

func (r *Runner) runModule(ctx context.Context, module config.ModuleSpec, rs classify.Ruleset, runAt time.Time) error {
	start := time.Now()
	defer func() {
		r.metrics.RecordRunDuration(module.Name, time.Since(start).Seconds())
	}()

	st := store.New(r.cfg.HistoryTail)

	persisted, err := r.obs.Load(ctx, module.Name)
	if err != nil {
		r.log.Warn("observation snapshot unreadable, starting cold",
			logger.String("module", module.Name),
			logger.Error(err))
	}
	for _, series := range persisted {
		st.Append(series...)
	}

	fetched := r.fetcher.FetchModule(ctx, module)
	st.Append(fetched...)

	if err := r.obs.Save(ctx, module.Name, st.Snapshot()); err != nil {
		return fmt.Errorf("persist observations: %w", err)
	}

	recs := make([]models.SignalRecord, 0, len(module.Series))
	for _, spec := range module.Series {
		s := st.Series(spec.ID)
		if s == nil || s.Len() == 0 {
			r.log.Warn("series has no observations, skipping",
				logger.String("module", module.Name),
				logger.String("series", spec.ID))
			continue
		}
		recs = append(recs, r.evaluateSeries(module.Name, rs, s, runAt))
		r.metrics.RecordSeriesEvaluated(module.Name)
	}

	outcomes, err := r.reconciler.ReconcileAll(ctx, module.Name, rs.ID, recs)
	if err != nil {
		r.metrics.RecordLedgerFailure(module.Name)
		return err
	}

	results := make([]models.SeriesResult, len(recs))
	for i := range recs {
		results[i] = models.SeriesResult{
			SignalRecord: recs[i],
			PrevSignal:   outcomes[i].PrevSignal,
			DeltaSignal:  outcomes[i].DeltaSignal,
			StreakWA:     outcomes[i].StreakWA,
			StreakHist:   outcomes[i].StreakHist,
		}
		r.metrics.RecordSignal(module.Name, recs[i].Tier.String())
	}

	r.publish(module.Name, results)

	if r.renderer != nil {
		if path, err := r.renderer.WriteModule(module.Name, runAt, results); err != nil {
			r.log.Error("report write failed", logger.String("module", module.Name), logger.Error(err))
		} else {
			r.log.Info("report written", logger.String("path", path))
		}
	}
	r.deliver(ctx, module.Name, fetched, results)
	return nil
}

// evaluateSeries computes both windows at the latest anchor, the deltas, the
// classification and the staleness clamp for one series.
func (r *Runner) evaluateSeries(module string, rs classify.Ruleset, s *store.Series, runAt time.Time) models.SignalRecord {
	short := stats.Latest(s, r.cfg.Windows.Short)
	long := stats.Latest(s, r.cfg.Windows.Long)
	delta := stats.Delta(s, r.cfg.Windows.Short)

	verdict := classify.Classify(classify.Inputs{
		ZShort:   short.Z,
		PctShort: short.Percentile,
		PctLong:  long.Percentile,
		ZDelta:   delta.ZDelta,
		PDelta:   delta.PDelta,
		Ret1Pct:  delta.Ret1Pct,
	}, rs)

	reason := verdict.Reason
	if reason == "" && short.Reason != "" {
		reason = short.Reason
	}

	last, _ := s.Last()
	rec := models.SignalRecord{
		Module:     module,
		RulesetID:  rs.ID,
		SeriesID:   last.SeriesID,
		DataDate:   last.DataDate,
		Tier:       verdict.Tier,
		Tags:       verdict.Tags,
		NearTags:   verdict.NearTags,
		Reason:     reason,
		Confidence: models.ConfidenceOK,
		ZShort:     short.Z,
		PctShort:   short.Percentile,
		PctLong:    long.Percentile,
		ZDelta:     delta.ZDelta,
		PDelta:     delta.PDelta,
		Ret1Pct:    delta.Ret1Pct,
		RunAt:      runAt,
	}
	r.policy.Apply(&rec, models.DateOf(runAt))
	return rec
}

// deliver forwards the run's output to the optional sinks. Sink failures are
// logged; they never fail the run.
func (r *Runner) deliver(ctx context.Context, module string, fetched []models.Observation, results []models.SeriesResult) {
	if r.archive != nil {
		if err := r.archive.ArchiveObservations(ctx, fetched); err != nil {
			r.log.Warn("observation archive failed", logger.String("module", module), logger.Error(err))
		}
		if err := r.archive.ArchiveResults(ctx, module, results); err != nil {
			r.log.Warn("result archive failed", logger.String("module", module), logger.Error(err))
		}
	}
	if r.publisher != nil {
		if err := r.publisher.PublishTransitions(ctx, module, results); err != nil {
			r.log.Warn("transition publish failed", logger.String("module", module), logger.Error(err))
		}
	}
}

func (r *Runner) publish(module string, results []models.SeriesResult) {
	r.mu.Lock()
	r.latest[module] = results
	r.mu.Unlock()
}

// Modules implements the read API's ResultsSource.
func (r *Runner) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.latest))
	for name := range r.latest {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LatestResults implements the read API's ResultsSource.
func (r *Runner) LatestResults(module string) ([]models.SeriesResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.latest[module]
	return res, ok
}
