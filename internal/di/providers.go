package di

import (
	"context"
	"fmt"
	"io"
	"time"

	"RiskPulse/internal/domain/models"
	domrepo "RiskPulse/internal/domain/repository"
	"RiskPulse/internal/handler/api"
	"RiskPulse/internal/render"
	internalrepo "RiskPulse/internal/repository"
	"RiskPulse/internal/service/feed"
	"RiskPulse/internal/services/classify"
	"RiskPulse/internal/services/history"
	"RiskPulse/internal/services/quality"
	"RiskPulse/internal/usecase"
	"RiskPulse/pkg/cache"
	pkgch "RiskPulse/pkg/clickhouse"
	"RiskPulse/pkg/config"
	xhttp "RiskPulse/pkg/http"
	pkgkafka "RiskPulse/pkg/kafka"
	applogger "RiskPulse/pkg/logger"
	"RiskPulse/pkg/metrics"
	"RiskPulse/pkg/server"
)

// ProvideLogger builds the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates the Prometheus recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideCache selects the payload cache backend.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	default:
		return cache.NewMemoryCache(cfg.Cache.TTL), nil
	}
}

// ProvideFetcher assembles the provider ingestion client.
func ProvideFetcher(cfg *config.Config, payloads cache.Service, log *applogger.Logger, m domrepo.Metrics) *feed.Fetcher {
	client := xhttp.NewClient(xhttp.WithTimeout(cfg.Fetch.Timeout))
	return feed.NewFetcher(client, payloads, cfg.Cache.TTL, log, m)
}

// ProvideLedger opens the file-backed ledger under the state directory.
func ProvideLedger(cfg *config.Config) (domrepo.LedgerStore, error) {
	return internalrepo.NewFileLedger(cfg.StateDir)
}

// ProvideObservationStore opens the observation snapshot store.
func ProvideObservationStore(cfg *config.Config) (domrepo.ObservationStore, error) {
	return internalrepo.NewFileObservations(cfg.StateDir)
}

// ProvideReconciler builds the ledger reconciler.
func ProvideReconciler(ledger domrepo.LedgerStore, log *applogger.Logger) *history.Reconciler {
	return history.New(ledger, log)
}

// ProvideRulesets loads the versioned ruleset bundle and checks the active
// ruleset exists before anything runs.
func ProvideRulesets(cfg *config.Config) (map[string]classify.Ruleset, error) {
	bundle, err := classify.LoadBundle(cfg.RulesetFile)
	if err != nil {
		return nil, err
	}
	if _, ok := bundle[cfg.ActiveRuleset]; !ok {
		return nil, fmt.Errorf("active ruleset %q not found in %s", cfg.ActiveRuleset, cfg.RulesetFile)
	}
	return bundle, nil
}

// ProvidePolicy maps freshness config onto the staleness gate.
func ProvidePolicy(cfg *config.Config) quality.Policy {
	return quality.Policy{
		MaxLagDays: cfg.Freshness.MaxLagDaysDefault,
		PerSeries:  cfg.Freshness.PerSeries,
		ClampTo:    models.ParseTier(cfg.Freshness.ClampTo),
	}
}

// ProvideRenderer builds the markdown report writer.
func ProvideRenderer(cfg *config.Config) *render.MarkdownRenderer {
	return render.NewMarkdownRenderer(cfg.ReportDir)
}

// ProvideArchive opens the optional ClickHouse archive; a nil archive means
// the sink is disabled.
func ProvideArchive(cfg *config.Config) (domrepo.Archive, *pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil, nil
	}
	client, err := pkgch.NewClient(pkgch.Config{
		Host:         cfg.ClickHouse.Host,
		Port:         cfg.ClickHouse.Port,
		Database:     cfg.ClickHouse.Database,
		User:         cfg.ClickHouse.User,
		Password:     cfg.ClickHouse.Password,
		DialTimeout:  cfg.ClickHouse.DialTimeout,
		ReadTimeout:  cfg.ClickHouse.ReadTimeout,
		WriteTimeout: cfg.ClickHouse.WriteTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.ArchiveSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return internalrepo.NewClickHouseArchive(client.DB(), cfg.ClickHouse.Database), client, nil
}

// ProvidePublisher opens the optional Kafka transition publisher.
func ProvidePublisher(cfg *config.Config) (domrepo.TransitionPublisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(pkgkafka.Config{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.Topic,
		RequiredAcks: cfg.Kafka.RequiredAcks,
		Compression:  cfg.Kafka.Compression,
	})
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaPublisher(producer), nil
}

// ProvideRunner assembles the evaluation pipeline.
func ProvideRunner(
	cfg *config.Config,
	fetcher *feed.Fetcher,
	obs domrepo.ObservationStore,
	reconciler *history.Reconciler,
	rulesets map[string]classify.Ruleset,
	policy quality.Policy,
	renderer *render.MarkdownRenderer,
	archive domrepo.Archive,
	publisher domrepo.TransitionPublisher,
	m domrepo.Metrics,
	log *applogger.Logger,
) *usecase.Runner {
	return usecase.NewRunner(usecase.RunnerParams{
		Config:     cfg,
		Fetcher:    fetcher,
		ObsStore:   obs,
		Reconciler: reconciler,
		Rulesets:   rulesets,
		Policy:     policy,
		Renderer:   renderer,
		Archive:    archive,
		Publisher:  publisher,
		Metrics:    m,
		Logger:     log,
	})
}

// ProvideHandler exposes the runner's latest results over HTTP.
func ProvideHandler(log *applogger.Logger, runner *usecase.Runner) *api.SignalsHandler {
	return api.NewSignalsHandler(log, runner)
}

// ProvideApp assembles the application and its shutdown order.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	runner *usecase.Runner,
	handler *api.SignalsHandler,
	publisher domrepo.TransitionPublisher,
	chClient *pkgch.Client,
	payloads cache.Service,
) *server.App {
	var closers []io.Closer
	if publisher != nil {
		closers = append(closers, publisher)
	}
	if chClient != nil {
		closers = append(closers, chClient)
	}
	if payloads != nil {
		closers = append(closers, payloads)
	}
	return server.New(cfg, log, runner, handler, closers...)
}
