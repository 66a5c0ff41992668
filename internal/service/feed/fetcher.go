// Package feed pulls raw CSV/JSON series snapshots from configured providers
// and turns them into observations. Malformed values become NA observations;
// they are never coerced to zero.
package feed

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"RiskPulse/internal/domain/models"
	domrepo "RiskPulse/internal/domain/repository"
	"RiskPulse/pkg/cache"
	"RiskPulse/pkg/config"
	xhttp "RiskPulse/pkg/http"
	"RiskPulse/pkg/logger"
)

// Fetcher downloads and decodes provider payloads, with a payload cache in
// front so a same-day rerun does not re-hit providers.
type Fetcher struct {
	client   *xhttp.Client
	cache    cache.Service
	ttl      time.Duration
	throttle *hostThrottle
	log      *logger.Logger
	metrics  domrepo.Metrics
}

// NewFetcher builds a fetcher; cache may be nil to disable payload caching.
func NewFetcher(client *xhttp.Client, payloads cache.Service, ttl time.Duration, log *logger.Logger, metrics domrepo.Metrics) *Fetcher {
	return &Fetcher{
		client:   client,
		cache:    payloads,
		ttl:      ttl,
		throttle: newHostThrottle(),
		log:      log,
		metrics:  metrics,
	}
}

// FetchModule pulls every series of a module. A failing series is logged and
// skipped; the rest of the module still runs and the staleness gate will
// downgrade whatever went quiet.
func (f *Fetcher) FetchModule(ctx context.Context, module config.ModuleSpec) []models.Observation {
	var out []models.Observation
	for _, spec := range module.Series {
		obs, err := f.fetchSeries(ctx, spec)
		if err != nil {
			f.metrics.RecordFetchError(spec.ID)
			f.log.Warn("series fetch failed, skipping",
				logger.String("module", module.Name),
				logger.String("series", spec.ID),
				logger.Error(err))
			continue
		}
		f.log.Debug("series fetched",
			logger.String("series", spec.ID),
			logger.Int("observations", len(obs)))
		out = append(out, obs...)
	}
	return out
}

func (f *Fetcher) fetchSeries(ctx context.Context, spec config.SeriesSpec) ([]models.Observation, error) {
	raw, err := f.rawPayload(ctx, spec)
	if err != nil {
		return nil, err
	}

	var obs []models.Observation
	switch spec.Format {
	case "json":
		obs, err = parseJSON(raw, spec)
	default:
		obs, err = parseCSV(raw, spec)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s payload: %w", spec.Format, err)
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("payload decoded to zero observations")
	}
	return obs, nil
}

// rawPayload serves from cache when possible, fetching and filling on miss.
func (f *Fetcher) rawPayload(ctx context.Context, spec config.SeriesSpec) ([]byte, error) {
	key := "feed:" + spec.ID
	if f.cache != nil {
		if b, err := f.cache.Get(ctx, key); err == nil {
			return b, nil
		}
	}

	if u, err := url.Parse(spec.URL); err == nil {
		if err := f.throttle.wait(ctx, u.Host); err != nil {
			return nil, err
		}
	}

	b, err := f.client.FetchBytes(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    spec.URL,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", spec.URL, err)
	}

	if f.cache != nil {
		if err := f.cache.Set(ctx, key, b, f.ttl); err != nil {
			f.log.Warn("payload cache write failed", logger.String("series", spec.ID), logger.Error(err))
		}
	}
	return b, nil
}
