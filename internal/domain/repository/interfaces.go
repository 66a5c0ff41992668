// Package repository declares the persistence and delivery ports the engine
// depends on. Implementations live in internal/repository.
package repository

import (
	"context"

	"RiskPulse/internal/domain/models"
)

// LedgerStore persists signal history partitioned by (module, ruleset_id).
// Each partition is owned by exactly one module run at a time; the store
// guarantees backup-then-replace writes so a crashed run never leaves a
// partially written partition.
type LedgerStore interface {
	// Load returns the partition's records. A missing partition is empty,
	// not an error; a corrupt partition returns ErrLedgerCorrupt wrapped.
	Load(ctx context.Context, module, rulesetID string) ([]models.SignalRecord, error)
	Save(ctx context.Context, module, rulesetID string, records []models.SignalRecord) error
}

// ObservationStore persists the bounded per-module observation tail between
// runs.
type ObservationStore interface {
	Load(ctx context.Context, module string) (map[string][]models.Observation, error)
	Save(ctx context.Context, module string, series map[string][]models.Observation) error
}

// Archive receives observations and emitted results for long-term offline
// analysis. The engine only writes; it never reads the archive back.
type Archive interface {
	ArchiveObservations(ctx context.Context, obs []models.Observation) error
	ArchiveResults(ctx context.Context, module string, results []models.SeriesResult) error
}

// TransitionPublisher delivers tier-transition events to downstream
// consumers.
type TransitionPublisher interface {
	PublishTransitions(ctx context.Context, module string, results []models.SeriesResult) error
	Close() error
}

// Metrics is the run-level instrumentation port.
type Metrics interface {
	RecordRunDuration(module string, seconds float64)
	RecordSeriesEvaluated(module string)
	RecordSignal(module, tier string)
	RecordLedgerFailure(module string)
	RecordFetchError(seriesID string)
}
