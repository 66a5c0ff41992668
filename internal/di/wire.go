//go:build wireinject
// +build wireinject

package di

import (
	"RiskPulse/pkg/config"
	"RiskPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation in wire_gen.go.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Ingestion
		ProvideCache,
		ProvideFetcher,

		// Persistence
		ProvideLedger,
		ProvideObservationStore,
		ProvideReconciler,

		// Classification
		ProvideRulesets,
		ProvidePolicy,

		// Output
		ProvideRenderer,
		ProvideArchive,
		ProvidePublisher,

		// Pipeline and surfaces
		ProvideRunner,
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
