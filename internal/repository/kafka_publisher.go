package repository

import (
	"context"
	"fmt"

	"RiskPulse/internal/domain/models"
	pkgkafka "RiskPulse/pkg/kafka"
)

// KafkaPublisher emits tier-transition events for downstream consumers
// (alerting bots, dashboards). Rows whose tier did not change are skipped:
// the bus carries transitions, not the full daily table.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
}

// NewKafkaPublisher wraps a configured producer.
func NewKafkaPublisher(producer *pkgkafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

// transitionEvent is the wire shape consumers depend on.
type transitionEvent struct {
	Module      string      `json:"module"`
	RulesetID   string      `json:"ruleset_id"`
	SeriesID    string      `json:"series_id"`
	DataDate    models.Date `json:"data_date"`
	PrevSignal  models.Tier `json:"prev_signal"`
	SignalTier  models.Tier `json:"signal_tier"`
	DeltaSignal string      `json:"delta_signal"`
	StreakWA    int         `json:"streak_wa"`
	Reason      string      `json:"reason,omitempty"`
}

func (p *KafkaPublisher) PublishTransitions(ctx context.Context, module string, results []models.SeriesResult) error {
	msgs := make([]pkgkafka.Message, 0, len(results))
	for _, r := range results {
		if r.DeltaSignal == models.DeltaSame {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{
			Key: r.SeriesID,
			Value: transitionEvent{
				Module:      module,
				RulesetID:   r.RulesetID,
				SeriesID:    r.SeriesID,
				DataDate:    r.DataDate,
				PrevSignal:  r.PrevSignal,
				SignalTier:  r.Tier,
				DeltaSignal: r.DeltaSignal,
				StreakWA:    r.StreakWA,
				Reason:      r.Reason,
			},
		})
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := p.producer.PublishBatch(ctx, msgs); err != nil {
		return fmt.Errorf("publish transitions: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
