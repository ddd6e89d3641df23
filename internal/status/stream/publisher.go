// Package stream publishes appended ledger records to Kafka for downstream
// consumers. Publication is best effort: the ledger row is the source of truth.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"verigate/internal/platform/kafka/producer"
	"verigate/internal/status/models"
)

// Producer is the subset of the Kafka producer the publisher needs.
type Producer interface {
	ProduceAsync(msg *producer.Message) error
}

// LedgerEvent is the wire shape of a published ledger record.
type LedgerEvent struct {
	AuditID     string    `json:"audit_id"`
	UserID      string    `json:"user_id"`
	Status      string    `json:"status"`
	ReasonCodes []string  `json:"reason_codes"`
	ScoreBin    string    `json:"score_bin,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Publisher writes ledger events keyed by subject so a subject's history stays ordered.
type Publisher struct {
	producer Producer
	topic    string
	logger   *slog.Logger
}

// NewPublisher constructs a ledger publisher for topic.
func NewPublisher(p Producer, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{producer: p, topic: topic, logger: logger}
}

// Publish enqueues rec. It never blocks on the broker.
func (p *Publisher) Publish(ctx context.Context, rec *models.AuditRecord) error {
	if p == nil || p.producer == nil || rec == nil {
		return nil
	}
	payload, err := json.Marshal(LedgerEvent{
		AuditID:     rec.ID.String(),
		UserID:      rec.SubjectID.String(),
		Status:      rec.Status.String(),
		ReasonCodes: rec.ReasonCodes,
		ScoreBin:    rec.ScoreBin,
		CreatedAt:   rec.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal ledger event: %w", err)
	}
	err = p.producer.ProduceAsync(&producer.Message{
		Topic: p.topic,
		Key:   []byte(rec.SubjectID.String()),
		Value: payload,
		Headers: map[string]string{
			"event_type": "ledger.appended",
		},
	})
	if err != nil {
		if p.logger != nil {
			p.logger.WarnContext(ctx, "failed to enqueue ledger event",
				"audit_id", rec.ID.String(),
				"error", err,
			)
		}
		return fmt.Errorf("enqueue ledger event: %w", err)
	}
	return nil
}
