// Package kafka publishes committed history entries to a Kafka topic for
// downstream reporting and compliance consumers. Delivery is best-effort:
// the request record, not the topic, is the source of truth for state.
package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"certitrack/internal/domain"
)

// Publisher produces history events keyed by request id so entries for one
// request land on one partition in order.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func New(brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{client: client, topic: topic, logger: logger}, nil
}

type eventPayload struct {
	ID        string         `json:"id"`
	RequestID string         `json:"request_id"`
	FromState *string        `json:"from_state,omitempty"`
	ToState   string         `json:"to_state"`
	ActorID   *string        `json:"actor_id,omitempty"`
	Role      string         `json:"role"`
	Note      string         `json:"note,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt string         `json:"created_at"`
}

// Publish produces the entry asynchronously. Produce failures are logged and
// dropped; the ledger append has already committed.
func (p *Publisher) Publish(ctx context.Context, entry domain.HistoryEntry) {
	payload := eventPayload{
		ID:        entry.ID.String(),
		RequestID: entry.RequestID.String(),
		ToState:   string(entry.ToState),
		Role:      string(entry.Role),
		Note:      entry.Note,
		Metadata:  entry.Metadata,
		CreatedAt: entry.CreatedAt.Format(time.RFC3339Nano),
	}
	if entry.FromState != nil {
		from := string(*entry.FromState)
		payload.FromState = &from
	}
	if entry.ActorID != nil {
		actor := entry.ActorID.String()
		payload.ActorID = &actor
	}

	value, err := json.Marshal(payload)
	if err != nil {
		p.logger.ErrorContext(ctx, "marshal history event", "error", err)
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(entry.RequestID.String()),
		Value: value,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("publish history event",
				"request_id", entry.RequestID,
				"to_state", entry.ToState,
				"error", err,
			)
		}
	})
}

// Close flushes pending records and releases the client.
func (p *Publisher) Close(ctx context.Context) error {
	if err := p.client.Flush(ctx); err != nil {
		return err
	}
	p.client.Close()
	return nil
}
