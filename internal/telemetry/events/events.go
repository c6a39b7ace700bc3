// Package events publishes pipeline lifecycle events to Kafka for
// downstream analytics consumers. Grounded on the teacher's pkg/kafka
// Producer (pkg/kafka/producer.go), trimmed to the producer-only half
// the batch pipeline needs (no consumer: nothing in this module reads
// events back).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/config"
)

// Kind enumerates the pipeline lifecycle events this module emits.
type Kind string

const (
	ParseCompleted Kind = "parse.completed"
	MergeCompleted Kind = "merge.completed"
	StatsComputed  Kind = "stats.computed"
	QueryExecuted  Kind = "query.executed"
)

// Event is one lifecycle notification.
type Event struct {
	Kind   Kind   `json:"kind"`
	Stage  string `json:"stage"`
	Detail any    `json:"detail"`
}

// Publisher publishes JSON-encoded Events to a Kafka topic. A nil
// Publisher is a valid no-op: every caller in this module treats an
// unconfigured Kafka section as "don't publish", never as an error.
type Publisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewPublisher returns nil when cfg is not enabled, so callers can
// unconditionally hold a *Publisher and call Publish on it.
func NewPublisher(cfg config.KafkaConfig) *Publisher {
	if !cfg.Enabled() {
		return nil
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			BatchSize:    50,
			BatchTimeout: 10 * time.Millisecond,
			MaxAttempts:  3,
			RequiredAcks: kafka.RequireAll,
		},
		logger: slog.Default().With("component", "events-publisher", "topic", cfg.Topic),
	}
}

// Publish serialises and writes a single event. A nil Publisher is a
// no-op; pipeline lifecycle events are best-effort instrumentation, not
// part of the spec's correctness contract.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	if p == nil {
		return nil
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	msg := kafka.Message{Key: []byte(ev.Kind), Value: value}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish pipeline event", "kind", ev.Kind, "error", err)
		return fmt.Errorf("publishing event %s: %w", ev.Kind, err)
	}
	return nil
}

// Close flushes and closes the underlying writer. A nil Publisher is a
// no-op.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
