package producers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/startup-investment-ledger/internal/config"
)

// ErrDLQDisabled is returned by PublishToDLQ when no DLQ topic is configured
var ErrDLQDisabled = errors.New("DLQ producer not initialized")

const (
	headerDLQReason   = "dlq-reason"
	headerDLQFailedAt = "dlq-failed-at"
)

// DeadLetter is the envelope written to the DLQ topic. Payload carries the
// original bytes verbatim when they are valid JSON; anything else lands in
// RawPayload so an operator can still replay it.
type DeadLetter struct {
	Key        string          `json:"key"`
	Reason     string          `json:"reason"`
	FailedAt   time.Time       `json:"failed_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	RawPayload string          `json:"raw_payload,omitempty"`
}

func newDeadLetter(key string, value []byte, reason string, failedAt time.Time) DeadLetter {
	letter := DeadLetter{Key: key, Reason: reason, FailedAt: failedAt}
	if len(value) > 0 && json.Valid(value) {
		letter.Payload = json.RawMessage(value)
	} else {
		letter.RawPayload = string(value)
	}
	return letter
}

// DLQProducer parks reconcile requests and outbox rows the ledger worker
// could not handle.
type DLQProducer struct {
	logger   *slog.Logger
	writer   KafkaWriter
	dlqTopic string
	now      func() time.Time
}

// NewDLQProducer returns a nil producer when cfg.DLQTopic is empty.
func NewDLQProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*DLQProducer, error) {
	if cfg.DLQTopic == "" {
		logger.Info("Dead letter topic not configured, failed messages will only be logged")
		return nil, nil
	}

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for dead letter producer: %w", err)
	}
	defer conn.Close()

	if err := ensureTopic(conn, cfg.DLQTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure dead letter topic %s: %w", cfg.DLQTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.DLQTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.MaxWait,
	}

	return &DLQProducer{
		logger:   logger,
		writer:   writer,
		dlqTopic: cfg.DLQTopic,
		now:      time.Now,
	}, nil
}

// PublishToDLQ writes one DeadLetter keyed like the original message, so
// letters for the same startup or investment stay on one partition.
func (p *DLQProducer) PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error {
	if p == nil || p.writer == nil {
		return ErrDLQDisabled
	}

	now := time.Now
	if p.now != nil {
		now = p.now
	}
	failedAt := now().UTC()

	value, err := json.Marshal(newDeadLetter(key, originalMessageValue, reason, failedAt))
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: headerDLQReason, Value: []byte(reason)},
			{Key: headerDLQFailedAt, Value: []byte(failedAt.Format(time.RFC3339Nano))},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish dead letter", "topic", p.dlqTopic, "key", key, "error", err)
		return fmt.Errorf("failed to publish dead letter to %s: %w", p.dlqTopic, err)
	}

	p.logger.Warn("Message parked in dead letter topic", "topic", p.dlqTopic, "key", key, "reason", reason)
	return nil
}

func (p *DLQProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	p.logger.Info("Closing dead letter producer", "topic", p.dlqTopic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close dead letter writer for topic %s: %w", p.dlqTopic, err)
	}
	return nil
}
