package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/taxdesk/caselaw-intelligence/internal/config"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/logging"
	appErrors "github.com/taxdesk/caselaw-intelligence/pkg/errors"
)

// Writer abstracts kafka.Writer for testing.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes JSON events.  The internal broker needs neither SASL nor
// TLS, so the transport stays plain.
type Producer struct {
	writer Writer
	logger logging.Logger
}

// NewProducer builds a producer from the kafka config section.
func NewProducer(cfg config.KafkaConfig, logger logging.Logger) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.ProducerRetries,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: time.Second,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
	}
	return &Producer{writer: w, logger: logger}
}

// NewProducerWithWriter injects a custom writer.  Used by tests.
func NewProducerWithWriter(w Writer, logger logging.Logger) *Producer {
	return &Producer{writer: w, logger: logger}
}

// PublishSyncRunCompleted emits one audit event for a finished sync run.
// The key is the category so per-category events stay ordered per partition.
func (p *Producer) PublishSyncRunCompleted(ctx context.Context, event SyncRunEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeSerialization, "failed to encode sync run event")
	}

	msg := kafka.Message{
		Topic: TopicSyncRunCompleted,
		Key:   []byte(event.Category),
		Value: payload,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeExternalService, "failed to publish sync run event")
	}

	p.logger.Debug("published sync run event",
		logging.String("topic", TopicSyncRunCompleted),
		logging.String("category", event.Category))
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
