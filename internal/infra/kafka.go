// README: Kafka event publisher for itinerary and dialog-failure events.
package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
	"go.uber.org/zap"

	"flybot/internal/config"
)

const HeaderEventType = "event-type"

// EventPublisher writes JSON events keyed by aggregate ID so one aggregate's
// events stay ordered on a partition.
type EventPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewEventPublisher(cfg config.KafkaConfig, logger *zap.Logger) (*EventPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("topic cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	sugar := logger.Named("kafka").Sugar()
	return &EventPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  compress.Snappy,
			MaxAttempts:  3,
			BatchTimeout: 50 * time.Millisecond,
			ErrorLogger:  kafka.LoggerFunc(sugar.Errorf),
		},
		logger: logger,
	}, nil
}

// Publish marshals payload and writes it with the event type as a header.
func (p *EventPublisher) Publish(ctx context.Context, key, eventType string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(eventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event: %w", eventType, err)
	}
	p.logger.Debug("event published", zap.String("event", eventType), zap.String("key", key))
	return nil
}

func (p *EventPublisher) Close() error {
	return p.writer.Close()
}
