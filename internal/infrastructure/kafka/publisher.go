package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"pasmino/internal/config"
	"pasmino/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher emits stock events. Messages are keyed by product id so events
// for one product stay ordered within a partition.
type Publisher struct {
	writer        messageWriter
	lowStockTopic string
	movementTopic string
	logger        *zap.Logger
}

func NewPublisher(cfg config.KafkaConfig, logger *zap.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
	}
	return newPublisher(w, cfg, logger)
}

func newPublisher(w messageWriter, cfg config.KafkaConfig, logger *zap.Logger) *Publisher {
	return &Publisher{
		writer:        w,
		lowStockTopic: cfg.LowStockTopic,
		movementTopic: cfg.MovementTopic,
		logger:        logger,
	}
}

func (p *Publisher) PublishLowStock(ctx context.Context, event domain.LowStockEvent) error {
	return p.publish(ctx, p.lowStockTopic, event.ProductID, "stock.low", event)
}

func (p *Publisher) PublishMovement(ctx context.Context, event domain.StockMovementEvent) error {
	return p.publish(ctx, p.movementTopic, event.ProductID, "stock.movement", event)
}

func (p *Publisher) publish(ctx context.Context, topic string, productID int64, eventType string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", eventType, err)
	}

	msg := kafkago.Message{
		Topic: topic,
		Key:   []byte(strconv.FormatInt(productID, 10)),
		Value: value,
		Time:  time.Now().UTC(),
		Headers: []kafkago.Header{
			{Key: "event-type", Value: []byte(eventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.Int64("productId", productID),
			zap.Error(err),
		)
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}

	p.logger.Debug("event published", zap.String("topic", topic), zap.Int64("productId", productID))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
