package kafka

import (
	"context"
	"encoding/json"

	"storefront-backend/models"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type CheckoutEventProducer struct {
	writer *kafka.Writer
	topic  string
	logger *zap.Logger
}

func NewCheckoutEventProducer(brokers []string, topic string, logger *zap.Logger) *CheckoutEventProducer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	logger.Info("Kafka checkout producer initialized",
		zap.String("topic", topic), zap.Strings("brokers", brokers))
	return &CheckoutEventProducer{writer: w, topic: topic, logger: logger}
}

func (p *CheckoutEventProducer) SendCheckoutEvent(ctx context.Context, event models.CheckoutEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.SessionID),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to send checkout event",
			zap.String("session_id", event.SessionID), zap.Error(err))
		return err
	}

	p.logger.Info("Checkout event sent",
		zap.String("type", event.Type), zap.String("session_id", event.SessionID))
	return nil
}

func (p *CheckoutEventProducer) Close() {
	_ = p.writer.Close()
}
