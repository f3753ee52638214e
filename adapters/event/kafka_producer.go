package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/khoahotran/fittrack/internal/config"
	"github.com/khoahotran/fittrack/internal/domain/onboarding"
	"github.com/khoahotran/fittrack/pkg/logger"
)

const TopicOnboardingEvents = "onboarding.events"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducerClient struct {
	OnboardingEventsWriter messageWriter
	logger                 logger.Logger
}

func NewKafkaProducerClient(cfg config.Config, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	topic := cfg.Kafka.Topic
	if topic == "" {
		topic = TopicOnboardingEvents
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}

	log.Info("Initialize Kafka Producer successfully.")

	return &KafkaProducerClient{OnboardingEventsWriter: writer, logger: log}, nil
}

// PublishOnboardingCompleted keys messages by user id so one user's events stay ordered.
func (c *KafkaProducerClient) PublishOnboardingCompleted(ctx context.Context, evt onboarding.CompletedEvent) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal onboarding event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(evt.UserID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.EventType)},
		},
	}
	if err := c.OnboardingEventsWriter.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write onboarding event: %w", err)
	}
	return nil
}

func (c *KafkaProducerClient) Close() {
	if c.OnboardingEventsWriter != nil {
		if err := c.OnboardingEventsWriter.Close(); err != nil {
			c.logger.Error("Failed to close Kafka producer", err)
			return
		}
	}
	c.logger.Info("Closed Kafka Producer")
}

// DecodeOnboardingEvent parses a message written by PublishOnboardingCompleted.
func DecodeOnboardingEvent(msg kafka.Message) (onboarding.CompletedEvent, error) {
	var evt onboarding.CompletedEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return evt, fmt.Errorf("unmarshal onboarding event: %w", err)
	}
	return evt, nil
}
