package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Shopify/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// Topics other platform services subscribe to.
const (
	TopicAttemptCompleted  = "assessment.attempt_completed"
	TopicModuleCompleted   = "progress.module_completed"
	TopicAchievementEarned = "achievement.earned"
)

// Event is the envelope every published message shares.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an envelope for the given type and payload.
func NewEvent(eventType string, data interface{}) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    "assessment-service",
		Version:   "1.0",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// AttemptCompletedEvent is emitted after every graded submission.
type AttemptCompletedEvent struct {
	UserID       uint    `json:"user_id"`
	AssessmentID uint    `json:"assessment_id"`
	ModuleID     uint    `json:"module_id"`
	AttemptID    uint    `json:"attempt_id"`
	Score        float64 `json:"score"`
	Passed       bool    `json:"passed"`
}

// ModuleCompletedEvent is emitted when a passing attempt marks a module
// completed.
type ModuleCompletedEvent struct {
	UserID       uint `json:"user_id"`
	ModuleID     uint `json:"module_id"`
	PointsEarned int  `json:"points_earned"`
}

// AchievementEarnedEvent is emitted when a badge is awarded.
type AchievementEarnedEvent struct {
	UserID          uint   `json:"user_id"`
	AchievementCode string `json:"achievement_code"`
	Points          int    `json:"points"`
}

// EventPublisher publishes platform events. Implementations must be safe for
// concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event Event) error
	Close() error
}

// KafkaEventPublisher publishes events to Kafka through Watermill.
type KafkaEventPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

// NewKafkaEventPublisher connects to the given brokers.
func NewKafkaEventPublisher(brokers []string, logger *slog.Logger) (*KafkaEventPublisher, error) {
	saramaConfig := kafka.DefaultSaramaSyncPublisherConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal

	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:               brokers,
			Marshaler:             kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: saramaConfig,
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return &KafkaEventPublisher{
		publisher: publisher,
		logger:    logger,
	}, nil
}

// Publish marshals the event and sends it to the topic.
func (p *KafkaEventPublisher) Publish(ctx context.Context, topic string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", event.Type)
	msg.Metadata.Set("source", event.Source)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", topic, err)
	}

	p.logger.InfoContext(ctx, "Event published",
		"topic", topic,
		"event_type", event.Type,
		"event_id", event.ID)

	return nil
}

// Close shuts down the underlying publisher.
func (p *KafkaEventPublisher) Close() error {
	return p.publisher.Close()
}

// MockEventPublisher records events in memory for tests.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
	logger *slog.Logger
}

// PublishedEvent pairs an event with the topic it was sent to.
type PublishedEvent struct {
	Topic string
	Event
}

func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{logger: logger}
}

func (m *MockEventPublisher) Publish(ctx context.Context, topic string, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, PublishedEvent{Topic: topic, Event: event})
	m.logger.InfoContext(ctx, "Mock event published", "topic", topic, "event_type", event.Type)
	return nil
}

func (m *MockEventPublisher) Close() error {
	return nil
}

// GetPublishedEvents returns a copy of everything published so far.
func (m *MockEventPublisher) GetPublishedEvents() []PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PublishedEvent, len(m.events))
	copy(out, m.events)
	return out
}

// ClearEvents resets the recorded events.
func (m *MockEventPublisher) ClearEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
