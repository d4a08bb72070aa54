package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	// ExchangeStoryEvents - fanout exchange событий по историям.
	ExchangeStoryEvents = "story_events"
	// EventStoryAnalyzed - тип события после успешного анализа.
	EventStoryAnalyzed = "story.analyzed"
)

// StoryAnalyzedEvent публикуется после успешного анализа.
type StoryAnalyzedEvent struct {
	EventType     string     `json:"eventType"`
	StoryID       string     `json:"storyId"`
	UserID        *uuid.UUID `json:"userId,omitempty"`
	Title         string     `json:"title"`
	WordCount     int        `json:"wordCount"`
	IsHuman       bool       `json:"isHuman"`
	Confidence    int        `json:"confidence"`
	ParallelNames []string   `json:"parallelNames"`
	ForkIDs       []string   `json:"forkIds"`
	Model         string     `json:"model"`
	AnalyzedAt    time.Time  `json:"analyzedAt"`
}

// StoryEventPublisher публикует события по историям.
type StoryEventPublisher interface {
	PublishStoryAnalyzed(ctx context.Context, event StoryAnalyzedEvent) error
	Close() error
}

// NoopPublisher используется, когда брокер не настроен.
type NoopPublisher struct{}

func (NoopPublisher) PublishStoryAnalyzed(context.Context, StoryAnalyzedEvent) error { return nil }
func (NoopPublisher) Close() error                                                  { return nil }

// RabbitMQStoryPublisher публикует события в exchange story_events.
type RabbitMQStoryPublisher struct {
	mu     sync.Mutex
	ch     *amqp091.Channel
	logger *zap.Logger
}

var (
	_ StoryEventPublisher = (*RabbitMQStoryPublisher)(nil)
	_ StoryEventPublisher = NoopPublisher{}
)

// NewRabbitMQStoryPublisher открывает канал и объявляет durable fanout exchange.
// Соединением владеет вызывающий код.
func NewRabbitMQStoryPublisher(conn *amqp091.Connection, logger *zap.Logger) (*RabbitMQStoryPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}
	log := logger.Named("StoryEventPublisher")

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		ExchangeStoryEvents, // name
		"fanout",            // type
		true,                // durable
		false,               // auto-deleted
		false,               // internal
		false,               // no-wait
		nil,                 // arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", ExchangeStoryEvents, err)
	}
	log.Info("Story events exchange declared", zap.String("exchange", ExchangeStoryEvents))
	return &RabbitMQStoryPublisher{ch: ch, logger: log}, nil
}

// PublishStoryAnalyzed публикует событие story.analyzed.
func (p *RabbitMQStoryPublisher) PublishStoryAnalyzed(ctx context.Context, event StoryAnalyzedEvent) error {
	event.EventType = EventStoryAnalyzed
	if event.AnalyzedAt.IsZero() {
		event.AnalyzedAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal story event: %w", err)
	}

	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx,
		ExchangeStoryEvents, // exchange
		"",                  // routing key (не используется для fanout)
		false,               // mandatory
		false,               // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    uuid.NewString(),
			Type:         EventStoryAnalyzed,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish story event: %w", err)
	}

	p.logger.Debug("Story event published", zap.String("story_id", event.StoryID), zap.String("type", EventStoryAnalyzed))
	return nil
}

// Close закрывает канал.
func (p *RabbitMQStoryPublisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}

// Connect подключается к RabbitMQ с повторными попытками.
func Connect(ctx context.Context, rawURL string, maxRetries int, retryDelay time.Duration, logger *zap.Logger) (*amqp091.Connection, error) {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	logger.Info("Attempting to connect to RabbitMQ",
		zap.String("url", maskURL(rawURL)),
		zap.Int("max_retries", maxRetries),
		zap.Duration("retry_delay", retryDelay),
	)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		conn, err := amqp091.Dial(rawURL)
		if err == nil {
			logger.Info("Successfully connected to RabbitMQ", zap.Int("attempt", attempt))
			go func() {
				notifyClose := conn.NotifyClose(make(chan *amqp091.Error, 1))
				if err := <-notifyClose; err != nil {
					logger.Error("RabbitMQ connection closed unexpectedly", zap.Error(err))
				}
			}()
			return conn, nil
		}
		lastErr = err
		logger.Warn("RabbitMQ connection failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))

		if attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, lastErr)
}

func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid-url"
	}
	return u.Redacted()
}
