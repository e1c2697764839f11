// Package notify publishes committed reservation events over watermill.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/tablebook/pkg/reservation"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backend names a publisher implementation.
type Backend string

const (
	BackendNone    Backend = "none"
	BackendChannel Backend = "channel"
	BackendRedis   Backend = "redis"
	BackendKafka   Backend = "kafka"

	// DefaultTopic receives every reservation event.
	DefaultTopic = "tablebook.events"

	// MetadataEventType carries the event type alongside the JSON payload.
	MetadataEventType = "event_type"
)

var (
	ErrUnknownBackend   = errors.New("notify: unknown backend")
	ErrMissingRedisAddr = errors.New("notify: redis address is required")
	ErrMissingBrokers   = errors.New("notify: kafka brokers are required")
	ErrNilPublisher     = errors.New("notify: publisher is required")
)

// Config selects and configures the publisher backend.
type Config struct {
	Backend      Backend
	Topic        string
	RedisAddr    string
	KafkaBrokers []string
}

// EventPayload is the JSON body of every published message.
type EventPayload struct {
	Type          string    `json:"type"`
	ReservationID int64     `json:"reservation_id,omitempty"`
	CustomerName  string    `json:"customer_name,omitempty"`
	PhoneNumber   string    `json:"phone_number,omitempty"`
	Slot          string    `json:"slot,omitempty"`
	Position      int       `json:"position,omitempty"`
	Count         int64     `json:"count,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Notifier implements reservation.Notifier on a watermill publisher.
type Notifier struct {
	publisher message.Publisher
	topic     string
	closers   []func() error
}

// NewNotifier publishes to topic through publisher. An empty topic uses DefaultTopic.
func NewNotifier(publisher message.Publisher, topic string) (*Notifier, error) {
	if publisher == nil {
		return nil, ErrNilPublisher
	}
	if strings.TrimSpace(topic) == "" {
		topic = DefaultTopic
	}
	return &Notifier{publisher: publisher, topic: topic, closers: []func() error{publisher.Close}}, nil
}

// Open builds the publisher named by config. BackendNone returns a nil Notifier and no error.
func Open(config Config, logger *zap.Logger) (*Notifier, error) {
	adapter := NewLoggerAdapter(logger)
	switch config.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendChannel:
		return NewNotifier(gochannel.NewGoChannel(gochannel.Config{}, adapter), config.Topic)
	case BackendRedis:
		if strings.TrimSpace(config.RedisAddr) == "" {
			return nil, ErrMissingRedisAddr
		}
		client := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{Client: client}, adapter)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis publisher: %w", err)
		}
		notifier, err := NewNotifier(publisher, config.Topic)
		if err != nil {
			return nil, err
		}
		notifier.closers = append(notifier.closers, client.Close)
		return notifier, nil
	case BackendKafka:
		if len(config.KafkaBrokers) == 0 {
			return nil, ErrMissingBrokers
		}
		publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:   config.KafkaBrokers,
			Marshaler: kafka.DefaultMarshaler{},
		}, adapter)
		if err != nil {
			return nil, fmt.Errorf("kafka publisher: %w", err)
		}
		return NewNotifier(publisher, config.Topic)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, config.Backend)
	}
}

// Topic reports where events are published.
func (notifier *Notifier) Topic() string {
	return notifier.topic
}

func (notifier *Notifier) Notify(_ context.Context, event reservation.Event) error {
	payload, err := json.Marshal(payloadOf(event))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set(MetadataEventType, string(event.Type))
	if err := notifier.publisher.Publish(notifier.topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Close releases the publisher and any client it owns.
func (notifier *Notifier) Close() error {
	var errs []error
	for _, closer := range notifier.closers {
		if err := closer(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func payloadOf(event reservation.Event) EventPayload {
	payload := EventPayload{
		Type:       string(event.Type),
		Position:   event.Position,
		Count:      event.Count,
		OccurredAt: event.OccurredAt.UTC(),
	}
	if !event.ReservationID.IsZero() {
		payload.ReservationID = event.ReservationID.Int64()
	}
	if !event.Contact.IsZero() {
		payload.CustomerName = event.Contact.Name().String()
		payload.PhoneNumber = event.Contact.Phone().String()
	} else if !event.Phone.IsZero() {
		payload.PhoneNumber = event.Phone.String()
	}
	if !event.Slot.IsZero() {
		payload.Slot = event.Slot.String()
	}
	return payload
}
