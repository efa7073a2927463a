package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// WatermillPublisher sends events through any watermill publisher
type WatermillPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewKafkaEventPublisher publishes to Kafka brokers
func NewKafkaEventPublisher(brokers []string, logger *slog.Logger) (*WatermillPublisher, error) {
	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	logger.Info("Kafka event publisher initialized", "brokers", brokers)
	return &WatermillPublisher{publisher: publisher, logger: logger, cancel: func() {}}, nil
}

// NewInProcessEventPublisher publishes to an in-memory channel and logs every event
// received on it. Used when no broker is configured.
func NewInProcessEventPublisher(logger *slog.Logger) (*WatermillPublisher, error) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermill.NewSlogLogger(logger))

	ctx, cancel := context.WithCancel(context.Background())
	p := &WatermillPublisher{publisher: pubSub, logger: logger, cancel: cancel}

	for _, topic := range AllTopics {
		messages, err := pubSub.Subscribe(ctx, topic)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
		p.wg.Add(1)
		go p.logMessages(topic, messages)
	}

	return p, nil
}

func (p *WatermillPublisher) logMessages(topic string, messages <-chan *message.Message) {
	defer p.wg.Done()
	for msg := range messages {
		p.logger.Info("Domain event",
			"topic", topic,
			"event_id", msg.UUID,
			"event_type", msg.Metadata.Get("event_type"),
			"payload", string(msg.Payload))
		msg.Ack()
	}
}

// Publish marshals the event and sends it to topic
func (p *WatermillPublisher) Publish(ctx context.Context, topic string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", event.Type)
	msg.Metadata.Set("source", event.Source)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", topic, err)
	}
	return nil
}

// Close stops the log subscribers and closes the underlying publisher
func (p *WatermillPublisher) Close() error {
	p.cancel()
	err := p.publisher.Close()
	p.wg.Wait()
	return err
}
