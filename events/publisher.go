package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/mmdatafocus/fintech_backend/config"
)

// Message is one outbox row on its way to the broker.
type Message struct {
	Key        string
	Data       []byte
	Attributes map[string]string
}

// Publisher delivers a message and returns the broker-side id (may be empty).
type Publisher interface {
	Publish(ctx context.Context, msg Message) (string, error)
	Close() error
}

// NewFromEnv builds the publisher selected by EVENTS_BACKEND.
func NewFromEnv() (Publisher, error) {
	switch backend := config.EventsBackend(); backend {
	case "pubsub":
		return NewPubSubPublisher(config.EventsTopic()), nil
	case "kafka":
		brokers := config.KafkaBrokers()
		if len(brokers) == 0 {
			return nil, fmt.Errorf("KAFKA_BROKERS is required for EVENTS_BACKEND=kafka")
		}
		return NewKafkaPublisher(brokers, config.EventsTopic()), nil
	case "none", "":
		return DiscardPublisher{}, nil
	default:
		return nil, fmt.Errorf("unknown EVENTS_BACKEND %q", backend)
	}
}

// DiscardPublisher accepts and drops every message. Events are marked SENT
// without leaving the process when no broker is configured.
type DiscardPublisher struct{}

func (DiscardPublisher) Publish(context.Context, Message) (string, error) { return "", nil }

func (DiscardPublisher) Close() error { return nil }

// MemoryPublisher keeps every message in process. Tests only: nothing trims it.
type MemoryPublisher struct {
	mu       sync.Mutex
	messages []Message
	// Err, when set, is returned from every Publish.
	Err error
}

func (p *MemoryPublisher) Publish(_ context.Context, msg Message) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return "", p.Err
	}
	p.messages = append(p.messages, msg)
	return fmt.Sprintf("mem-%d", len(p.messages)), nil
}

func (p *MemoryPublisher) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Message, len(p.messages))
	copy(out, p.messages)
	return out
}

func (p *MemoryPublisher) Close() error { return nil }
