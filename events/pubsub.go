package events

import (
	"context"
	"errors"
	"sync"

	"github.com/mmdatafocus/fintech_backend/config"
)

type PubSubPublisher struct {
	topic string

	mu    sync.Mutex
	ready bool
}

func NewPubSubPublisher(topic string) *PubSubPublisher {
	return &PubSubPublisher{topic: topic}
}

// ensureTopic creates the topic on first use. A failure is retried on the next
// Publish, so the outbox row just backs off.
func (p *PubSubPublisher) ensureTopic(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready {
		return nil
	}
	if p.topic == "" {
		return errors.New("PUBSUB_TOPIC is required")
	}
	client, err := config.GetPubSubClient(ctx)
	if err != nil {
		return err
	}
	if _, err := config.CreateTopicIfNotExists(ctx, client, p.topic); err != nil {
		return err
	}
	p.ready = true
	return nil
}

func (p *PubSubPublisher) Publish(ctx context.Context, msg Message) (string, error) {
	if err := p.ensureTopic(ctx); err != nil {
		return "", err
	}
	attrs := map[string]string{"key": msg.Key}
	for k, v := range msg.Attributes {
		attrs[k] = v
	}
	return config.PublishPubSubMessage(ctx, p.topic, msg.Data, attrs)
}

// Close is a no-op; the client is process-wide and owned by config.
func (p *PubSubPublisher) Close() error { return nil }
