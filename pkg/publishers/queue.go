package publishers

import (
	"context"
	"encoding/json"
	"fmt"
)

// queueSender is implemented per cloud provider.
type queueSender interface {
	Send(ctx context.Context, evt Event, body []byte) (string, error)
	Close() error
}

type queuePublisher struct {
	id       string
	provider string
	sender   queueSender
	log      Logger
}

func newQueuePublisher(ctx context.Context, cfg Config, log Logger) (Publisher, error) {
	if cfg.Queue == nil {
		return nil, fmt.Errorf("publisher %q missing queue configuration", cfg.ID)
	}

	var (
		sender queueSender
		err    error
	)
	switch cfg.Queue.Provider {
	case QueueProviderAWSSQS:
		sender, err = newSQSSender(ctx, cfg.Queue.SQS)
	case QueueProviderAWSSNS:
		sender, err = newSNSSender(ctx, cfg.Queue.SNS)
	case QueueProviderGCP:
		sender, err = newPubSubSender(ctx, cfg.Queue.GCP)
	default:
		err = fmt.Errorf("queue provider %q is not supported", cfg.Queue.Provider)
	}
	if err != nil {
		return nil, err
	}

	return &queuePublisher{
		id:       cfg.ID,
		provider: cfg.Queue.Provider,
		sender:   sender,
		log:      ensureLogger(log),
	}, nil
}

func (p *queuePublisher) ID() string   { return p.id }
func (p *queuePublisher) Type() string { return TypeQueue }
func (p *queuePublisher) Close() error { return p.sender.Close() }

// Publish encodes evt as JSON and hands it to the provider.
func (p *queuePublisher) Publish(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msgID, err := p.sender.Send(ctx, evt, body)
	if err != nil {
		return fmt.Errorf("%s send: %w", p.provider, err)
	}

	p.log.DebugObj("queue publisher delivered event", "publisher_queue_delivery", map[string]any{
		"publisher":  p.id,
		"provider":   p.provider,
		"event_id":   evt.EventID,
		"message_id": msgID,
	})
	return nil
}

// messageAttributes are attached to every queue message for subscriber-side filtering.
func messageAttributes(evt Event) map[string]string {
	attrs := map[string]string{"provider": evt.Provider}
	if name := evt.SourceName(); name != "" {
		attrs["source_name"] = name
	}
	if evt.Category != "" {
		attrs["category"] = evt.Category
	}
	return attrs
}
