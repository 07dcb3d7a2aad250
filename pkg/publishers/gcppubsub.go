package publishers

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

type pubSubSender struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

func newPubSubSender(ctx context.Context, cfg *PubSubConfig, opts ...option.ClientOption) (queueSender, error) {
	if cfg == nil {
		return nil, errors.New("gcp pubsub configuration is missing")
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return &pubSubSender{client: client, topic: client.Topic(cfg.Topic)}, nil
}

func (s *pubSubSender) Send(ctx context.Context, evt Event, body []byte) (string, error) {
	res := s.topic.Publish(ctx, &pubsub.Message{
		Data:       body,
		Attributes: messageAttributes(evt),
	})
	id, err := res.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish to pubsub topic %s: %w", s.topic.ID(), err)
	}
	return id, nil
}

// Close flushes pending messages and releases the client.
func (s *pubSubSender) Close() error {
	s.topic.Stop()
	return s.client.Close()
}
