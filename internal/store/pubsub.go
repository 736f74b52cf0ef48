package store

import (
	"context"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/yincma/presentationflow/internal/fault"
)

// defaultPublishTimeout bounds the single publish attempt. Queue-level retry
// and dead-lettering belong to the topic's subscription, not this client.
const defaultPublishTimeout = 10 * time.Second

// PubSubQueue implements MessageQueue on a Pub/Sub topic.
type PubSubQueue struct {
	topic   *pubsub.Topic
	timeout time.Duration
}

// NewPubSubQueue wires a MessageQueue over the given topic. A non-positive
// timeout selects the default.
func NewPubSubQueue(topic *pubsub.Topic, timeout time.Duration) *PubSubQueue {
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &PubSubQueue{topic: topic, timeout: timeout}
}

func (q *PubSubQueue) Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	result := q.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fault.Internal(err, "failed to publish cleanup task")
	}
	return id, nil
}
