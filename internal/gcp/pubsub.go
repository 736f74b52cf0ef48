package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
)

// NewPubSubTopic creates a Pub/Sub client and returns a handle on the named
// topic. The topic must already exist; publishing to a missing topic fails
// per message, which the caller treats as an enqueue failure.
func NewPubSubTopic(ctx context.Context, projectID, topicID string) (*pubsub.Topic, error) {
	if projectID == "" || topicID == "" {
		return nil, fmt.Errorf("projectID and topicID must be provided to create a pubsub topic")
	}

	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}

	return client.Topic(topicID), nil
}
