package events

import (
	"context"
	"fmt"
)

// TopicEventCreated is the default subject for `eventsvc watch --nats` when
// neither --topic nor PUBSUB_TOPIC is set. The server itself only publishes to
// PUBSUB_TOPIC, and an empty PUBSUB_TOPIC disables publishing.
const TopicEventCreated = "app.events.created"

// Publisher is the interface for emitting messages to a broker topic.
type Publisher interface {
	// Publish JSON-encodes message, submits it to topic, and waits for the
	// broker's acknowledgement. It returns the broker-assigned message id.
	// An empty topic is a no-op that returns "" and no error.
	Publish(ctx context.Context, topic string, message any) (string, error)
	Close() error
}

// Keyed is implemented by messages that carry their own deduplication key.
type Keyed interface {
	Key() string
}

// PublishError reports a broker-level failure. It is never retried.
type PublishError struct {
	Topic string
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publishing to %s: %v", e.Topic, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
