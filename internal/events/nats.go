package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// DefaultPublishTimeout bounds how long Publish waits for a JetStream ack.
const DefaultPublishTimeout = 10 * time.Second

// NATSPublisher publishes JSON messages to JetStream subjects and waits for
// the stream's acknowledgement. The message id is "<stream>:<sequence>".
type NATSPublisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	timeout time.Duration
}

// NewNATSPublisher connects to the NATS server at url. A zero timeout uses
// DefaultPublishTimeout. An unreachable server is not an error: the client
// keeps reconnecting in the background and each Publish fails with a
// *PublishError until the connection is up.
func NewNATSPublisher(url string, timeout time.Duration) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("eventsvc-publisher"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		// No reconnect buffer: publishes during an outage fail immediately.
		nats.ReconnectBufSize(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &NATSPublisher{conn: nc, js: js, timeout: timeout}, nil
}

// EnsureStream creates or updates a stream named name that captures subjects.
// Publishing only succeeds for subjects bound to some stream.
func (p *NATSPublisher) EnsureStream(ctx context.Context, name string, subjects ...string) error {
	if name == "" {
		return errors.New("stream name is required")
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	_, err := p.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     name,
		Subjects: subjects,
	})
	if err != nil {
		return fmt.Errorf("ensuring stream %s: %w", name, err)
	}
	return nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, message any) (string, error) {
	if topic == "" {
		return "", nil
	}

	data, err := json.Marshal(message)
	if err != nil {
		return "", &PublishError{Topic: topic, Err: fmt.Errorf("marshaling message: %w", err)}
	}

	var opts []jetstream.PublishOpt
	if k, ok := message.(Keyed); ok && k.Key() != "" {
		opts = append(opts, jetstream.WithMsgID(k.Key()))
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	ack, err := p.js.Publish(ctx, topic, data, opts...)
	if err != nil {
		return "", &PublishError{Topic: topic, Err: err}
	}
	return ack.Stream + ":" + strconv.FormatUint(ack.Sequence, 10), nil
}

// Connected reports whether the publisher currently has a live connection.
func (p *NATSPublisher) Connected() bool {
	return p.conn.IsConnected()
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}
