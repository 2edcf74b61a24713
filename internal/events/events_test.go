package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/alfredjeanlab/eventsvc/internal/model"
)

const testStream = "APP_EVENTS"

// startTestNATS runs an embedded NATS server with JetStream enabled.
func startTestNATS(t *testing.T) string {
	t.Helper()
	opts := &natsserver.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
	}
	srv, err := natsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

func newTestPublisher(t *testing.T, url string) *NATSPublisher {
	t.Helper()
	pub, err := NewNATSPublisher(url, 2*time.Second)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	t.Cleanup(func() { pub.Close() })
	if err := pub.EnsureStream(context.Background(), testStream, "app.events.>"); err != nil {
		t.Fatalf("ensuring stream: %v", err)
	}
	return pub
}

func TestNoopPublisher_Publish(t *testing.T) {
	pub := &NoopPublisher{}
	id, err := pub.Publish(context.Background(), TopicEventCreated, model.Event{ID: "e1"})
	if err != nil {
		t.Fatalf("NoopPublisher.Publish returned unexpected error: %v", err)
	}
	if id != "" {
		t.Errorf("NoopPublisher.Publish id = %q, want empty", id)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("NoopPublisher.Close returned unexpected error: %v", err)
	}
}

func TestPublishers_ImplementPublisher(t *testing.T) {
	var _ Publisher = (*NoopPublisher)(nil)
	var _ Publisher = (*NATSPublisher)(nil)
}

func TestNATSPublisher_EmptyTopicIsNoop(t *testing.T) {
	url := startTestNATS(t)
	pub, err := NewNATSPublisher(url, time.Second)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	id, err := pub.Publish(context.Background(), "", map[string]string{"data": "test"})
	if err != nil {
		t.Fatalf("Publish with empty topic returned error: %v", err)
	}
	if id != "" {
		t.Errorf("Publish with empty topic id = %q, want empty", id)
	}
}

func TestNATSPublisher_PublishReturnsAckID(t *testing.T) {
	url := startTestNATS(t)
	pub := newTestPublisher(t, url)

	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connecting subscriber: %v", err)
	}
	defer nc.Close()

	ch := make(chan *nats.Msg, 2)
	sub, err := nc.ChanSubscribe(TopicEventCreated, ch)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck
	nc.Flush()

	event := model.Event{ID: "123e4567-e89b-12d3-a456-426614174000", Message: "hello", Timestamp: time.Now().UTC(), Environment: "test"}
	id, err := pub.Publish(context.Background(), TopicEventCreated, event)
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if id != testStream+":1" {
		t.Errorf("message id = %q, want %s:1", id, testStream)
	}

	select {
	case msg := <-ch:
		var got model.Event
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.ID != event.ID || got.Message != "hello" || got.Environment != "test" {
			t.Errorf("got %+v", got)
		}
		if msg.Header.Get(nats.MsgIdHdr) != event.ID {
			t.Errorf("Nats-Msg-Id = %q, want %q", msg.Header.Get(nats.MsgIdHdr), event.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published message")
	}

	id2, err := pub.Publish(context.Background(), TopicEventCreated, model.Event{ID: "other", Message: "again"})
	if err != nil {
		t.Fatalf("second Publish error: %v", err)
	}
	if id2 != testStream+":2" {
		t.Errorf("second message id = %q, want %s:2", id2, testStream)
	}
}

func TestNATSPublisher_DuplicateKeyIsSuppressed(t *testing.T) {
	url := startTestNATS(t)
	pub := newTestPublisher(t, url)

	event := model.Event{ID: "dup-1", Message: "once"}
	first, err := pub.Publish(context.Background(), TopicEventCreated, event)
	if err != nil {
		t.Fatalf("first Publish: %v", err)
	}
	second, err := pub.Publish(context.Background(), TopicEventCreated, event)
	if err != nil {
		t.Fatalf("second Publish: %v", err)
	}
	if first != second {
		t.Errorf("duplicate publish ids differ: %q vs %q", first, second)
	}
}

func TestNATSPublisher_NoStreamIsPublishError(t *testing.T) {
	url := startTestNATS(t)
	pub, err := NewNATSPublisher(url, 500*time.Millisecond)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	_, err = pub.Publish(context.Background(), "unbound.subject", map[string]string{"k": "v"})
	var pe *PublishError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PublishError, got %v", err)
	}
	if pe.Topic != "unbound.subject" {
		t.Errorf("PublishError.Topic = %q", pe.Topic)
	}
}

func TestNATSPublisher_MarshalFailure(t *testing.T) {
	url := startTestNATS(t)
	pub := newTestPublisher(t, url)

	_, err := pub.Publish(context.Background(), TopicEventCreated, map[string]any{"ch": make(chan int)})
	var pe *PublishError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PublishError, got %v", err)
	}
}

func TestNATSPublisher_PublishAfterClose(t *testing.T) {
	url := startTestNATS(t)
	pub := newTestPublisher(t, url)

	if err := pub.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if _, err := pub.Publish(context.Background(), TopicEventCreated, model.Event{ID: "late"}); err == nil {
		t.Error("expected error publishing after close")
	}
}

func TestEnsureStream_RequiresName(t *testing.T) {
	url := startTestNATS(t)
	pub, err := NewNATSPublisher(url, time.Second)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()
	if err := pub.EnsureStream(context.Background(), "", TopicEventCreated); err == nil {
		t.Fatal("expected error for empty stream name")
	}
}

func TestNewNATSPublisher_UnreachableServer(t *testing.T) {
	pub, err := NewNATSPublisher("nats://127.0.0.1:1", 200*time.Millisecond)
	if err != nil {
		t.Fatalf("NewNATSPublisher should tolerate an unreachable server: %v", err)
	}
	defer pub.Close()

	if pub.Connected() {
		t.Fatal("publisher reports a connection to a dead server")
	}

	_, err = pub.Publish(context.Background(), TopicEventCreated, model.Event{ID: "e1", Message: "m"})
	var pe *PublishError
	if !errors.As(err, &pe) {
		t.Fatalf("Publish error = %v, want *PublishError", err)
	}
	if pe.Topic != TopicEventCreated {
		t.Errorf("PublishError.Topic = %q", pe.Topic)
	}
}

func TestNATSPublisher_EnsureStreamUnreachable(t *testing.T) {
	pub, err := NewNATSPublisher("nats://127.0.0.1:1", 200*time.Millisecond)
	if err != nil {
		t.Fatalf("NewNATSPublisher: %v", err)
	}
	defer pub.Close()

	if err := pub.EnsureStream(context.Background(), testStream, "app.events.>"); err == nil {
		t.Fatal("expected EnsureStream to fail without a server")
	}
}

func TestPublishError_Unwrap(t *testing.T) {
	cause := errors.New("nats: timeout")
	err := error(&PublishError{Topic: "t", Err: cause})
	if !errors.Is(err, cause) {
		t.Error("PublishError should unwrap to its cause")
	}
	if err.Error() != "publishing to t: nats: timeout" {
		t.Errorf("Error() = %q", err.Error())
	}
}
