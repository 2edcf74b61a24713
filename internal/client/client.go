// Package client provides a transport-agnostic interface for the eventsvc API
// and implementations that talk to a running server.
package client

import (
	"context"

	"github.com/alfredjeanlab/eventsvc/internal/model"
)

// EventsClient is the interface the eventsvc CLI commands use to talk to a
// running server.
type EventsClient interface {
	Health(ctx context.Context) (*model.HealthStatus, error)
	CreateEvent(ctx context.Context, message string) (*CreatedEvent, error)
	ListEvents(ctx context.Context) ([]*model.StoredEvent, error)
	// StreamEvents calls fn for every event created while the stream is open,
	// starting after lastID when it is non-zero. It returns when ctx is done
	// or the server closes the stream.
	StreamEvents(ctx context.Context, lastID uint64, fn func(seq uint64, evt model.Event)) error

	Close() error
}

// CreatedEvent is the server's answer to a successful create.
type CreatedEvent struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
}
