package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/alfredjeanlab/eventsvc/internal/model"
)

// ErrNotInitialized is returned by data operations when the database was
// never successfully initialized.
var ErrNotInitialized = errors.New("database connection not initialized")

// Error wraps a lower-level store failure with the operation that hit it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Store defines the persistence interface for events.
type Store interface {
	// InsertEvent stores one row and returns its store-assigned numeric id.
	InsertEvent(ctx context.Context, eventID, message string) (int64, error)
	// ListRecentEvents returns up to limit rows, newest first.
	ListRecentEvents(ctx context.Context, limit int) ([]*model.StoredEvent, error)
	// Ping issues a trivial liveness query.
	Ping(ctx context.Context) error

	Close() error
}
