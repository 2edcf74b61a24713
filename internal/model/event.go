package model

import "time"

// Event is a submitted message as it is published to the broker.
type Event struct {
	ID          string    `json:"id"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment"`
}

// StoredEvent is a row of the app_events table.
type StoredEvent struct {
	ID        int64     `json:"id"`
	EventID   string    `json:"event_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// MaxListEvents caps the number of rows returned by a listing.
const MaxListEvents = 100

// Key returns the event id, used by the broker to suppress duplicate publishes.
func (e Event) Key() string { return e.ID }
