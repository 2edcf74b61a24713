package postgres

import (
	"database/sql"

	"github.com/alfredjeanlab/eventsvc/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanStoredEvent scans a single row into a model.StoredEvent.
// The row must contain columns in the order defined by eventColumns.
func scanStoredEvent(row scannable) (*model.StoredEvent, error) {
	var (
		e         model.StoredEvent
		createdAt sql.NullTime
	)
	if err := row.Scan(&e.ID, &e.EventID, &e.Message, &createdAt); err != nil {
		return nil, err
	}
	// created_at is nullable in the schema even though it defaults to NOW().
	if createdAt.Valid {
		e.CreatedAt = createdAt.Time.UTC()
	}
	return &e, nil
}

func scanStoredEvents(rows *sql.Rows) ([]*model.StoredEvent, error) {
	events := []*model.StoredEvent{}
	for rows.Next() {
		e, err := scanStoredEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
