package postgres

import (
	"context"
	"database/sql"

	"github.com/alfredjeanlab/eventsvc/internal/model"
)

// eventColumns is the column list used for SELECT statements on app_events.
const eventColumns = `id, event_id, message, created_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryInsertEvent(ctx context.Context, db executor, eventID, message string) (int64, error) {
	var id int64
	err := db.QueryRowContext(ctx, `
		INSERT INTO app_events (event_id, message)
		VALUES ($1, $2)
		RETURNING id`,
		eventID, message,
	).Scan(&id)
	return id, err
}

func queryListRecentEvents(ctx context.Context, db executor, limit int) ([]*model.StoredEvent, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM app_events
		ORDER BY created_at DESC, id DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStoredEvents(rows)
}

func queryPing(ctx context.Context, db executor) error {
	var one int
	return db.QueryRowContext(ctx, `SELECT 1`).Scan(&one)
}
