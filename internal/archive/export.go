// Package archive exports recent stored events as JSONL and ships the export
// to one or more destinations (S3, a git repository).
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/eventsvc/internal/model"
)

// FormatVersion is written in every export header.
const FormatVersion = "1"

// Source is the read side of the persistence gateway.
type Source interface {
	ListRecent(ctx context.Context, limit int) ([]*model.StoredEvent, error)
}

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version     string    `json:"version"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment,omitempty"`
	EventCount  int       `json:"event_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes the most recent stored events to w as JSONL: a header
// line, then one "event" line per row in ascending id order.
func ExportJSONL(ctx context.Context, src Source, environment string, w io.Writer) (int, error) {
	rows, err := src.ListRecent(ctx, model.MaxListEvents)
	if err != nil {
		return 0, fmt.Errorf("list events: %w", err)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].ID < rows[j].ID
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:     FormatVersion,
		Type:        "header",
		Timestamp:   time.Now().UTC(),
		Environment: environment,
		EventCount:  len(rows),
	}); err != nil {
		return 0, fmt.Errorf("encode header: %w", err)
	}

	for _, r := range rows {
		if err := enc.Encode(record{Type: "event", Data: r}); err != nil {
			return 0, fmt.Errorf("encode event %d: %w", r.ID, err)
		}
	}
	return len(rows), nil
}
