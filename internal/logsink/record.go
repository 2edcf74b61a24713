// Package logsink forwards structured JSON records to an external HTTP log
// collector (Logstash or compatible). Delivery is best effort.
package logsink

import "time"

// Record types emitted by the service.
const (
	TypeAppStartup      = "app_startup"
	TypeHealthCheck     = "health_check"
	TypeEventCreated    = "event_created"
	TypeEventsRetrieved = "events_retrieved"
	TypeError           = "error"
)

// Record is one JSON object delivered to the sink.
type Record map[string]any

// NewRecord returns a record of the given type stamped with the current time.
func NewRecord(typ string) Record {
	return Record{
		"type":      typ,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// With sets key to value and returns r for chaining.
func (r Record) With(key string, value any) Record {
	r[key] = value
	return r
}

// Type returns the record's type field.
func (r Record) Type() string {
	s, _ := r["type"].(string)
	return s
}
