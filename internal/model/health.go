package model

import "time"

// DatabaseStatus is the reachability of the event store as seen by a health check.
type DatabaseStatus string

const (
	DatabaseUp             DatabaseStatus = "up"
	DatabaseDown           DatabaseStatus = "down"
	DatabaseNotInitialized DatabaseStatus = "not_initialized"
)

// IsValid reports whether s is a known status.
func (s DatabaseStatus) IsValid() bool {
	switch s {
	case DatabaseUp, DatabaseDown, DatabaseNotInitialized:
		return true
	}
	return false
}

func (s DatabaseStatus) String() string { return string(s) }

// HealthStatus is a point-in-time snapshot reported by GET /health.
type HealthStatus struct {
	Status      string         `json:"status"`
	Timestamp   time.Time      `json:"timestamp"`
	Environment string         `json:"environment"`
	Database    DatabaseStatus `json:"database"`
	Version     string         `json:"version"`
}
