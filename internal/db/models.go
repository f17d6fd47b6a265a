package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Project statuses as stored in the projects table.
const (
	StatusInitialStage = "initial_stage"
	StatusInProgress   = "in_progress"
	StatusCompleted    = "completed"
	StatusOnHold       = "on_hold"
	StatusAbandoned    = "abandoned"
)

type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Status      string    `json:"status"`
	DBConfig    string    `json:"db_config,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ValidStatus reports whether s is one of the known project statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusInitialStage, StatusInProgress, StatusCompleted, StatusOnHold, StatusAbandoned:
		return true
	}
	return false
}

func NewID() string {
	return uuid.NewString()
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		ts = nowUTC()
	}
	return ts.UTC().Format(time.RFC3339)
}

func parseTimestamp(v string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", v, err)
	}
	return ts, nil
}
