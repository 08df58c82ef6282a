// Package events defines the payloads published through the outbox.
package events

import "time"

// SessionRecorded is emitted when a workout session is persisted.
type SessionRecorded struct {
	SessionID     string     `json:"session_id"`
	UserID        string     `json:"user_id"`
	RoutineID     *string    `json:"routine_id,omitempty"`
	RoutineName   string     `json:"routine_name"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	TotalVolumeKg float64    `json:"total_volume_kg"`
	SetCount      int        `json:"set_count"`
}

// RoutineDeleted is emitted when a routine and its exercise tree are removed.
type RoutineDeleted struct {
	RoutineID  string    `json:"routine_id"`
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
