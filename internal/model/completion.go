package model

import "time"

// Completion is an append-only record of one chore completion.
type Completion struct {
	ID            int64     `json:"id"`
	ChoreID       int64     `json:"chore_id"`
	CompletedBy   *int64    `json:"completed_by"`
	CompletedAt   time.Time `json:"completed_at"`
	ScheduledFor  time.Time `json:"scheduled_for"`
	WasOnTime     bool      `json:"was_on_time"`
	WasPostponed  bool      `json:"was_postponed"`
	PostponeCount int       `json:"postpone_count"`
	Notes         string    `json:"notes"`
}
