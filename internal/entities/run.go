package entities

import (
	"time"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ImportRun is the last reported state of an import, persisted by the
// progress tracker and served back through the status command.
type ImportRun struct {
	RunID             string    `json:"run_id"`
	Status            RunStatus `json:"status"`
	Percent           float64   `json:"percent"`
	Message           string    `json:"message"`
	EntriesImported   int       `json:"entries_imported"`
	EntriesFailed     int       `json:"entries_failed"`
	MediaImported     int       `json:"media_imported"`
	MediaFailed       int       `json:"media_failed"`
	MediaSkipped      int       `json:"media_skipped"`
	CategoriesCreated int       `json:"categories_created"`
	Error             string    `json:"error,omitempty"`
	StartedAt         time.Time `json:"started_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
