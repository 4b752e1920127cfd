package model

import "time"

// RunStatus is the lifecycle state of a batch run.
type RunStatus string

const (
	RunStatusRunning     RunStatus = "running"
	RunStatusComplete    RunStatus = "complete"
	RunStatusInterrupted RunStatus = "interrupted"
)

// Run is one persisted batch run over an imported record set.
type Run struct {
	ID        string          `json:"id"`
	Source    string          `json:"source"`
	Status    RunStatus       `json:"status"`
	Stats     ProcessingStats `json:"stats"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
