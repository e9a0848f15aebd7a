package model

import "time"

// RunStatus represents the state of a comparison run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusPartial  RunStatus = "partial"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one invocation of the coordinator, kept for history only.
// Resumption never consults run records; the result files on disk are the
// source of truth.
type Run struct {
	ID           string    `json:"id"`
	Status       RunStatus `json:"status"`
	Workers      int       `json:"workers"`
	TotalItems   int       `json:"total_items"`
	Processed    int       `json:"processed"`
	Failed       int       `json:"failed"`
	CompiledPath string    `json:"compiled_path,omitempty"`
	ReportPath   string    `json:"report_path,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at,omitzero"`
}
