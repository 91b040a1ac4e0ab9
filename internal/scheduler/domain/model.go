package domain

import "time"

// Job names recorded by the run tracker.
const (
	JobMatchRefresh = "match_refresh"
	JobSlaCheck     = "sla_check"
	JobHealthSweep  = "health_sweep"
)

// JobRun statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// JobRun records one execution of a scheduled batch job.
type JobRun struct {
	ID         string     `json:"id"`
	Job        string     `json:"job"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Processed  int        `json:"processed"`
	Failed     int        `json:"failed"`
	Violations int        `json:"violations"`
	Error      string     `json:"error,omitempty"`
}
