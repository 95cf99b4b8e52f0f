// Package entities contains core business entities.
package entities

import "time"

// StatusStat describes duplicate pair counts grouped by status.
type StatusStat struct {
	Status DuplicateStatus `json:"status"`
	Count  int64           `json:"count"`
}

// QueueStats is a snapshot of the review queue.
type QueueStats struct {
	Total            int64        `json:"total"`
	ByStatus         []StatusStat `json:"by_status"`
	PendingMeanScore float64      `json:"pending_mean_score"`
	MergesTotal      int64        `json:"merges_total"`
	MergesUndone     int64        `json:"merges_undone"`
}

// ScanResult summarizes one scan run.
type ScanResult struct {
	Pairs      []DuplicatePair `json:"pairs"`
	Evaluated  int64           `json:"evaluated"`
	Candidates int             `json:"candidates"`
	Threshold  int             `json:"threshold"`
	Duration   time.Duration   `json:"duration"`
}

// ScanJobState enumerates background scan states.
type ScanJobState string

const (
	ScanJobIdle    ScanJobState = "idle"
	ScanJobRunning ScanJobState = "running"
	ScanJobDone    ScanJobState = "done"
	ScanJobFailed  ScanJobState = "failed"
)

// ScanJob is the status of the background all-pairs scan.
type ScanJob struct {
	ID         string       `json:"id,omitempty"`
	State      ScanJobState `json:"state"`
	Threshold  int          `json:"threshold"`
	StartedAt  *time.Time   `json:"started_at,omitempty"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
	Evaluated  int64        `json:"evaluated"`
	Candidates int          `json:"candidates"`
	Error      string       `json:"error,omitempty"`
}
