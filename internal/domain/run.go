package domain

import "time"

// SinkOutcome is what one sink reported for a run
type SinkOutcome struct {
	Name     string        `json:"name"`
	Target   string        `json:"target"`
	OK       bool          `json:"ok"`
	Rows     int           `json:"rows"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// UploadOutcome is the result of pushing one artifact to the remote host
type UploadOutcome struct {
	Path   string `json:"path"`
	Remote string `json:"remote,omitempty"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// RunSummary is kept in the state store between runs
type RunSummary struct {
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
	TotalItems   int             `json:"total_items"`
	TotalPages   int             `json:"total_pages"`
	SkippedPages int             `json:"skipped_pages"`
	SkippedItems int             `json:"skipped_items"`
	Aborted      string          `json:"aborted,omitempty"`
	Stats        Stats           `json:"stats"`
	Sinks        []SinkOutcome   `json:"sinks"`
	Uploads      []UploadOutcome `json:"uploads,omitempty"`
	Succeeded    bool            `json:"succeeded"`
}
