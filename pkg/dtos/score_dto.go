package dtos

import "time"

// ScoreResult is published once per scored file.
type ScoreResult struct {
	FileID      string    `json:"fileId"`
	FileName    string    `json:"fileName"`
	TraceID     string    `json:"traceId"`
	Records     int       `json:"records"`
	Predictions []float64 `json:"predictions"`
	Accuracy    *float64  `json:"accuracy,omitempty"` // nil when the payload carried no usable predictions
	Stored      int64     `json:"stored"`
	Attempts    int       `json:"attempts"`
	ScoredAt    time.Time `json:"scoredAt"`
}
