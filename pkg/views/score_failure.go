package views

import "time"

// ScoreFailure is the dead-letter message for a file that could not be scored.
type ScoreFailure struct {
	FileName   string    `json:"fileName"`
	TraceID    string    `json:"traceId"`
	ErrorCode  string    `json:"errorCode"`
	Reason     string    `json:"reason"`
	StatusCode int       `json:"statusCode,omitempty"`
	Attempts   int       `json:"attempts"`
	FailedAt   time.Time `json:"failedAt"`
}
