package models

import "time"

// TransactionScore maps to table `transaction_scores`
type TransactionScore struct {
	FileID               string
	RowIndex             int
	CustomerID           int
	Product              string
	Amount               float64
	TransactionTimestamp time.Time
	Label                int
	Prediction           float64
	ScoredAt             time.Time
}
