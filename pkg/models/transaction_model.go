package models

import "time"

// Column names of a transaction record; these are the JSON keys downstream ingestion expects.
const (
	ColCustomerID           = "CustomerID"
	ColTransactionTimestamp = "TransactionTimestamp"
	ColProduct              = "Product"
	ColAmount               = "Amount"
	ColLabel                = "Label"
)

// TransactionColumns is the canonical schema of a transaction record set.
var TransactionColumns = []string{ColCustomerID, ColTransactionTimestamp, ColProduct, ColAmount, ColLabel}

// TransactionRecord is one synthetic card transaction. Label is 1 for fraud, 0 otherwise.
type TransactionRecord struct {
	CustomerID           int       `json:"CustomerID"`
	TransactionTimestamp time.Time `json:"TransactionTimestamp"`
	Product              string    `json:"Product"`
	Amount               float64   `json:"Amount"`
	Label                int       `json:"Label"`
}

// Value returns the field stored under the given column name.
func (t TransactionRecord) Value(column string) (any, bool) {
	switch column {
	case ColCustomerID:
		return t.CustomerID, true
	case ColTransactionTimestamp:
		return t.TransactionTimestamp.Format(time.RFC3339Nano), true
	case ColProduct:
		return t.Product, true
	case ColAmount:
		return t.Amount, true
	case ColLabel:
		return t.Label, true
	}
	return nil, false
}
