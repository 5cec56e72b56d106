package scoring

import (
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/models"
)

// Frame is a table in pandas "split" orientation.
type Frame struct {
	Columns []string `json:"columns"`
	Index   []int    `json:"index"`
	Data    [][]any  `json:"data"`
}

// FeatureColumns is the transaction schema without the label.
func FeatureColumns() []string {
	out := make([]string, 0, len(models.TransactionColumns)-1)
	for _, c := range models.TransactionColumns {
		if c != models.ColLabel {
			out = append(out, c)
		}
	}
	return out
}

// NewFrame projects records onto columns. Unknown columns become null.
func NewFrame(columns []string, records []models.TransactionRecord) Frame {
	f := Frame{
		Columns: columns,
		Index:   make([]int, len(records)),
		Data:    make([][]any, len(records)),
	}
	for i, r := range records {
		f.Index[i] = i
		row := make([]any, len(columns))
		for j, c := range columns {
			row[j], _ = r.Value(c)
		}
		f.Data[i] = row
	}
	return f
}

// Inputs returns the same projection as a column dictionary.
func Inputs(columns []string, records []models.TransactionRecord) map[string][]any {
	out := make(map[string][]any, len(columns))
	for _, c := range columns {
		col := make([]any, len(records))
		for i, r := range records {
			col[i], _ = r.Value(c)
		}
		out[c] = col
	}
	return out
}
