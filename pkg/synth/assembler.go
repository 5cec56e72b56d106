package synth

import (
	"errors"
	"fmt"
	"slices"

	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/models"
)

// ErrSchemaMismatch is returned by Union when batch columns differ.
var ErrSchemaMismatch = errors.New("schema mismatch")

// Labels are generated in this order for every product.
var Labels = []int{LabelLegit, LabelFraud}

// Batch is a record set with an explicit column list.
type Batch struct {
	Columns []string
	Records []models.TransactionRecord
}

func (b Batch) Len() int { return len(b.Records) }

// Union concatenates batches whose column sets match by name, in any order.
func Union(batches ...Batch) (Batch, error) {
	if len(batches) == 0 {
		return Batch{Columns: slices.Clone(models.TransactionColumns)}, nil
	}
	cols := slices.Clone(batches[0].Columns)
	want := sortedCopy(cols)
	total := 0
	for i, b := range batches {
		if !slices.Equal(want, sortedCopy(b.Columns)) {
			return Batch{}, fmt.Errorf("%w: batch %d has columns %v, expected %v", ErrSchemaMismatch, i, b.Columns, cols)
		}
		total += b.Len()
	}
	out := Batch{Columns: cols, Records: make([]models.TransactionRecord, 0, total)}
	for _, b := range batches {
		out.Records = append(out.Records, b.Records...)
	}
	return out, nil
}

func sortedCopy(s []string) []string {
	c := slices.Clone(s)
	slices.Sort(c)
	return c
}

// AssembleRecordSet builds one batch per product and label, product-major, and unions them.
// The result holds len(products)*len(Labels)*nRows records.
func (g *Generator) AssembleRecordSet(dists DistributionSet, products []string, nRows int) (Batch, error) {
	batches := make([]Batch, 0, len(products)*len(Labels))
	for _, p := range products {
		for _, label := range Labels {
			b, err := g.GenerateBatch(dists, p, label, g.now(), nRows)
			if err != nil {
				return Batch{}, err
			}
			batches = append(batches, b)
		}
	}
	set, err := Union(batches...)
	if err != nil {
		return Batch{}, err
	}
	if want := len(products) * len(Labels) * nRows; set.Len() != want {
		return Batch{}, fmt.Errorf("%w: assembled %d records, expected %d", ErrSchemaMismatch, set.Len(), want)
	}
	return set, nil
}
