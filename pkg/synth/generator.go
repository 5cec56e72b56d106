package synth

import (
	"time"

	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/models"
)

// Generator produces labelled batches from a Sampler.
type Generator struct {
	sampler   *Sampler
	customers CustomerRange
	now       func() time.Time
}

type GeneratorConfig struct {
	Seed      uint64
	Customers CustomerRange
	Now       func() time.Time // defaults to time.Now
}

func NewGenerator(cfg GeneratorConfig) *Generator {
	customers := cfg.Customers
	if customers == (CustomerRange{}) {
		customers = DefaultCustomerRange
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Generator{sampler: NewSampler(cfg.Seed), customers: customers, now: now}
}

// ProductName renders a product id the way records carry it.
func ProductName(id string) string { return "Product " + id }

// GenerateBatch returns exactly nRows records of one product and label sharing ts.
func (g *Generator) GenerateBatch(dists DistributionSet, product string, label int, ts time.Time, nRows int) (Batch, error) {
	sampling, err := SamplingFor(dists, product, label)
	if err != nil {
		return Batch{}, err
	}
	name := ProductName(product)
	records := make([]models.TransactionRecord, 0, max(nRows, 0))
	for range nRows {
		records = append(records, models.TransactionRecord{
			CustomerID:           g.sampler.CustomerID(g.customers),
			TransactionTimestamp: ts,
			Product:              name,
			Amount:               g.sampler.Amount(sampling),
			Label:                label,
		})
	}
	return Batch{Columns: models.TransactionColumns, Records: records}, nil
}
