package synth

import (
	"fmt"
	"slices"
)

// ProductDistributionSpec holds the amount parameters of one product.
// Fraud amounts follow Beta(Alpha, Beta) over [Min, Max]; legitimate amounts sit around Mean.
type ProductDistributionSpec struct {
	Product string
	Min     float64
	Max     float64
	Mean    float64
	Alpha   float64
	Beta    float64
}

func (p ProductDistributionSpec) validate() error {
	if p.Product == "" {
		return fmt.Errorf("product id is empty")
	}
	if p.Min >= p.Max {
		return fmt.Errorf("product %s: min %.2f must be below max %.2f", p.Product, p.Min, p.Max)
	}
	if p.Alpha <= 0 || p.Beta <= 0 {
		return fmt.Errorf("product %s: alpha and beta must be positive", p.Product)
	}
	return nil
}

// CustomerRange bounds customer ids, both ends inclusive.
type CustomerRange struct {
	Min int
	Max int
}

var DefaultCustomerRange = CustomerRange{Min: 1234, Max: 1260}

// DistributionSet is an immutable collection of product specs. It is swapped as a whole, never edited.
type DistributionSet struct {
	name  string
	specs map[string]ProductDistributionSpec
	order []string
}

// NewDistributionSet validates specs and freezes them into a set.
func NewDistributionSet(name string, specs ...ProductDistributionSpec) (DistributionSet, error) {
	set := DistributionSet{name: name, specs: make(map[string]ProductDistributionSpec, len(specs))}
	for _, s := range specs {
		if err := s.validate(); err != nil {
			return DistributionSet{}, err
		}
		if _, dup := set.specs[s.Product]; dup {
			return DistributionSet{}, fmt.Errorf("product %s defined twice", s.Product)
		}
		set.specs[s.Product] = s
		set.order = append(set.order, s.Product)
	}
	return set, nil
}

func mustDistributionSet(name string, specs ...ProductDistributionSpec) DistributionSet {
	set, err := NewDistributionSet(name, specs...)
	if err != nil {
		panic(err)
	}
	return set
}

func (d DistributionSet) Name() string { return d.name }

// Spec looks up the parameters of a product.
func (d DistributionSet) Spec(product string) (ProductDistributionSpec, bool) {
	s, ok := d.specs[product]
	return s, ok
}

// Products lists product ids in definition order.
func (d DistributionSet) Products() []string { return slices.Clone(d.order) }

// BaselineDistributions is the initial parameter set.
func BaselineDistributions() DistributionSet {
	return mustDistributionSet("baseline",
		ProductDistributionSpec{Product: "A", Min: 1000, Max: 25001, Mean: 15520, Alpha: 4, Beta: 10},
		ProductDistributionSpec{Product: "B", Min: 1000, Max: 5501, Mean: 35520, Alpha: 10, Beta: 4},
		ProductDistributionSpec{Product: "C", Min: 10000, Max: 40001, Mean: 30520, Alpha: 3, Beta: 10},
	)
}

// ShiftedDistributions narrows the gap between fraud and legitimate amounts.
func ShiftedDistributions() DistributionSet {
	return mustDistributionSet("shifted",
		ProductDistributionSpec{Product: "A", Min: 1000, Max: 25001, Mean: 15520, Alpha: 4, Beta: 8},
		ProductDistributionSpec{Product: "B", Min: 1000, Max: 5501, Mean: 35520, Alpha: 8, Beta: 4},
		ProductDistributionSpec{Product: "C", Min: 10000, Max: 40001, Mean: 30520, Alpha: 3, Beta: 8},
	)
}
