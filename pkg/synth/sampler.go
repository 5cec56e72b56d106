package synth

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	LabelLegit = 0
	LabelFraud = 1

	legitStdDev = 0.001
	pcgStream   = 0x9e3779b97f4a7c15
)

var ErrUnknownProduct = errors.New("unknown product")

type SamplingKind int

const (
	SamplingBeta SamplingKind = iota
	SamplingNormal
)

func (k SamplingKind) String() string {
	if k == SamplingBeta {
		return "beta"
	}
	return "normal"
}

// AmountSampling describes how the amount of one (product, label) pair is drawn.
type AmountSampling struct {
	Kind   SamplingKind
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Alpha  float64
	Beta   float64
}

// SamplingFor resolves the sampling parameters for a product and label.
func SamplingFor(dists DistributionSet, product string, label int) (AmountSampling, error) {
	spec, ok := dists.Spec(product)
	if !ok {
		return AmountSampling{}, fmt.Errorf("%w: %q in %s set", ErrUnknownProduct, product, dists.Name())
	}
	a := AmountSampling{Min: spec.Min, Max: spec.Max}
	if label == LabelFraud {
		a.Kind = SamplingBeta
		a.Alpha = spec.Alpha
		a.Beta = spec.Beta
		return a, nil
	}
	a.Kind = SamplingNormal
	a.Mean = spec.Mean
	a.StdDev = legitStdDev
	return a, nil
}

// Sampler draws amounts and customer ids. Not safe for concurrent use.
type Sampler struct {
	src rand.Source
	rnd *rand.Rand
}

// NewSampler seeds a PCG source; seed 0 picks a time based seed.
func NewSampler(seed uint64) *Sampler {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	src := rand.NewPCG(seed, seed^pcgStream)
	return &Sampler{src: src, rnd: rand.New(src)}
}

// Amount draws one unscaled amount. Beta draws are mapped onto [Min, Max];
// normal draws are clamped into it.
func (s *Sampler) Amount(a AmountSampling) float64 {
	switch a.Kind {
	case SamplingBeta:
		x := distuv.Beta{Alpha: a.Alpha, Beta: a.Beta, Src: s.src}.Rand()
		return a.Min + x*(a.Max-a.Min)
	default:
		v := distuv.Normal{Mu: a.Mean, Sigma: a.StdDev, Src: s.src}.Rand()
		return min(max(v, a.Min), a.Max)
	}
}

// CustomerID draws uniformly from the inclusive range.
func (s *Sampler) CustomerID(r CustomerRange) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + s.rnd.IntN(r.Max-r.Min+1)
}
