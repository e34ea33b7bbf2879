package scan

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// ParameterSet maps parameter name to a sampled value, one entry per prior.
type ParameterSet map[string]float64

// Clone returns an independent copy of the parameter set.
func (ps ParameterSet) Clone() ParameterSet {
	c := make(ParameterSet, len(ps))
	for k, v := range ps {
		c[k] = v
	}
	return c
}

// Sampler draws parameter sets from a fixed collection of priors.
//
// Thread-safety: NOT thread-safe (it owns a *rand.Rand). Parallel callers
// should use SampleIndependent, which gives each worker its own stream.
type Sampler struct {
	priors []PriorSpec
	rng    *rand.Rand
}

// NewSampler validates the priors and returns a Sampler drawing from rng.
func NewSampler(priors []PriorSpec, rng *rand.Rand) (*Sampler, error) {
	if err := ValidatePriors(priors); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("sampler requires a non-nil rng")
	}
	cp := make([]PriorSpec, len(priors))
	copy(cp, priors)
	return &Sampler{priors: cp, rng: rng}, nil
}

// Dim returns the number of sampled dimensions.
func (s *Sampler) Dim() int {
	return len(s.priors)
}

// DrawIndependent samples every prior once, independently.
func (s *Sampler) DrawIndependent() (ParameterSet, error) {
	ps := make(ParameterSet, len(s.priors))
	for _, p := range s.priors {
		v, err := drawOne(p, s.rng)
		if err != nil {
			return nil, err
		}
		ps[p.Name] = v
	}
	return ps, nil
}

// DrawIndependentN returns n independent parameter sets.
func (s *Sampler) DrawIndependentN(n int) ([]ParameterSet, error) {
	if n < 1 {
		return nil, fmt.Errorf("sample count must be >= 1, got %d", n)
	}
	sets := make([]ParameterSet, n)
	for i := range sets {
		ps, err := s.DrawIndependent()
		if err != nil {
			return nil, err
		}
		sets[i] = ps
	}
	return sets, nil
}

// UnitHypercube returns the n×d Latin Hypercube pre-image. In every column
// the n values fall one per stratum [k/n, (k+1)/n), the stratum assignment
// is an independent uniform permutation per column, and each value is
// jittered uniformly within its stratum.
func (s *Sampler) UnitHypercube(n int) ([][]float64, error) {
	if n < 1 {
		return nil, fmt.Errorf("latin hypercube requires n >= 1, got %d", n)
	}
	d := len(s.priors)
	unit := make([][]float64, n)
	for i := range unit {
		unit[i] = make([]float64, d)
	}
	for j := 0; j < d; j++ {
		perm := s.rng.Perm(n)
		for i := 0; i < n; i++ {
			unit[i][j] = (float64(perm[i]) + s.rng.Float64()) / float64(n)
		}
	}
	return unit, nil
}

// LatinHypercube returns n parameter sets whose unit pre-images are
// stratified per dimension, mapped through each prior's inverse CDF.
func (s *Sampler) LatinHypercube(n int) ([]ParameterSet, error) {
	unit, err := s.UnitHypercube(n)
	if err != nil {
		return nil, err
	}
	sets := make([]ParameterSet, n)
	for i, row := range unit {
		ps := make(ParameterSet, len(s.priors))
		for j, p := range s.priors {
			v, err := Transform(p, row[j])
			if err != nil {
				return nil, err
			}
			ps[p.Name] = v
		}
		sets[i] = ps
	}
	return sets, nil
}

// Transform maps a unit-interval value u through the inverse CDF implied by
// the prior's kind: linear for uniform, log-linear for log_uniform and
// inverse-normal then clipped into [min, max] for gaussian.
func Transform(p PriorSpec, u float64) (float64, error) {
	switch p.Kind {
	case KindUniform:
		return p.Min + u*(p.Max-p.Min), nil
	case KindLogUniform:
		logMin, logMax := math.Log10(p.Min), math.Log10(p.Max)
		return math.Pow(10, logMin+u*(logMax-logMin)), nil
	case KindGaussian:
		if p.Mean == nil || p.Std == nil {
			return 0, &PriorError{Name: p.Name, Reason: "gaussian prior requires mean and std"}
		}
		u = math.Min(1, math.Max(0, u))
		v := distuv.Normal{Mu: *p.Mean, Sigma: *p.Std}.Quantile(u)
		return clip(v, p.Min, p.Max), nil
	default:
		return 0, &PriorError{Name: p.Name, Reason: fmt.Sprintf("unknown kind %q", p.Kind)}
	}
}

func drawOne(p PriorSpec, rng *rand.Rand) (float64, error) {
	switch p.Kind {
	case KindUniform:
		return p.Min + rng.Float64()*(p.Max-p.Min), nil
	case KindLogUniform:
		logMin, logMax := math.Log10(p.Min), math.Log10(p.Max)
		return math.Pow(10, logMin+rng.Float64()*(logMax-logMin)), nil
	case KindGaussian:
		if p.Mean == nil || p.Std == nil {
			return 0, &PriorError{Name: p.Name, Reason: "gaussian prior requires mean and std"}
		}
		val := rng.NormFloat64()*(*p.Std) + *p.Mean
		return clip(val, p.Min, p.Max), nil
	default:
		return 0, &PriorError{Name: p.Name, Reason: fmt.Sprintf("unknown kind %q", p.Kind)}
	}
}

// clip collapses out-of-range values onto the nearest bound.
func clip(v, min, max float64) float64 {
	return math.Min(max, math.Max(min, v))
}
