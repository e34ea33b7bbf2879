package scan

import (
	"fmt"
	"math"
)

// Kind names the sampling distribution of a prior.
type Kind string

const (
	KindUniform    Kind = "uniform"
	KindLogUniform Kind = "log_uniform"
	KindGaussian   Kind = "gaussian"
)

// validKinds is the closed set of recognized prior kinds.
var validKinds = map[Kind]bool{
	KindUniform:    true,
	KindLogUniform: true,
	KindGaussian:   true,
}

// IsValidKind returns true if the given kind string is a recognized prior kind.
func IsValidKind(kind string) bool {
	return validKinds[Kind(kind)]
}

// PriorSpec describes the sampling distribution of one parameter.
// Mean and Std are only meaningful for KindGaussian.
type PriorSpec struct {
	Name string   `yaml:"name"`
	Kind Kind     `yaml:"kind"`
	Min  float64  `yaml:"min"`
	Max  float64  `yaml:"max"`
	Mean *float64 `yaml:"mean,omitempty"`
	Std  *float64 `yaml:"std,omitempty"`
}

// Uniform returns a uniform prior over [min, max].
func Uniform(name string, min, max float64) PriorSpec {
	return PriorSpec{Name: name, Kind: KindUniform, Min: min, Max: max}
}

// LogUniform returns a prior uniform in log10 space over [min, max].
func LogUniform(name string, min, max float64) PriorSpec {
	return PriorSpec{Name: name, Kind: KindLogUniform, Min: min, Max: max}
}

// Gaussian returns a normal prior clipped into [min, max].
func Gaussian(name string, mean, std, min, max float64) PriorSpec {
	return PriorSpec{Name: name, Kind: KindGaussian, Min: min, Max: max, Mean: &mean, Std: &std}
}

// Validate checks the prior invariants. The returned error wraps ErrInvalidPrior.
func (p PriorSpec) Validate() error {
	if p.Name == "" {
		return &PriorError{Reason: "name is required"}
	}
	if !IsValidKind(string(p.Kind)) {
		return &PriorError{Name: p.Name, Reason: fmt.Sprintf("unknown kind %q; valid: uniform, log_uniform, gaussian", p.Kind)}
	}
	if err := validateFinite(p.Name, "min", p.Min); err != nil {
		return err
	}
	if err := validateFinite(p.Name, "max", p.Max); err != nil {
		return err
	}
	if p.Min >= p.Max {
		return &PriorError{Name: p.Name, Reason: fmt.Sprintf("min (%g) must be less than max (%g)", p.Min, p.Max)}
	}
	switch p.Kind {
	case KindLogUniform:
		if p.Min <= 0 {
			return &PriorError{Name: p.Name, Reason: fmt.Sprintf("log_uniform bounds must be positive, got min %g", p.Min)}
		}
	case KindGaussian:
		if p.Mean == nil || p.Std == nil {
			return &PriorError{Name: p.Name, Reason: "gaussian prior requires mean and std"}
		}
		if err := validateFinite(p.Name, "mean", *p.Mean); err != nil {
			return err
		}
		if !(*p.Std > 0) || math.IsInf(*p.Std, 0) {
			return &PriorError{Name: p.Name, Reason: fmt.Sprintf("gaussian std must be positive and finite, got %g", *p.Std)}
		}
	}
	return nil
}

// ValidatePriors validates each prior and rejects empty or duplicate-named collections.
func ValidatePriors(priors []PriorSpec) error {
	if len(priors) == 0 {
		return &PriorError{Reason: "at least one prior is required"}
	}
	seen := make(map[string]bool, len(priors))
	for _, p := range priors {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.Name] {
			return &PriorError{Name: p.Name, Reason: "duplicate parameter name"}
		}
		seen[p.Name] = true
	}
	return nil
}

// PriorNames returns the parameter names in prior order.
func PriorNames(priors []PriorSpec) []string {
	names := make([]string, len(priors))
	for i, p := range priors {
		names[i] = p.Name
	}
	return names
}

func validateFinite(name, field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &PriorError{Name: name, Reason: fmt.Sprintf("%s must be finite, got %v", field, v)}
	}
	return nil
}
