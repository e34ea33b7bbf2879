package scan

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Evaluator invokes an Objective for one parameter set and normalizes the
// outcome into an EvaluationResult. Objective failures never escape it.
type Evaluator struct {
	objective Objective
	requested []string
}

// NewEvaluator creates an Evaluator for the requested observables.
// An empty request selects every observable the objective produces.
func NewEvaluator(obj Objective, requested []string) (*Evaluator, error) {
	if obj == nil {
		return nil, fmt.Errorf("evaluator requires a non-nil objective")
	}
	available := obj.Observables()
	if len(requested) == 0 {
		requested = available
	}
	for _, name := range requested {
		if !contains(available, name) {
			return nil, fmt.Errorf("%w %q for objective %q; available: %v", ErrInvalidObservable, name, obj.Name(), available)
		}
	}
	return &Evaluator{
		objective: obj,
		requested: append([]string(nil), requested...),
	}, nil
}

// Objective returns the wrapped objective.
func (e *Evaluator) Objective() Objective {
	return e.objective
}

// Requested returns the observable columns this evaluator fills.
func (e *Evaluator) Requested() []string {
	return append([]string(nil), e.requested...)
}

// Evaluate runs the objective on params. On failure (error or panic) the
// result has Success=false, every requested observable nil and Error set.
func (e *Evaluator) Evaluate(index int, params ParameterSet) EvaluationResult {
	res := EvaluationResult{
		Index:       index,
		Parameters:  params,
		Observables: make(Observables, len(e.requested)),
	}

	out, err := e.call(params)
	if err != nil {
		evalErr := &EvaluationError{Index: index, Wrapped: err}
		logrus.Debugf("evaluation failed: %v", evalErr)
		for _, name := range e.requested {
			res.Observables[name] = nil
		}
		res.Error = err.Error()
		return res
	}

	for _, name := range e.requested {
		v := out[name]
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			v = nil
		}
		if v != nil {
			v = Float(*v)
		}
		res.Observables[name] = v
	}
	res.Success = true
	return res
}

// call isolates a panicking objective as an ordinary error.
func (e *Evaluator) call(params ParameterSet) (out Observables, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("objective %q panicked: %v", e.objective.Name(), r)
		}
	}()
	return e.objective.Evaluate(params.Clone())
}
