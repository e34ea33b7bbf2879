package scan

import (
	"fmt"
	"sort"
	"sync"
)

// Observables maps observable name to value. A nil entry means the
// observable is undefined for the evaluated configuration.
type Observables map[string]*float64

// Float returns a pointer to v, for building Observables literals.
func Float(v float64) *float64 {
	return &v
}

// Objective is the black-box model consumed by the scan engine.
//
// Evaluate must be a pure function of its input: the Orchestrator calls it
// concurrently from several goroutines with no locking.
type Objective interface {
	// Name identifies the objective in configs and exported headers.
	Name() string
	// Observables lists every observable name Evaluate can produce.
	Observables() []string
	// Evaluate computes observables for one parameter set, or returns a
	// domain error for an invalid configuration.
	Evaluate(params ParameterSet) (Observables, error)
}

// ObjectiveFunc adapts a plain function to the Objective interface.
type ObjectiveFunc struct {
	ID    string
	Names []string
	Fn    func(params ParameterSet) (Observables, error)
}

func (f ObjectiveFunc) Name() string {
	return f.ID
}

func (f ObjectiveFunc) Observables() []string {
	out := make([]string, len(f.Names))
	copy(out, f.Names)
	return out
}

func (f ObjectiveFunc) Evaluate(params ParameterSet) (Observables, error) {
	return f.Fn(params)
}

// ObjectiveFactory builds a fresh Objective.
type ObjectiveFactory func() Objective

var (
	registryMu sync.RWMutex
	registry   = make(map[string]ObjectiveFactory)
)

// RegisterObjective makes an objective available by name. Sub-packages call
// it from init(). Registering the same name twice panics.
func RegisterObjective(name string, factory ObjectiveFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if factory == nil {
		panic("scan: RegisterObjective factory is nil")
	}
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("scan: RegisterObjective called twice for %q", name))
	}
	registry[name] = factory
}

// NewObjective builds the registered objective with the given name.
func NewObjective(name string) (Objective, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q; registered: %v", ErrUnknownObjective, name, ObjectiveNames())
	}
	return factory(), nil
}

// ObjectiveNames returns the registered objective names, sorted.
func ObjectiveNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PriorProvider is implemented by objectives that ship default priors,
// used when a scan spec names no priors of its own.
type PriorProvider interface {
	DefaultPriors() []PriorSpec
}

// DefaultPriors returns obj's default priors, if it provides any.
func DefaultPriors(obj Objective) ([]PriorSpec, bool) {
	pp, ok := obj.(PriorProvider)
	if !ok {
		return nil, false
	}
	return pp.DefaultPriors(), true
}
