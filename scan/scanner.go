package scan

import (
	"fmt"
)

// GenerateParameterSets produces spec.Samples parameter sets using the
// spec's sampling method and seed. The spec must already be validated.
func GenerateParameterSets(spec *ScanSpec) ([]ParameterSet, error) {
	key := NewSimulationKey(spec.Seed)
	switch spec.Method {
	case MethodLHS:
		sampler, err := NewSampler(spec.Priors, NewPartitionedRNG(key).ForSubsystem(SubsystemSampler))
		if err != nil {
			return nil, err
		}
		return sampler.LatinHypercube(spec.Samples)
	case MethodRandom:
		workers, err := ResolveWorkers(OrchestratorConfig{Workers: spec.Workers, MaxWorkers: spec.MaxWorkers})
		if err != nil {
			return nil, err
		}
		return SampleIndependent(spec.Priors, spec.Samples, key, workers)
	default:
		return nil, fmt.Errorf("unknown sampling method %q", spec.Method)
	}
}

// RunScan samples the spec's priors, evaluates obj over every sample in
// parallel and returns the ordered ScanResult.
func RunScan(spec *ScanSpec, obj Objective) (*ScanResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scan spec: %w", err)
	}
	ev, err := NewEvaluator(obj, spec.Observables)
	if err != nil {
		return nil, err
	}
	orch, err := NewOrchestrator(ev, OrchestratorConfig{Workers: spec.Workers, MaxWorkers: spec.MaxWorkers})
	if err != nil {
		return nil, err
	}
	sets, err := GenerateParameterSets(spec)
	if err != nil {
		return nil, err
	}
	return orch.Run(PriorNames(spec.Priors), sets)
}
