package scan

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultMaxWorkers caps the default worker count to avoid oversubscription.
const DefaultMaxWorkers = 8

// OrchestratorConfig sizes the worker pool.
// Zero values select the defaults; negative values are rejected.
type OrchestratorConfig struct {
	Workers    int // 0 = min(runtime.NumCPU(), MaxWorkers)
	MaxWorkers int // 0 = DefaultMaxWorkers
}

// ResolveWorkers returns the effective worker count for cfg.
func ResolveWorkers(cfg OrchestratorConfig) (int, error) {
	if cfg.Workers < 0 {
		return 0, fmt.Errorf("%w: workers must be >= 0, got %d", ErrDispatch, cfg.Workers)
	}
	if cfg.MaxWorkers < 0 {
		return 0, fmt.Errorf("%w: max_workers must be >= 0, got %d", ErrDispatch, cfg.MaxWorkers)
	}
	if cfg.Workers > 0 {
		return cfg.Workers, nil
	}
	ceiling := cfg.MaxWorkers
	if ceiling == 0 {
		ceiling = DefaultMaxWorkers
	}
	return min(runtime.NumCPU(), ceiling), nil
}

// job is one index-tagged unit of work.
type job struct {
	index  int
	params ParameterSet
}

// Orchestrator fans parameter sets out to a pool of workers and collects
// the results in submission order.
type Orchestrator struct {
	evaluator *Evaluator
	workers   int
}

// NewOrchestrator creates an Orchestrator around ev.
func NewOrchestrator(ev *Evaluator, cfg OrchestratorConfig) (*Orchestrator, error) {
	if ev == nil {
		return nil, fmt.Errorf("%w: orchestrator requires an evaluator", ErrDispatch)
	}
	workers, err := ResolveWorkers(cfg)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{evaluator: ev, workers: workers}, nil
}

// Workers returns the resolved worker count.
func (o *Orchestrator) Workers() int {
	return o.workers
}

// Run evaluates every parameter set and blocks until all are done.
// Rows[i] of the returned ScanResult corresponds to sets[i] regardless of
// completion order. Per-sample failures are recorded in their rows.
// parameters names the parameter columns; nil uses the sorted keys of sets.
func (o *Orchestrator) Run(parameters []string, sets []ParameterSet) (*ScanResult, error) {
	if parameters == nil {
		parameters = parameterKeys(sets)
	}
	result := NewScanResult(parameters, o.evaluator.Requested())
	if len(sets) == 0 {
		return result, nil
	}

	workers := min(o.workers, len(sets))
	logrus.Infof("Starting parameter scan with %d samples using %d workers (objective=%s)",
		len(sets), workers, o.evaluator.Objective().Name())
	start := time.Now()

	rows := make([]EvaluationResult, len(sets))
	jobs := make(chan job)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				rows[j.index] = o.evaluator.Evaluate(j.index, j.params)
			}
		}()
	}

	for i, ps := range sets {
		jobs <- job{index: i, params: ps}
	}
	close(jobs)
	wg.Wait()

	result.Rows = rows
	logrus.Infof("Parameter scan complete: %d/%d succeeded in %v",
		result.SuccessCount(), result.Len(), time.Since(start))
	return result, nil
}

func parameterKeys(sets []ParameterSet) []string {
	seen := make(map[string]bool)
	keys := make([]string, 0)
	for _, ps := range sets {
		for k := range ps {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

// SampleIndependent draws n independent parameter sets using the given
// number of workers. Worker w draws a contiguous chunk from its own stream
// ForSubsystem(SubsystemWorker(w)), so streams never overlap and the output
// is deterministic for a fixed (key, workers) pair.
func SampleIndependent(priors []PriorSpec, n int, key SimulationKey, workers int) ([]ParameterSet, error) {
	if err := ValidatePriors(priors); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("sample count must be >= 1, got %d", n)
	}
	if workers < 1 {
		return nil, fmt.Errorf("%w: workers must be >= 1, got %d", ErrDispatch, workers)
	}
	workers = min(workers, n)

	// Streams are derived here, on one goroutine; PartitionedRNG is not thread-safe.
	prng := NewPartitionedRNG(key)
	samplers := make([]*Sampler, workers)
	for w := range samplers {
		s, err := NewSampler(priors, prng.ForSubsystem(SubsystemWorker(w)))
		if err != nil {
			return nil, err
		}
		samplers[w] = s
	}

	sets := make([]ParameterSet, n)
	errs := make([]error, workers)
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, n)
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				ps, err := samplers[w].DrawIndependent()
				if err != nil {
					errs[w] = err
					return
				}
				sets[i] = ps
			}
		}(w, lo, hi)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return sets, nil
}
