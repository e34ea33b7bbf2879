package scan

import (
	"errors"
	"math/rand"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(t *testing.T, obj Objective, workers int) *Orchestrator {
	t.Helper()
	ev, err := NewEvaluator(obj, nil)
	require.NoError(t, err)
	o, err := NewOrchestrator(ev, OrchestratorConfig{Workers: workers})
	require.NoError(t, err)
	return o
}

func TestResolveWorkers(t *testing.T) {
	tests := []struct {
		name    string
		cfg     OrchestratorConfig
		want    int
		wantErr bool
	}{
		{"explicit", OrchestratorConfig{Workers: 3}, 3, false},
		{"explicit above ceiling", OrchestratorConfig{Workers: 32, MaxWorkers: 4}, 32, false},
		{"default", OrchestratorConfig{}, min(runtime.NumCPU(), DefaultMaxWorkers), false},
		{"default with ceiling 1", OrchestratorConfig{MaxWorkers: 1}, 1, false},
		{"negative workers", OrchestratorConfig{Workers: -1}, 0, true},
		{"negative ceiling", OrchestratorConfig{MaxWorkers: -1}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveWorkers(tt.cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrDispatch)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewOrchestrator_RequiresEvaluator(t *testing.T) {
	_, err := NewOrchestrator(nil, OrchestratorConfig{})
	assert.ErrorIs(t, err, ErrDispatch)
}

func TestRun_PreservesSubmissionOrder(t *testing.T) {
	// GIVEN an objective with random latency, so completion order is shuffled
	var seed int64
	obj := ObjectiveFunc{ID: "slow-echo", Names: []string{"echo"}, Fn: func(ps ParameterSet) (Observables, error) {
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		time.Sleep(time.Duration(r.Intn(3000)) * time.Microsecond)
		return Observables{"echo": Float(ps["i"])}, nil
	}}
	o := newTestOrchestrator(t, obj, 8)

	sets := make([]ParameterSet, 100)
	for i := range sets {
		sets[i] = ParameterSet{"i": float64(i)}
	}

	// WHEN running the scan
	result, err := o.Run(nil, sets)
	require.NoError(t, err)

	// THEN row i carries parameter set i and its observable
	require.Equal(t, 100, result.Len())
	assert.Equal(t, []string{"i"}, result.Parameters)
	for i, r := range result.Rows {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, float64(i), r.Parameters["i"])
		v, ok := r.Value("echo")
		require.True(t, ok)
		assert.Equal(t, float64(i), v)
	}
}

func TestRun_FailureIsolation(t *testing.T) {
	// GIVEN 50 samples where exactly one fails
	obj := ObjectiveFunc{ID: "one-bad", Names: []string{"x"}, Fn: func(ps ParameterSet) (Observables, error) {
		if ps["i"] == 17 {
			return nil, errors.New("unphysical configuration")
		}
		return Observables{"x": Float(ps["i"] * 2)}, nil
	}}
	o := newTestOrchestrator(t, obj, 4)
	sets := make([]ParameterSet, 50)
	for i := range sets {
		sets[i] = ParameterSet{"i": float64(i)}
	}

	// WHEN running the scan
	result, err := o.Run([]string{"i"}, sets)
	require.NoError(t, err)

	// THEN 49 rows succeed and only row 17 is marked failed
	assert.Equal(t, 50, result.Len())
	assert.Equal(t, 49, result.SuccessCount())
	bad := result.Rows[17]
	assert.False(t, bad.Success)
	assert.Contains(t, bad.Error, "unphysical")
	assert.Nil(t, bad.Observables["x"])
	v, ok := result.Rows[18].Value("x")
	require.True(t, ok)
	assert.Equal(t, 36.0, v)
}

func TestRun_EmptyInput(t *testing.T) {
	o := newTestOrchestrator(t, sumObjective, 2)
	result, err := o.Run([]string{"a", "b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Len())
	assert.Equal(t, []string{"s", "q"}, result.Observables)
}

func TestRun_SingleWorkerMatchesParallel(t *testing.T) {
	sets := make([]ParameterSet, 40)
	for i := range sets {
		sets[i] = ParameterSet{"a": float64(i), "b": float64(i + 1)}
	}
	serial, err := newTestOrchestrator(t, sumObjective, 1).Run(nil, sets)
	require.NoError(t, err)
	parallel, err := newTestOrchestrator(t, sumObjective, 6).Run(nil, sets)
	require.NoError(t, err)
	assert.Equal(t, serial, parallel)
}

func TestSampleIndependent_DeterministicPerWorkerCount(t *testing.T) {
	priors := []PriorSpec{Uniform("a", 0, 1), LogUniform("b", 1e-3, 1)}
	key := NewSimulationKey(42)

	a, err := SampleIndependent(priors, 101, key, 4)
	require.NoError(t, err)
	b, err := SampleIndependent(priors, 101, key, 4)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	require.Len(t, a, 101)
	for _, ps := range a {
		require.NotNil(t, ps)
		assert.True(t, ps["a"] >= 0 && ps["a"] <= 1)
	}
}

func TestSampleIndependent_WorkerStreamsDoNotOverlap(t *testing.T) {
	priors := []PriorSpec{Uniform("a", 0, 1)}
	sets, err := SampleIndependent(priors, 20, NewSimulationKey(1), 2)
	require.NoError(t, err)

	seen := make(map[float64]bool)
	for _, ps := range sets {
		assert.False(t, seen[ps["a"]], "duplicate draw %v across workers", ps["a"])
		seen[ps["a"]] = true
	}
}

func TestSampleIndependent_RejectsBadInput(t *testing.T) {
	priors := []PriorSpec{Uniform("a", 0, 1)}
	_, err := SampleIndependent(priors, 0, NewSimulationKey(1), 1)
	assert.Error(t, err)
	_, err = SampleIndependent(priors, 10, NewSimulationKey(1), 0)
	assert.ErrorIs(t, err, ErrDispatch)
	_, err = SampleIndependent(nil, 10, NewSimulationKey(1), 1)
	assert.ErrorIs(t, err, ErrInvalidPrior)
}
