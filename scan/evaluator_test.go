package scan

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sumObjective returns s = a + b and q = a / b; it fails when a < 0.
var sumObjective = ObjectiveFunc{
	ID:    "sum",
	Names: []string{"s", "q"},
	Fn: func(ps ParameterSet) (Observables, error) {
		if ps["a"] < 0 {
			return nil, errors.New("a must be non-negative")
		}
		return Observables{"s": Float(ps["a"] + ps["b"]), "q": Float(ps["a"] / ps["b"])}, nil
	},
}

func TestNewEvaluator_DefaultsToAllObservables(t *testing.T) {
	ev, err := NewEvaluator(sumObjective, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"s", "q"}, ev.Requested())
}

func TestNewEvaluator_RejectsUnknownObservable(t *testing.T) {
	_, err := NewEvaluator(sumObjective, []string{"s", "nope"})
	assert.ErrorIs(t, err, ErrInvalidObservable)

	_, err = NewEvaluator(nil, nil)
	assert.Error(t, err)
}

func TestEvaluate_Success(t *testing.T) {
	ev, err := NewEvaluator(sumObjective, []string{"s"})
	require.NoError(t, err)

	res := ev.Evaluate(3, ParameterSet{"a": 1, "b": 2})

	assert.True(t, res.Success)
	assert.Empty(t, res.Error)
	assert.Equal(t, 3, res.Index)
	v, ok := res.Value("s")
	require.True(t, ok)
	assert.Equal(t, 3.0, v)
	_, present := res.Observables["q"]
	assert.False(t, present, "unrequested observables are not recorded")
}

func TestEvaluate_ObjectiveErrorBecomesFailedRow(t *testing.T) {
	ev, err := NewEvaluator(sumObjective, nil)
	require.NoError(t, err)

	res := ev.Evaluate(0, ParameterSet{"a": -1, "b": 2})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "non-negative")
	require.Len(t, res.Observables, 2)
	for name, v := range res.Observables {
		assert.Nil(t, v, "observable %s must be null on failure", name)
	}
}

func TestEvaluate_PanicIsIsolated(t *testing.T) {
	obj := ObjectiveFunc{ID: "boom", Names: []string{"x"}, Fn: func(ParameterSet) (Observables, error) {
		panic("lattice exploded")
	}}
	ev, err := NewEvaluator(obj, nil)
	require.NoError(t, err)

	res := ev.Evaluate(1, ParameterSet{"a": 1})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "lattice exploded")
}

func TestEvaluate_NonFiniteAndMissingBecomeNull(t *testing.T) {
	obj := ObjectiveFunc{ID: "nan", Names: []string{"nan", "inf", "missing", "ok"}, Fn: func(ParameterSet) (Observables, error) {
		return Observables{"nan": Float(math.NaN()), "inf": Float(math.Inf(1)), "ok": Float(1)}, nil
	}}
	ev, err := NewEvaluator(obj, nil)
	require.NoError(t, err)

	res := ev.Evaluate(0, ParameterSet{})

	assert.True(t, res.Success, "null observables do not fail the row")
	assert.Nil(t, res.Observables["nan"])
	assert.Nil(t, res.Observables["inf"])
	assert.Nil(t, res.Observables["missing"])
	v, ok := res.Value("ok")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestEvaluate_ObjectiveCannotMutateInput(t *testing.T) {
	obj := ObjectiveFunc{ID: "mut", Names: []string{"x"}, Fn: func(ps ParameterSet) (Observables, error) {
		ps["a"] = 100
		return Observables{"x": Float(0)}, nil
	}}
	ev, err := NewEvaluator(obj, nil)
	require.NoError(t, err)

	params := ParameterSet{"a": 1}
	res := ev.Evaluate(0, params)

	assert.Equal(t, 1.0, params["a"])
	assert.Equal(t, 1.0, res.Parameters["a"])
}
