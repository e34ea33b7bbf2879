package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luftscan/luftscan/scan"
	"github.com/luftscan/luftscan/scan/internal/testutil"
)

func TestSummarize_CountsAndMoments(t *testing.T) {
	// GIVEN four rows, one null and one failed
	result := testutil.ResultFromValues("z", []float64{1, 2, 3, math.NaN()})
	result.Rows[3].Success = false
	result.Rows[3].Error = "boom"

	// WHEN summarizing
	s := Summarize(result)

	// THEN success counts and per-observable statistics are reported
	assert.Equal(t, 4, s.TotalSamples)
	assert.Equal(t, 3, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.InDelta(t, 0.75, s.SuccessRate, 1e-12)

	require.Len(t, s.Observables, 1)
	z := s.Observables[0]
	assert.Equal(t, "z", z.Name)
	assert.Equal(t, 3, z.Count)
	testutil.AssertFloat64Equal(t, "mean", 2, z.Mean, 1e-12)
	testutil.AssertFloat64Equal(t, "std", 1, z.StdDev, 1e-12)
	assert.Equal(t, 1.0, z.Min)
	assert.Equal(t, 3.0, z.Max)
}

func TestSummarize_NilAndEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.TotalSamples)
	assert.Empty(t, s.Observables)

	s = Summarize(scan.NewScanResult([]string{"a"}, []string{"z"}))
	assert.Equal(t, 0.0, s.SuccessRate)
	require.Len(t, s.Observables, 1)
	assert.Equal(t, 0, s.Observables[0].Count)
}
