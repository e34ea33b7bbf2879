// Package testutil provides shared test helpers for the scan packages.
package testutil

import (
	"math"
	"testing"

	"github.com/luftscan/luftscan/scan"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// ResultFromValues builds a ScanResult with one parameter column "p" equal
// to the row index and one observable column holding values. NaN entries
// become null observables.
func ResultFromValues(observable string, values []float64) *scan.ScanResult {
	res := scan.NewScanResult([]string{"p"}, []string{observable})
	for i, v := range values {
		obs := scan.Observables{observable: nil}
		if !math.IsNaN(v) {
			obs[observable] = scan.Float(v)
		}
		res.Rows = append(res.Rows, scan.EvaluationResult{
			Index:       i,
			Parameters:  scan.ParameterSet{"p": float64(i)},
			Observables: obs,
			Success:     true,
		})
	}
	return res
}
