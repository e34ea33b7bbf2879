// Package analysis extracts statistical structure from a scan.ScanResult:
// parameter/observable correlations, sensitivity rankings and best-fit
// searches. It never mutates the result it reads.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/luftscan/luftscan/scan"
)

const (
	// MinCorrelationRows is the fewest valid rows for which a Pearson
	// coefficient is defined.
	MinCorrelationRows = 2

	// MinSensitivityRows is the fewest valid rows for a sensitivity ranking.
	MinSensitivityRows = 10

	// MinMatrixRows is the row count an observable must exceed to appear in
	// CorrelationMatrix.
	MinMatrixRows = 10
)

// Correlation is the Pearson coefficient between a parameter and an observable.
type Correlation struct {
	Parameter   string
	Coefficient float64
}

// SensitivityReport ranks parameters by |r| against one observable.
// Warning is set (and Ranking empty) when too few valid rows exist.
type SensitivityReport struct {
	Observable string
	ValidRows  int
	Ranking    []Correlation
	Warning    string
}

// BestFit is one row selected by FindBestFits.
type BestFit struct {
	Row      int
	Value    float64
	Distance float64
	Result   scan.EvaluationResult
}

// Analyzer computes statistics over a ScanResult.
type Analyzer struct {
	result *scan.ScanResult
}

// New creates an Analyzer over result.
func New(result *scan.ScanResult) *Analyzer {
	if result == nil {
		result = scan.NewScanResult(nil, nil)
	}
	return &Analyzer{result: result}
}

// Correlate returns the Pearson coefficient between every parameter column
// and the named observable, over rows where the observable is non-null.
// Undefined coefficients (zero-variance columns) are omitted.
func (a *Analyzer) Correlate(observable string) ([]Correlation, error) {
	rows, err := a.validRows(observable)
	if err != nil {
		return nil, err
	}
	if len(rows) < MinCorrelationRows {
		return nil, fmt.Errorf("%w: correlation of %q needs >= %d valid rows, got %d",
			scan.ErrInsufficientData, observable, MinCorrelationRows, len(rows))
	}
	return a.correlateRows(observable, rows), nil
}

// CorrelateColumns returns the Pearson coefficient between two columns
// (parameter or observable) over rows where both are defined.
func (a *Analyzer) CorrelateColumns(x, y string) (float64, error) {
	xs, xValid, ok := a.result.Column(x)
	if !ok {
		return math.NaN(), fmt.Errorf("%w %q", scan.ErrInvalidObservable, x)
	}
	ys, yValid, ok := a.result.Column(y)
	if !ok {
		return math.NaN(), fmt.Errorf("%w %q", scan.ErrInvalidObservable, y)
	}
	var xv, yv []float64
	for i := range xs {
		if xValid[i] && yValid[i] {
			xv = append(xv, xs[i])
			yv = append(yv, ys[i])
		}
	}
	if len(xv) < MinCorrelationRows {
		return math.NaN(), fmt.Errorf("%w: correlation of %q and %q needs >= %d valid rows, got %d",
			scan.ErrInsufficientData, x, y, MinCorrelationRows, len(xv))
	}
	return stat.Correlation(xv, yv, nil), nil
}

// Sensitivity ranks parameters by the absolute value of their correlation
// with the observable, descending. With fewer than MinSensitivityRows valid
// rows the ranking is empty and Warning explains why; this is not an error.
func (a *Analyzer) Sensitivity(observable string) (SensitivityReport, error) {
	rows, err := a.validRows(observable)
	if err != nil {
		return SensitivityReport{}, err
	}
	report := SensitivityReport{Observable: observable, ValidRows: len(rows), Ranking: []Correlation{}}
	if len(rows) < MinSensitivityRows {
		report.Warning = fmt.Sprintf("insufficient data for sensitivity analysis of %q (%d points, need %d)",
			observable, len(rows), MinSensitivityRows)
		logrus.Warn(report.Warning)
		return report, nil
	}

	for _, c := range a.correlateRows(observable, rows) {
		report.Ranking = append(report.Ranking, Correlation{Parameter: c.Parameter, Coefficient: math.Abs(c.Coefficient)})
	}
	sort.SliceStable(report.Ranking, func(i, j int) bool {
		return report.Ranking[i].Coefficient > report.Ranking[j].Coefficient
	})
	return report, nil
}

// FindBestFits returns up to k rows with a non-null observable, ranked by
// |value - target| ascending. Ties keep original row order.
func (a *Analyzer) FindBestFits(observable string, target float64, k int) ([]BestFit, error) {
	rows, err := a.validRows(observable)
	if err != nil {
		return nil, err
	}
	fits := make([]BestFit, 0, len(rows))
	for _, i := range rows {
		r := a.result.Rows[i]
		v, _ := r.Value(observable)
		fits = append(fits, BestFit{Row: i, Value: v, Distance: math.Abs(v - target), Result: r})
	}
	sort.SliceStable(fits, func(i, j int) bool {
		return fits[i].Distance < fits[j].Distance
	})
	if k < 0 {
		k = 0
	}
	if k < len(fits) {
		fits = fits[:k]
	}
	return fits, nil
}

// CorrelationMatrix returns, for every observable with more than
// MinMatrixRows valid rows, its parameter correlations.
func (a *Analyzer) CorrelationMatrix() map[string][]Correlation {
	matrix := make(map[string][]Correlation)
	for _, obs := range a.result.Observables {
		rows, err := a.validRows(obs)
		if err != nil || len(rows) <= MinMatrixRows {
			continue
		}
		matrix[obs] = a.correlateRows(obs, rows)
	}
	return matrix
}

// validRows returns the indices of rows where observable is non-null.
func (a *Analyzer) validRows(observable string) ([]int, error) {
	if !a.result.HasObservable(observable) {
		return nil, fmt.Errorf("%w %q not found in results; columns: %v",
			scan.ErrInvalidObservable, observable, a.result.Observables)
	}
	rows := make([]int, 0, len(a.result.Rows))
	for i, r := range a.result.Rows {
		if _, ok := r.Value(observable); ok {
			rows = append(rows, i)
		}
	}
	return rows, nil
}

func (a *Analyzer) correlateRows(observable string, rows []int) []Correlation {
	ys := make([]float64, len(rows))
	for k, i := range rows {
		ys[k], _ = a.result.Rows[i].Value(observable)
	}
	out := make([]Correlation, 0, len(a.result.Parameters))
	xs := make([]float64, len(rows))
	for _, param := range a.result.Parameters {
		for k, i := range rows {
			xs[k] = a.result.Rows[i].Parameters[param]
		}
		r := stat.Correlation(xs, ys, nil)
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		out = append(out, Correlation{Parameter: param, Coefficient: r})
	}
	return out
}
