package analysis

import (
	"gonum.org/v1/gonum/stat"

	"github.com/luftscan/luftscan/scan"
)

// ObservableSummary aggregates the defined values of one observable.
type ObservableSummary struct {
	Name   string
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summary aggregates statistics from a ScanResult.
type Summary struct {
	TotalSamples int
	Succeeded    int
	Failed       int
	SuccessRate  float64
	Observables  []ObservableSummary // in column order
}

// Summarize computes aggregate statistics from a ScanResult.
// Safe for nil or empty results (returns zero-value fields).
func Summarize(result *scan.ScanResult) *Summary {
	summary := &Summary{Observables: make([]ObservableSummary, 0)}
	if result == nil {
		return summary
	}

	summary.TotalSamples = result.Len()
	summary.Succeeded = result.SuccessCount()
	summary.Failed = summary.TotalSamples - summary.Succeeded
	if summary.TotalSamples > 0 {
		summary.SuccessRate = float64(summary.Succeeded) / float64(summary.TotalSamples)
	}

	for _, name := range result.Observables {
		values, valid, _ := result.Column(name)
		defined := make([]float64, 0, len(values))
		for i, v := range values {
			if valid[i] {
				defined = append(defined, v)
			}
		}
		s := ObservableSummary{Name: name, Count: len(defined)}
		if len(defined) > 0 {
			s.Mean = stat.Mean(defined, nil)
			s.Min, s.Max = defined[0], defined[0]
			for _, v := range defined {
				s.Min = min(s.Min, v)
				s.Max = max(s.Max, v)
			}
		}
		if len(defined) > 1 {
			s.StdDev = stat.StdDev(defined, nil)
		}
		summary.Observables = append(summary.Observables, s)
	}
	return summary
}
