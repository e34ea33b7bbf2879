package scan

// EvaluationResult is the outcome of evaluating one parameter set.
// Error is empty when Success is true.
type EvaluationResult struct {
	Index       int
	Parameters  ParameterSet
	Observables Observables
	Success     bool
	Error       string
}

// Value returns the named observable and whether it is defined.
func (r EvaluationResult) Value(name string) (float64, bool) {
	v, ok := r.Observables[name]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// ScanResult is the ordered table produced by one scan.
// Rows[i] corresponds to the i-th submitted parameter set.
type ScanResult struct {
	Parameters  []string // parameter columns, in prior order
	Observables []string // observable columns, in requested order
	Rows        []EvaluationResult
}

// NewScanResult creates an empty ScanResult with the given columns.
func NewScanResult(parameters, observables []string) *ScanResult {
	return &ScanResult{
		Parameters:  append([]string(nil), parameters...),
		Observables: append([]string(nil), observables...),
		Rows:        make([]EvaluationResult, 0),
	}
}

// Len returns the number of rows.
func (s *ScanResult) Len() int {
	return len(s.Rows)
}

// SuccessCount returns the number of rows whose evaluation succeeded.
func (s *ScanResult) SuccessCount() int {
	n := 0
	for _, r := range s.Rows {
		if r.Success {
			n++
		}
	}
	return n
}

// HasParameter reports whether name is a parameter column.
func (s *ScanResult) HasParameter(name string) bool {
	return contains(s.Parameters, name)
}

// HasObservable reports whether name is an observable column.
func (s *ScanResult) HasObservable(name string) bool {
	return contains(s.Observables, name)
}

// Column returns the values of a parameter or observable column with a
// validity mask. ok is false if the column does not exist.
func (s *ScanResult) Column(name string) (values []float64, valid []bool, ok bool) {
	isParam := s.HasParameter(name)
	if !isParam && !s.HasObservable(name) {
		return nil, nil, false
	}
	values = make([]float64, len(s.Rows))
	valid = make([]bool, len(s.Rows))
	for i, r := range s.Rows {
		if isParam {
			values[i], valid[i] = r.Parameters[name]
			continue
		}
		values[i], valid[i] = r.Value(name)
	}
	return values, valid, true
}

func contains(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}
