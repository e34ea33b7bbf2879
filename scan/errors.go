package scan

import (
	"errors"
	"fmt"
)

// Domain errors for scan operations.
var (
	// ErrInvalidPrior indicates a malformed prior specification.
	ErrInvalidPrior = errors.New("scan: invalid prior")

	// ErrInsufficientData indicates too few valid rows for a statistic.
	ErrInsufficientData = errors.New("scan: insufficient data")

	// ErrInvalidObservable indicates a column absent from the result table.
	ErrInvalidObservable = errors.New("scan: invalid observable")

	// ErrDispatch indicates the worker pool could not be started.
	ErrDispatch = errors.New("scan: dispatch failed")

	// ErrUnknownObjective indicates an objective name with no registered factory.
	ErrUnknownObjective = errors.New("scan: unknown objective")
)

// PriorError wraps ErrInvalidPrior with the offending prior name.
type PriorError struct {
	Name   string
	Reason string
}

func (e *PriorError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%v: %s", ErrInvalidPrior, e.Reason)
	}
	return fmt.Sprintf("%v %q: %s", ErrInvalidPrior, e.Name, e.Reason)
}

func (e *PriorError) Unwrap() error {
	return ErrInvalidPrior
}

// EvaluationError records an objective failure for one sample.
// It never escapes the Evaluator; its message lands in EvaluationResult.Error.
type EvaluationError struct {
	Index   int
	Wrapped error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("sample %d: %v", e.Index, e.Wrapped)
}

func (e *EvaluationError) Unwrap() error {
	return e.Wrapped
}
