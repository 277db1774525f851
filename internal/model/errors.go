package model

import (
	"fmt"
)

// ValidationError signals that an input batch is empty, malformed, or
// missing required columns. Analysis stops immediately when raised.
type ValidationError struct {
	Reason string
	Index  int // offending record index, where applicable
}

func (e *ValidationError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("invalid input: %s (record %d)", e.Reason, e.Index)
	}
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// ComputationWarning signals a non-fatal numerical failure inside one
// analysis section. The section is dropped; the analysis continues.
type ComputationWarning struct {
	Section string
	Reason  string
}

func (e *ComputationWarning) Error() string {
	return fmt.Sprintf("%s: %s", e.Section, e.Reason)
}

// AnalyzerError wraps any unexpected failure escaping a top-level analyze
// call. It is the only error type that crosses the analysis boundary
// besides ValidationError.
type AnalyzerError struct {
	Op  string
	Err error
}

func (e *AnalyzerError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AnalyzerError) Unwrap() error {
	return e.Err
}
