package cmd

import "fmt"

// ValidationFailedError carries the failed-check count out of the check
// command so Execute exits non-zero without re-printing the whole summary.
type ValidationFailedError struct {
	Failed int
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("validation failed: %d checks failed", e.Failed)
}

// NoModulesSelectedError signals a selector combination that matched
// nothing.
type NoModulesSelectedError struct{}

func (e *NoModulesSelectedError) Error() string {
	return "no check modules selected"
}
