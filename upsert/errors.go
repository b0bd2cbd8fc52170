package upsert

import "fmt"

// Step identifies the phase of an upsert call that failed.
type Step string

const (
	StepStaging Step = "staging"
	StepLoad    Step = "load"
	StepMerge   Step = "merge"
)

// StepError reports which phase of the staging protocol failed. A failed
// staging-table drop after a committed merge is never a StepError; it is
// logged as a warning instead.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
