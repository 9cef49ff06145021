package repair

import (
	"fmt"
	"strings"
)

// State is the position of the repair loop.
type State string

const (
	StateBuilding              State = "BUILDING"
	StateAttributableFailure   State = "ATTRIBUTABLE_FAILURE"
	StateSuccess               State = "SUCCESS"
	StateUnattributableFailure State = "UNATTRIBUTABLE_FAILURE"
	StateExhausted             State = "EXHAUSTED"
)

// Terminal reports whether the loop stops in s.
func (s State) Terminal() bool {
	switch s {
	case StateSuccess, StateUnattributableFailure, StateExhausted:
		return true
	}
	return false
}

// UnattributableBuildFailure is returned when a build fails without naming any
// source unit, e.g. on dependency resolution errors. It is never retried.
type UnattributableBuildFailure struct {
	Iteration int
	Output    string
}

func (e *UnattributableBuildFailure) Error() string {
	return fmt.Sprintf("build failed on attempt %d with no attributable source errors", e.Iteration)
}

// RepairExhausted is returned when every allowed build failed.
type RepairExhausted struct {
	Iterations int
	Failing    []string
	Output     string
}

func (e *RepairExhausted) Error() string {
	return fmt.Sprintf("build still failing after %d attempts (%d units: %s)",
		e.Iterations, len(e.Failing), strings.Join(e.Failing, ", "))
}
