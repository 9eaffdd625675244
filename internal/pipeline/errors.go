package pipeline

import (
	"errors"
	"fmt"
)

// Stage names one step of a sync run.
type Stage string

const (
	StageInput   Stage = "input"
	StageFetch   Stage = "fetch"
	StageParse   Stage = "parse"
	StageMatch   Stage = "match"
	StagePersist Stage = "persist"
	StageReport  Stage = "report"
)

// StageError is a top-level failure that ended a run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage an error came from, or "" when err did not
// come out of Run.
func FailedStage(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
