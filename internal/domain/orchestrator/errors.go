package orchestrator

import (
	"errors"
	"fmt"
)

// Stage names a step of the build.
type Stage string

const (
	StageGenerate Stage = "generate"
	StageCompile  Stage = "compile"
)

// StageError is a fatal failure of one build stage. Err carries the
// underlying tool error, including its diagnostic output.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s parser: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailedStage returns the stage err originated from, or "" when err is not
// a stage failure.
func FailedStage(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
