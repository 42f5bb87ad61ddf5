package analysis

import (
	"errors"
	"fmt"

	"github.com/ternarybob/finanalyzer/internal/models"
)

var (
	// ErrIterationLimit is returned when a role exceeds its provider-call budget within one stage
	ErrIterationLimit = errors.New("iteration limit exceeded")

	// ErrStageAlreadyRecorded is returned when a stage result is written twice in one run
	ErrStageAlreadyRecorded = errors.New("stage result already recorded")

	// ErrToolNotBound is wrapped by ToolExecutionError when the model calls a tool its role does not own
	ErrToolNotBound = errors.New("tool not bound to role")
)

// ToolExecutionError reports a failed tool invocation. It fails the calling stage.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}

// SchemaValidationError reports a structured payload that could not be decoded or validated.
// It is recorded on the stage result and never fails the stage.
type SchemaValidationError struct {
	Stage models.StageName
	Err   error
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("%s structured output invalid: %v", e.Stage, e.Err)
}

func (e *SchemaValidationError) Unwrap() error {
	return e.Err
}

// PipelineError wraps a stage failure that is not a quota signal
type PipelineError struct {
	Stage models.StageName
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
