package workflows

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidStep       = errors.New("invalid step number")
	ErrInvalidPayload    = errors.New("invalid step payload")
	ErrWorkflowCompleted = errors.New("workflow already completed")
	ErrStepNotReached    = errors.New("step not reached yet")
	ErrGeneration        = errors.New("story generation failed")
)
