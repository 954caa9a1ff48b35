package pipeline

import (
	"fmt"
)

// ErrorKind classifies step errors.
type ErrorKind string

const (
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindExecution  ErrorKind = "execution"
	ErrorKindNotFound   ErrorKind = "not_found"
)

// StepError is the error type surfaced by the pipeline runner: it names
// the failing step and carries the underlying cause. The run aborts on
// the first StepError, there is no retry path.
type StepError struct {
	Kind    ErrorKind
	Step    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	if e == nil {
		return "unknown pipeline error"
	}
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Step != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Step, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, msg)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewValidationError creates a validation error for a step.
func NewValidationError(step, message string) *StepError {
	return &StepError{
		Kind:    ErrorKindValidation,
		Step:    step,
		Message: message,
	}
}

// NewMissingParamError creates a validation error for an absent required
// step parameter.
func NewMissingParamError(step, param string) *StepError {
	return &StepError{
		Kind:    ErrorKindValidation,
		Step:    step,
		Message: fmt.Sprintf("required parameter %q is missing", param),
	}
}

// NewNotFoundError creates an error for a step name that has no
// registered implementation.
func NewNotFoundError(step string) *StepError {
	return &StepError{
		Kind:    ErrorKindNotFound,
		Step:    step,
		Message: "no such step",
	}
}

// WrapError wraps an error with step context. A StepError passes through
// with its step name filled in if empty.
func WrapError(err error, step string) *StepError {
	if err == nil {
		return nil
	}
	if sErr, ok := err.(*StepError); ok {
		if sErr.Step == "" {
			sErr.Step = step
		}
		return sErr
	}
	return &StepError{
		Kind:  ErrorKindExecution,
		Step:  step,
		Cause: err,
	}
}

// KindOf returns the kind of the error, ErrorKindExecution for errors
// that are not StepErrors.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	if sErr, ok := err.(*StepError); ok {
		return sErr.Kind
	}
	return ErrorKindExecution
}
