package pipeline

import (
	"context"

	"shiftcli/internal/dataset"
)

// Step is one named, parameterized transformation in the catalog. Steps
// are deterministic and hold no state between applications: the same
// dataset and parameters always produce the same output.
type Step interface {
	// ID returns the unique identifier for this step, the name stage
	// configurations refer to it by.
	ID() string

	// Name returns the human-readable name for this step.
	Name() string

	// Validate checks the parameters before the step runs. Missing
	// required parameters must be reported here so the run aborts
	// before any output is written.
	Validate(params Params) error

	// Apply runs the step against the dataset and returns the result.
	// Implementations may mutate and return the input or build a new
	// dataset.
	Apply(ctx context.Context, ds *dataset.Dataset, params Params) (*dataset.Dataset, error)
}

// BaseStep provides the identity boilerplate for step implementations.
type BaseStep struct {
	id   string
	name string
}

// NewBaseStep creates a base step with the given identity.
func NewBaseStep(id, name string) BaseStep {
	return BaseStep{id: id, name: name}
}

// ID returns the step ID.
func (b BaseStep) ID() string {
	return b.id
}

// Name returns the step name.
func (b BaseStep) Name() string {
	return b.name
}

// Validate passes by default; steps with required parameters override it.
func (b BaseStep) Validate(params Params) error {
	return nil
}

// ApplyFunc is the signature of a plain transformation function.
type ApplyFunc func(ctx context.Context, ds *dataset.Dataset, params Params) (*dataset.Dataset, error)

// FuncStep adapts an ApplyFunc into a Step. ValidateFunc is optional.
type FuncStep struct {
	BaseStep
	ApplyFunc    ApplyFunc
	ValidateFunc func(params Params) error
}

// NewFuncStep creates a step from a function.
func NewFuncStep(id, name string, apply ApplyFunc) *FuncStep {
	return &FuncStep{BaseStep: NewBaseStep(id, name), ApplyFunc: apply}
}

// WithValidator attaches a parameter validator to the step.
func (s *FuncStep) WithValidator(validate func(params Params) error) *FuncStep {
	s.ValidateFunc = validate
	return s
}

// Validate runs the attached validator if any.
func (s *FuncStep) Validate(params Params) error {
	if s.ValidateFunc == nil {
		return nil
	}
	return s.ValidateFunc(params)
}

// Apply runs the wrapped function.
func (s *FuncStep) Apply(ctx context.Context, ds *dataset.Dataset, params Params) (*dataset.Dataset, error) {
	return s.ApplyFunc(ctx, ds, params)
}
