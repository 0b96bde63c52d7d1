package framework

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned when item/bin counts or parameters are out of
// range. It is always reported before any population is created.
var ErrInvalidArgument = errors.New("invalid argument")

// IsInvalidArgument reports whether err wraps ErrInvalidArgument.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// InvalidArgumentf formats a message and wraps it with ErrInvalidArgument.
func InvalidArgumentf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// OptimizationFailure wraps an unexpected failure raised while a run was in
// progress. No partial state is exposed alongside it.
type OptimizationFailure struct {
	Algorithm string
	Iteration int
	Cause     error
}

func (e *OptimizationFailure) Error() string {
	return fmt.Sprintf("%s optimization failed at iteration %d: %v", e.Algorithm, e.Iteration, e.Cause)
}

func (e *OptimizationFailure) Unwrap() error {
	return e.Cause
}

// NewOptimizationFailure converts a recovered panic value into an
// OptimizationFailure.
func NewOptimizationFailure(algorithm string, iteration int, recovered any) *OptimizationFailure {
	cause, ok := recovered.(error)
	if !ok {
		cause = fmt.Errorf("%v", recovered)
	}
	return &OptimizationFailure{
		Algorithm: algorithm,
		Iteration: iteration,
		Cause:     cause,
	}
}
