package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState indicates a particle with a NaN or Inf component after a push.
	ErrInvalidState = errors.New("sim: invalid particle state (NaN or Inf detected)")

	// ErrContextCanceled indicates the run was interrupted.
	ErrContextCanceled = errors.New("sim: run canceled by context")

	ErrEmptyPopulation = errors.New("sim: empty population")

	ErrInvalidConfig = errors.New("sim: invalid config")
)

// SimulationError wraps an error with the step and particle it occurred at.
type SimulationError struct {
	Step    int
	Time    float64
	Index   int
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f) particle %d: %v", e.Step, e.Time, e.Index, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
