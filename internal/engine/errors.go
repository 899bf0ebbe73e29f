package engine

import "errors"

var (
	ErrInvalidShape       = errors.New("engine: grid needs at least one interior row and column")
	ErrOutOfBounds        = errors.New("engine: location outside grid")
	ErrUnknownCategory    = errors.New("engine: unknown cell category")
	ErrNegativeVariance   = errors.New("engine: reward variance must be non-negative")
	ErrUnknownResetPolicy = errors.New("engine: unknown reset policy")
	ErrNoStart            = errors.New("engine: no start cell configured")
	ErrNoPathCells        = errors.New("engine: no path cells to evaluate")
	ErrUnknownField       = errors.New("engine: unknown export field")
	ErrInvalidLayout      = errors.New("engine: invalid layout")

	ErrEmptyActionSet   = errors.New("engine: action set must not be empty")
	ErrInvalidGamma     = errors.New("engine: discount factor must be within [0, 1]")
	ErrInvalidThreshold = errors.New("engine: convergence threshold must be positive")
	ErrUnknownOrder     = errors.New("engine: unknown sweep order")
	ErrNotConverged     = errors.New("engine: policy evaluation did not converge")
)
