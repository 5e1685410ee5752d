package dynamo

import "errors"

// Domain errors for task configuration and stepping.
var (
	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownParam indicates a tunable name that does not exist.
	ErrUnknownParam = errors.New("dynamo: unknown parameter")

	// ErrUnknownName indicates a geom, body or marker name the engine cannot resolve.
	ErrUnknownName = errors.New("dynamo: unresolved model name")

	// ErrDimensionMismatch indicates a residual or buffer whose length disagrees
	// with the engine's declared dimension.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between residual and sensors")
)
