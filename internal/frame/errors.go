package frame

import "errors"

// Domain errors for buffer construction and access.
var (
	// ErrInvalidDimensions indicates a non-positive width or height.
	ErrInvalidDimensions = errors.New("frame: dimensions must be positive")

	// ErrDimensionMismatch indicates two buffers that should share a size do not.
	ErrDimensionMismatch = errors.New("frame: buffer dimensions do not match")
)
