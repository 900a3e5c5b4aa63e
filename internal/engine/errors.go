package engine

import "errors"

// Domain errors for engine invocations.
var (
	// ErrNonFinite indicates a NaN or Inf pivot, angle or scale.
	ErrNonFinite = errors.New("engine: parameter is NaN or Inf")

	// ErrSeedLength indicates a seed segment outside [0, width].
	ErrSeedLength = errors.New("engine: seed length out of range")

	// ErrNilBuffer indicates a missing source or destination buffer.
	ErrNilBuffer = errors.New("engine: nil buffer")

	// ErrAliasedBuffers indicates a step asked to read and write the same buffer.
	ErrAliasedBuffers = errors.New("engine: source and destination are the same buffer")
)
