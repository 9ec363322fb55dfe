package software

import "errors"

var (
	// ErrShader is returned by Compile when naga rejects the WGSL source or
	// an entry point is missing.
	ErrShader = errors.New("software: shader rejected")

	// ErrDestroyed is returned when a destroyed backing is used.
	ErrDestroyed = errors.New("software: object destroyed")

	// ErrOutOfRange is returned when a write or draw reaches past the end
	// of a buffer.
	ErrOutOfRange = errors.New("software: buffer access out of range")
)
