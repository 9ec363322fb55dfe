package resource

import "errors"

var (
	// ErrAbandoned is returned when the owning context has been abandoned
	// (device lost) and no new GPU objects can be created.
	ErrAbandoned = errors.New("resource: context abandoned")

	// ErrTooLarge is returned when a requested object exceeds backend limits.
	ErrTooLarge = errors.New("resource: dimensions exceed backend limits")

	// ErrAllocation is returned when the backend fails to allocate an object.
	ErrAllocation = errors.New("resource: allocation failed")

	// ErrInvalidDescriptor is returned for zero-sized or malformed descriptors.
	ErrInvalidDescriptor = errors.New("resource: invalid descriptor")

	// ErrWrongKind is returned when a buffer operation is applied to a texture
	// or vice versa.
	ErrWrongKind = errors.New("resource: wrong resource kind")
)
