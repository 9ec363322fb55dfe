package backend

import (
	"errors"

	"github.com/gogpu/gr/ops"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrDeviceLost is returned by every allocation after Abandon.
	ErrDeviceLost = errors.New("backend: device lost")

	// ErrForeignObject is returned when a backing, program or pass created by
	// another backend is passed in.
	ErrForeignObject = errors.New("backend: object from another backend")

	// ErrPassState is returned when a render pass is used out of order, such
	// as drawing without a pipeline or submitting before End.
	ErrPassState = errors.New("backend: render pass used out of order")
)

// Backend is a graphics API the execution core can submit to.
//
// Backends must be registered via Register() and are selected via
// Get() or Default().
type Backend interface {
	ops.Backend

	// Name returns the backend identifier (e.g., "software", "native").
	Name() string

	// Close releases device-level objects. Resources must already have been
	// released through their cache.
	Close()
}
