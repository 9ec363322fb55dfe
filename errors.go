package gr

import (
	"errors"

	"github.com/gogpu/gr/backend"
	"github.com/gogpu/gr/ops"
	"github.com/gogpu/gr/program"
	"github.com/gogpu/gr/proxy"
	"github.com/gogpu/gr/resource"
)

var (
	// ErrNilBackend is returned by NewContext when no backend is given.
	ErrNilBackend = errors.New("gr: nil backend")

	// ErrReleased is returned by operations on a released context.
	ErrReleased = errors.New("gr: context released")

	// ErrForeignSurface is returned when a surface from one context is
	// passed to another.
	ErrForeignSurface = errors.New("gr: surface belongs to another context")

	// ErrReadbackUnsupported is returned by ReadPixels when the backend
	// cannot copy texture contents back to memory.
	ErrReadbackUnsupported = errors.New("gr: backend does not support readback")
)

// ErrorClass groups errors by how a caller should react to them.
type ErrorClass uint8

const (
	// ClassOther is any error outside the classes below.
	ClassOther ErrorClass = iota

	// ClassUnavailable means an input was not ready: a proxy that could not
	// be instantiated, an image that could not be decoded or a program that
	// failed to compile. The affected draw was dropped; later frames may
	// succeed.
	ClassUnavailable

	// ClassLostContext means the device is gone. The context must be
	// abandoned and recreated.
	ClassLostContext

	// ClassExhaustion means an allocation failed or exceeded backend
	// limits. Purging resources may help.
	ClassExhaustion

	// ClassInvariantViolation means an internal ordering or state rule was
	// broken. It indicates a bug.
	ClassInvariantViolation
)

// String returns the class name.
func (c ErrorClass) String() string {
	switch c {
	case ClassUnavailable:
		return "Unavailable"
	case ClassLostContext:
		return "LostContext"
	case ClassExhaustion:
		return "Exhaustion"
	case ClassInvariantViolation:
		return "InvariantViolation"
	default:
		return "Other"
	}
}

// ClassifyError reports the class of err. Lost context wins over other
// classes when err wraps several causes. A nil error is ClassOther.
func ClassifyError(err error) ErrorClass {
	switch {
	case err == nil:
		return ClassOther
	case errors.Is(err, resource.ErrAbandoned),
		errors.Is(err, backend.ErrDeviceLost),
		errors.Is(err, ErrReleased):
		return ClassLostContext
	case errors.Is(err, ops.ErrInvariant),
		errors.Is(err, backend.ErrPassState),
		errors.Is(err, backend.ErrForeignObject):
		return ClassInvariantViolation
	case errors.Is(err, resource.ErrAllocation),
		errors.Is(err, resource.ErrTooLarge):
		return ClassExhaustion
	case errors.Is(err, proxy.ErrNotReady),
		errors.Is(err, proxy.ErrDecodeUnavailable),
		errors.Is(err, program.ErrCompile),
		errors.Is(err, ops.ErrNoRenderPass),
		errors.Is(err, ops.ErrTargetUnavailable),
		errors.Is(err, backend.ErrBackendNotAvailable):
		return ClassUnavailable
	default:
		return ClassOther
	}
}
