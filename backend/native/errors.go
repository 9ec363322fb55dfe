package native

import "errors"

// Package errors for the native backend.
var (
	// ErrNoGPU is returned when no HAL backend or adapter is available.
	ErrNoGPU = errors.New("native: no GPU adapter available")

	// ErrNoHAL is returned when a device provider does not expose HAL objects.
	ErrNoHAL = errors.New("native: provider does not expose HAL device")

	// ErrTextureDestroyed is returned when operating on a destroyed texture.
	ErrTextureDestroyed = errors.New("native: texture has been destroyed")

	// ErrBufferDestroyed is returned when operating on a destroyed buffer.
	ErrBufferDestroyed = errors.New("native: buffer has been destroyed")

	// ErrGPUTimeout is returned when a submission's fence does not signal.
	ErrGPUTimeout = errors.New("native: timed out waiting for GPU")
)
