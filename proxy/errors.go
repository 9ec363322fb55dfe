package proxy

import "errors"

var (
	// ErrNotReady is returned when a proxy's backing is requested before
	// the proxy was instantiated, or when decoded pixels are not available
	// yet.
	ErrNotReady = errors.New("proxy: not instantiated")

	// ErrDecodeUnavailable is returned when an image generator cannot
	// produce pixels (unsupported or corrupt data).
	ErrDecodeUnavailable = errors.New("proxy: image decode unavailable")

	// ErrReleased is returned when instantiating a released proxy.
	ErrReleased = errors.New("proxy: released")

	// ErrPixelsSize is returned when a pixel buffer does not match the
	// proxy dimensions.
	ErrPixelsSize = errors.New("proxy: pixel buffer size mismatch")
)
