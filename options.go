package gr

import (
	"log/slog"

	"github.com/gogpu/gr/program"
	"github.com/gogpu/gr/resource"
)

// Option configures a Context during creation.
//
// Example:
//
//	ctx, err := gr.NewContext(b,
//	    gr.WithResourceCacheLimit(64<<20),
//	    gr.WithProgramCacheSize(32),
//	)
type Option func(*options)

// options holds optional configuration for Context creation.
type options struct {
	cacheLimit   uint64
	programCache int
	logger       *slog.Logger
}

// defaultOptions returns the default context options.
func defaultOptions() options {
	return options{
		cacheLimit:   resource.DefaultLimit,
		programCache: program.DefaultCapacity,
	}
}

// WithResourceCacheLimit sets the byte budget of the resource cache.
// Unreferenced budgeted resources are purged in LRU order once usage
// exceeds the limit. Zero keeps the default.
func WithResourceCacheLimit(bytes uint64) Option {
	return func(o *options) {
		if bytes > 0 {
			o.cacheLimit = bytes
		}
	}
}

// WithProgramCacheSize sets how many compiled programs the context keeps.
// Values below one keep the default.
func WithProgramCacheSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.programCache = n
		}
	}
}

// WithLogger sets the logger for messages about this context only.
// Sub-package logging is configured globally with [SetLogger].
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
