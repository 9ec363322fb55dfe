// Package proxy provides deferred handles to GPU textures.
//
// A proxy starts out deferred: it knows its dimensions, format and where its
// pixels come from (nothing, a pixel buffer, an [ImageGenerator] or an
// existing resource), but owns no GPU object. Recording code creates proxies
// on any goroutine and hands them to ops; the goroutine that owns the
// rendering context instantiates them at flush time. Instantiation is
// idempotent, and once a proxy has a backing resource it never changes.
package proxy
