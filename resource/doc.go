// Package resource owns GPU objects on behalf of a rendering context.
//
// A [Resource] wraps a backend [Backing] (a texture or a buffer) together with
// the bookkeeping the [Cache] needs: a process-unique ID, an optional
// [UniqueKey] for content deduplication, an optional [ScratchKey] for reuse of
// interchangeable objects, a size estimate and a last-used tick.
//
// Resources are reference counted. [Resource.Ref] and [Resource.Unref] may be
// called from any goroutine, but native deletion only ever happens on the
// goroutine that owns the cache: the last Unref posts the resource to the
// cache's inbox, and [Cache.ProcessMessages] drains it. Requests to invalidate
// a unique key or purge a specific resource travel through the same inbox.
//
// Every other Cache method must be called from the owning goroutine.
package resource
