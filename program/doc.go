// Package program caches compiled GPU programs (shader + pipeline state).
//
// A [Creator] describes one program. Its structural [Key] is built with a
// [KeyBuilder] from everything that affects the compiled result: shading
// kind, vertex attributes, color format, blend mode and sample count. The
// [Cache] maps keys to compiled [Program] values and keeps at most a fixed
// number of them, evicting the least recently used.
//
// The cache is used from the goroutine that owns the rendering context.
package program
