// Package gr is the deferred GPU execution core of a 2D renderer.
//
// # Overview
//
// Drawing calls are not executed when they are made. A [SurfaceDrawContext]
// records them as ops into an ops task bound to its render target, merging
// compatible neighbours as they arrive. Textures are referenced through
// proxies whose GPU backing is created lazily at flush time. [Context.Flush]
// orders the pending tasks by their dependencies, instantiates proxies,
// compiles or reuses shader programs and hands one render pass per task to
// the backend.
//
// # Quick Start
//
//	b, err := backend.Default()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ctx, err := gr.NewContext(b)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctx.Release()
//
//	sdc, err := ctx.NewSurface(256, 256, gputypes.TextureFormatRGBA8Unorm, 1)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sdc.Clear(sdc.Bounds(), color.White)
//	sdc.FillRect(geom.Rect{Left: 16, Top: 16, Right: 128, Bottom: 96}, color.RGBA{R: 255, A: 255})
//	if err := ctx.Flush(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Architecture
//
// The module is organized into:
//   - resource: GPU object ownership, keys and the budgeted LRU cache
//   - proxy: deferred textures and render targets
//   - program: shader program descriptors and the program cache
//   - ops: ops, ops tasks, the drawing manager and the backend contract
//   - bsp: depth sorting for 3D layer compositing
//   - backend: the backend registry with software and native implementations
//
// # Threading
//
// A Context and everything it owns belong to one goroutine. Proxies may be
// created and released from other goroutines; releases that drop the last
// reference are queued and processed on the owning goroutine at the next
// flush or purge.
package gr
