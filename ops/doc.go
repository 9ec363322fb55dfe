// Package ops records GPU work as ops and replays it through a RenderPass.
//
// An [Op] is the smallest unit of recorded work: a clear, a batch of solid
// rectangles, a batch of textured polygons, a copy or a resolve. Ops
// reference proxies, never resources, so they can be recorded before any GPU
// object exists. An [OpsTask] holds the ordered ops that draw into one render
// target. Adding an op first tries to merge it into the current tail; ops
// never merge with anything else, which keeps execution order intact.
//
// At flush time the [DrawingManager] orders the open tasks by their proxy
// dependencies and executes them: each task instantiates its proxies,
// acquires a RenderPass, prepares every op (vertex uploads, program lookups),
// executes every op in order, then ends and submits the pass.
package ops
