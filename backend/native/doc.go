// Package native is the GPU backend built on the gogpu/wgpu HAL.
//
// Programs are compiled from WGSL to SPIR-V with naga and turned into
// render pipelines. A render pass is recorded into a command list and
// encoded into one HAL command buffer when it ends; Submit hands the buffer
// to the queue and waits on a fence.
//
// The backend registers itself under backend.BackendNative. A HAL backend
// such as Vulkan has to be linked in for Open to find an adapter:
//
//	import _ "github.com/gogpu/wgpu/hal/vulkan"
package native
