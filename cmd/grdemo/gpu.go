//go:build !nogpu

package main

// Vulkan HAL backend for the native renderer.
import _ "github.com/gogpu/wgpu/hal/vulkan"
