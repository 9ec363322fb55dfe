// Package software is the CPU reference backend.
//
// Textures are images held in memory and render passes are replayed by a
// scanline triangle rasterizer when the pass is submitted. Programs are
// validated with naga so a shader that would fail on the GPU fails here
// too, but fragments are shaded by Go equivalents of the builtin programs.
//
// The backend registers itself under backend.BackendSoftware:
//
//	import _ "github.com/gogpu/gr/backend/software"
//
// Multisampled targets are rasterized once per pixel; Resolve is a copy.
package software
