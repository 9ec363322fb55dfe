package program

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Shading selects the fragment stage of a builtin program.
type Shading uint8

const (
	// ShadingSolid outputs the interpolated vertex color.
	ShadingSolid Shading = iota + 1

	// ShadingTextured outputs a texel scaled by per-vertex coverage.
	ShadingTextured
)

func (s Shading) String() string {
	switch s {
	case ShadingSolid:
		return "solid"
	case ShadingTextured:
		return "textured"
	default:
		return fmt.Sprintf("Shading(%d)", s)
	}
}

// Blend is the color blending applied to program output. Colors are
// premultiplied.
type Blend uint8

const (
	// BlendSrcOver composites the source over the destination.
	BlendSrcOver Blend = iota

	// BlendSrc replaces the destination.
	BlendSrc
)

func (b Blend) String() string {
	switch b {
	case BlendSrcOver:
		return "src-over"
	case BlendSrc:
		return "src"
	default:
		return fmt.Sprintf("Blend(%d)", b)
	}
}

// Vertex strides of the builtin programs.
const (
	// SolidVertexStride: position (2 x f32) + premultiplied color (4 x f32).
	SolidVertexStride = 24

	// TexturedVertexStride: position (2 x f32) + uv (2 x f32) + alpha (f32).
	TexturedVertexStride = 20

	// UniformSize holds the viewport size padded to a vec4.
	UniformSize = 16
)

// Desc is everything a backend needs to build a program.
type Desc struct {
	Label   string
	Shading Shading
	Blend   Blend

	ColorFormat gputypes.TextureFormat
	SampleCount uint32

	// WGSL is the shader source with vs_main and fs_main entry points.
	WGSL          string
	VertexEntry   string
	FragmentEntry string
	VertexLayout  []gputypes.VertexBufferLayout
}

// Program is a compiled, ready-to-bind program owned by the cache.
type Program interface {
	Desc() *Desc

	// Destroy releases the native pipeline state. Never called for programs
	// dropped because the context was lost.
	Destroy()
}

// Caps describes what a compiler can build.
type Caps struct {
	// Dialect names the shader target, such as "spirv" or "raster".
	Dialect string

	// MaxSampleCount is the largest supported MSAA sample count.
	MaxSampleCount uint32
}

// Compiler turns descriptors into programs. Implemented by backends.
type Compiler interface {
	Caps() Caps
	Compile(desc *Desc) (Program, error)
}

// Creator describes one program to the cache.
type Creator interface {
	// ComputeKey writes the structural key of the program into b.
	ComputeKey(c Compiler, b *KeyBuilder)

	// Create compiles the program. Called only on a cache miss.
	Create(c Compiler) (Program, error)
}
