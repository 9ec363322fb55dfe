package program

import (
	_ "embed"

	"github.com/gogpu/gputypes"
)

//go:embed shaders/solid.wgsl
var solidShaderSource string

//go:embed shaders/textured.wgsl
var texturedShaderSource string

// SolidColor draws triangles with a per-vertex premultiplied color.
type SolidColor struct {
	Format      gputypes.TextureFormat
	Blend       Blend
	SampleCount uint32
}

// ComputeKey implements Creator.
func (s SolidColor) ComputeKey(c Compiler, b *KeyBuilder) {
	addCommonKey(b, c, ShadingSolid, s.Format, s.Blend, s.SampleCount)
}

// Create implements Creator.
func (s SolidColor) Create(c Compiler) (Program, error) {
	return c.Compile(&Desc{
		Label:         "solid_color_" + s.Blend.String(),
		Shading:       ShadingSolid,
		Blend:         s.Blend,
		ColorFormat:   s.Format,
		SampleCount:   clampSamples(c, s.SampleCount),
		WGSL:          solidShaderSource,
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		VertexLayout:  SolidVertexLayout(),
	})
}

// TexturedQuad draws triangles sampling one texture, scaled by per-vertex
// coverage.
type TexturedQuad struct {
	Format      gputypes.TextureFormat
	Blend       Blend
	SampleCount uint32
}

// ComputeKey implements Creator.
func (t TexturedQuad) ComputeKey(c Compiler, b *KeyBuilder) {
	addCommonKey(b, c, ShadingTextured, t.Format, t.Blend, t.SampleCount)
}

// Create implements Creator.
func (t TexturedQuad) Create(c Compiler) (Program, error) {
	return c.Compile(&Desc{
		Label:         "textured_quad_" + t.Blend.String(),
		Shading:       ShadingTextured,
		Blend:         t.Blend,
		ColorFormat:   t.Format,
		SampleCount:   clampSamples(c, t.SampleCount),
		WGSL:          texturedShaderSource,
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		VertexLayout:  TexturedVertexLayout(),
	})
}

// SolidVertexLayout matches VertexInput in solid.wgsl:
//
//	location 0: position (vec2<f32>)
//	location 1: color (vec4<f32>)
func SolidVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: SolidVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x4, Offset: 8, ShaderLocation: 1},
			},
		},
	}
}

// TexturedVertexLayout matches VertexInput in textured.wgsl:
//
//	location 0: position (vec2<f32>)
//	location 1: uv (vec2<f32>)
//	location 2: alpha (f32)
func TexturedVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: TexturedVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
				{Format: gputypes.VertexFormatFloat32, Offset: 16, ShaderLocation: 2},
			},
		},
	}
}

func addCommonKey(b *KeyBuilder, c Compiler, shading Shading, format gputypes.TextureFormat, blend Blend, samples uint32) {
	b.AddString(c.Caps().Dialect)
	b.AddUint8(uint8(shading))
	b.AddUint32(uint32(format))
	b.AddUint8(uint8(blend))
	b.AddUint32(clampSamples(c, samples))
}

func clampSamples(c Compiler, n uint32) uint32 {
	if n == 0 {
		n = 1
	}
	if m := c.Caps().MaxSampleCount; m > 0 && n > m {
		n = m
	}
	return n
}
