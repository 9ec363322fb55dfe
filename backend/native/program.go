package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gr/program"
)

// Program owns the HAL objects of one compiled program: shader module,
// bind group layout, pipeline layout and render pipeline.
type Program struct {
	owner *Backend
	desc  program.Desc

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
}

// Desc implements program.Program.
func (p *Program) Desc() *program.Desc { return &p.desc }

// Destroy implements program.Program. Objects are released in reverse
// creation order.
func (p *Program) Destroy() {
	if p.shader == nil {
		return
	}
	if d := p.owner.device; !p.owner.abandoned.Load() {
		if p.pipeline != nil {
			d.DestroyRenderPipeline(p.pipeline)
		}
		if p.pipeLayout != nil {
			d.DestroyPipelineLayout(p.pipeLayout)
		}
		if p.bindLayout != nil {
			d.DestroyBindGroupLayout(p.bindLayout)
		}
		d.DestroyShaderModule(p.shader)
	}
	p.pipeline, p.pipeLayout, p.bindLayout, p.shader = nil, nil, nil, nil
	p.owner.live.Add(-1)
}

func (b *Backend) createProgram(desc *program.Desc) (*Program, error) {
	p := &Program{owner: b, desc: *desc}
	shader, err := createShaderModule(b.device, desc.Label, desc.WGSL)
	if err != nil {
		return nil, err
	}
	p.shader = shader
	b.live.Add(1)

	entries := []gputypes.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		},
	}
	if desc.Shading == program.ShadingTextured {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    1,
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		})
	}
	p.bindLayout, err = b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label + "_bind_layout",
		Entries: entries,
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("create bind group layout: %w", err)
	}

	p.pipeLayout, err = b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}

	target := gputypes.ColorTargetState{
		Format:    desc.ColorFormat,
		WriteMask: gputypes.ColorWriteMaskAll,
	}
	if desc.Blend == program.BlendSrcOver {
		premulBlend := gputypes.BlendStatePremultiplied()
		target.Blend = &premulBlend
	}
	samples := desc.SampleCount
	if samples == 0 {
		samples = 1
	}
	p.pipeline, err = b.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: desc.VertexEntry,
			Buffers:    desc.VertexLayout,
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: desc.FragmentEntry,
			Targets:    []gputypes.ColorTargetState{target},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: samples,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("create render pipeline: %w", err)
	}
	return p, nil
}

// bindGroup creates the bind group of one draw: the uniform buffer range
// and, for textured programs, the sampled texture.
func (b *Backend) bindGroup(p *Program, uniform *Buffer, offset, size uint64, tex *Texture) (hal.BindGroup, error) {
	entries := []gputypes.BindGroupEntry{
		{Binding: 0, Resource: gputypes.BufferBinding{
			Buffer: uniform.buf.NativeHandle(), Offset: offset, Size: size,
		}},
	}
	if p.desc.Shading == program.ShadingTextured {
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  1,
			Resource: gputypes.TextureViewBinding{TextureView: tex.view.NativeHandle()},
		})
	}
	return b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   p.desc.Label + "_bind_group",
		Layout:  p.bindLayout,
		Entries: entries,
	})
}
