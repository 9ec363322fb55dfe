package native

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gr/backend"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/ops"
	"github.com/gogpu/gr/program"
	"github.com/gogpu/gr/resource"
)

type cmdKind uint8

const (
	cmdDraw cmdKind = iota
	cmdDrawIndexed
	cmdClear
	cmdCopy
)

// bindings is the pipeline state captured by each draw.
type bindings struct {
	prog        *Program
	uniform     *Buffer
	uniformOff  uint64
	uniformSize uint64
	tex         *Texture
	vertices    *Buffer
	vertexOff   uint64
	indices     *Buffer
	indexOff    uint64
}

type command struct {
	kind  cmdKind
	st    bindings
	count uint32
	first uint32
	base  int32

	rect  geom.IRect
	color ops.Color
	src   *Texture
	dst   geom.IPoint
}

// pass records commands and encodes them into one command buffer on End.
// Clears that do not cover the whole target and copies are drawn with
// internal BlendSrc programs.
type pass struct {
	backend *Backend
	target  *Texture
	info    ops.Target

	state   bindings
	cmds    []command
	resolve *Texture
	err     error

	begun, ended, submitted bool

	cmdBuf    hal.CommandBuffer
	transient []func()
}

func (p *pass) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *pass) record(c command) {
	if !p.begun || p.ended {
		p.fail(fmt.Errorf("%w: command outside Begin/End", backend.ErrPassState))
		return
	}
	p.cmds = append(p.cmds, c)
}

func (p *pass) Begin() error {
	if p.begun {
		return fmt.Errorf("%w: Begin called twice", backend.ErrPassState)
	}
	p.begun = true
	return nil
}

func (p *pass) SetPipeline(prog program.Program) {
	np, ok := prog.(*Program)
	if !ok || np.pipeline == nil {
		p.fail(fmt.Errorf("%w: pipeline %T", backend.ErrForeignObject, prog))
		return
	}
	p.state.prog = np
}

func (p *pass) SetUniformBuffer(buf resource.Backing, offset, size uint64) {
	p.state.uniform, p.state.uniformOff, p.state.uniformSize = p.buffer(buf), offset, size
}

func (p *pass) SetTexture(tex resource.Backing, _ ops.Filter) {
	t, ok := tex.(*Texture)
	if !ok {
		p.fail(fmt.Errorf("%w: texture %T", backend.ErrForeignObject, tex))
		return
	}
	p.state.tex = t
}

func (p *pass) SetVertexBuffer(buf resource.Backing, offset uint64) {
	p.state.vertices, p.state.vertexOff = p.buffer(buf), offset
}

func (p *pass) SetIndexBuffer(buf resource.Backing, offset uint64) {
	p.state.indices, p.state.indexOff = p.buffer(buf), offset
}

func (p *pass) buffer(bk resource.Backing) *Buffer {
	b, ok := bk.(*Buffer)
	if !ok {
		p.fail(fmt.Errorf("%w: buffer %T", backend.ErrForeignObject, bk))
		return nil
	}
	return b
}

func (p *pass) Draw(vertexCount, firstVertex uint32) {
	if p.checkDraw(false) {
		p.record(command{kind: cmdDraw, st: p.state, count: vertexCount, first: firstVertex})
	}
}

func (p *pass) DrawIndexed(indexCount, firstIndex uint32, baseVertex int32) {
	if p.checkDraw(true) {
		p.record(command{kind: cmdDrawIndexed, st: p.state, count: indexCount, first: firstIndex, base: baseVertex})
	}
}

func (p *pass) checkDraw(indexed bool) bool {
	st := p.state
	switch {
	case st.prog == nil:
		p.fail(fmt.Errorf("%w: draw without pipeline", backend.ErrPassState))
	case st.uniform == nil:
		p.fail(fmt.Errorf("%w: draw without uniform buffer", backend.ErrPassState))
	case st.vertices == nil:
		p.fail(fmt.Errorf("%w: draw without vertex buffer", backend.ErrPassState))
	case indexed && st.indices == nil:
		p.fail(fmt.Errorf("%w: indexed draw without index buffer", backend.ErrPassState))
	case st.prog.desc.Shading == program.ShadingTextured && st.tex == nil:
		p.fail(fmt.Errorf("%w: textured draw without texture", backend.ErrPassState))
	default:
		return true
	}
	return false
}

func (p *pass) Clear(scissor geom.IRect, c ops.Color) {
	p.record(command{kind: cmdClear, rect: scissor, color: c})
}

// Resolve sets the resolve attachment of the pass. The whole target is
// resolved when the pass ends, so rect only has to lie within it.
func (p *pass) Resolve(dst resource.Backing, rect geom.IRect) {
	t, ok := dst.(*Texture)
	switch {
	case !ok:
		p.fail(fmt.Errorf("%w: resolve target %T", backend.ErrForeignObject, dst))
	case p.resolve != nil && p.resolve != t:
		p.fail(fmt.Errorf("%w: pass resolves into two textures", backend.ErrPassState))
	case !p.info.Bounds().Contains(rect):
		p.fail(fmt.Errorf("%w: resolve rect outside target", backend.ErrPassState))
	default:
		p.resolve = t
	}
}

func (p *pass) CopyToTexture(src resource.Backing, srcRect geom.IRect, dst geom.IPoint) {
	t, ok := src.(*Texture)
	if !ok {
		p.fail(fmt.Errorf("%w: copy source %T", backend.ErrForeignObject, src))
		return
	}
	p.record(command{kind: cmdCopy, src: t, rect: srcRect, dst: dst})
}

func (p *pass) End() error {
	if !p.begun || p.ended {
		p.fail(fmt.Errorf("%w: End without Begin", backend.ErrPassState))
	}
	p.ended = true
	if p.err != nil {
		p.release()
		return p.err
	}
	if err := p.encode(); err != nil {
		p.release()
		return err
	}
	return nil
}

// encode builds the command buffer. A leading clear of the whole target
// becomes the attachment's load op.
func (p *pass) encode() error {
	b := p.backend
	if p.target.tex == nil {
		return ErrTextureDestroyed
	}

	att := hal.RenderPassColorAttachment{
		View:    p.target.view,
		LoadOp:  gputypes.LoadOpLoad,
		StoreOp: gputypes.StoreOpStore,
	}
	cmds := p.cmds
	if len(cmds) > 0 && cmds[0].kind == cmdClear && cmds[0].rect.Contains(p.info.Bounds()) {
		c := cmds[0].color
		att.LoadOp = gputypes.LoadOpClear
		att.ClearValue = gputypes.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A)}
		cmds = cmds[1:]
	}
	if p.resolve != nil {
		if p.resolve.tex == nil {
			return ErrTextureDestroyed
		}
		att.ResolveTarget = p.resolve.view
	}

	draws, err := p.prepare(cmds)
	if err != nil {
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "gr_pass"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("gr_pass"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:            "gr_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{att},
	})
	for _, d := range draws {
		d(rp)
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	p.cmdBuf = cmdBuf
	return nil
}

// prepare creates the bind groups and internal geometry of cmds and
// returns one recording function per command.
func (p *pass) prepare(cmds []command) ([]func(hal.RenderPassEncoder), error) {
	b := p.backend
	var (
		draws     []func(hal.RenderPassEncoder)
		solid     []byte
		textured  []byte
		internal  *Buffer
		solidBuf  hal.Buffer
		texBuf    hal.Buffer
		bindCache = make(map[bindKey]hal.BindGroup)
	)

	group := func(prog *Program, uniform *Buffer, off, size uint64, tex *Texture) (hal.BindGroup, error) {
		k := bindKey{prog: prog, uniform: uniform, off: off, size: size, tex: tex}
		if bg, ok := bindCache[k]; ok {
			return bg, nil
		}
		if uniform.buf == nil {
			return nil, ErrBufferDestroyed
		}
		if tex != nil && tex.tex == nil {
			return nil, ErrTextureDestroyed
		}
		bg, err := b.bindGroup(prog, uniform, off, size, tex)
		if err != nil {
			return nil, fmt.Errorf("create bind group: %w", err)
		}
		bindCache[k] = bg
		p.transient = append(p.transient, func() { b.device.DestroyBindGroup(bg) })
		return bg, nil
	}

	viewport := func() (*Buffer, error) {
		if internal != nil {
			return internal, nil
		}
		data := make([]byte, program.UniformSize)
		binary.LittleEndian.PutUint32(data[0:], math.Float32bits(float32(p.info.Width)))
		binary.LittleEndian.PutUint32(data[4:], math.Float32bits(float32(p.info.Height)))
		bk, err := b.CreateBuffer(resource.BufferDesc{
			Size:  program.UniformSize,
			Usage: gputypes.BufferUsageUniform,
			Label: "gr_pass_viewport",
		}, data)
		if err != nil {
			return nil, err
		}
		internal = bk.(*Buffer) //nolint:forcetypeassert // CreateBuffer always returns *Buffer
		p.transient = append(p.transient, internal.Destroy)
		return internal, nil
	}

	for _, c := range cmds {
		switch c.kind {
		case cmdDraw, cmdDrawIndexed:
			st := c.st
			if st.vertices.buf == nil || (c.kind == cmdDrawIndexed && st.indices.buf == nil) {
				return nil, ErrBufferDestroyed
			}
			size := st.uniformSize
			if size == 0 {
				size = program.UniformSize
			}
			bg, err := group(st.prog, st.uniform, st.uniformOff, size, st.tex)
			if err != nil {
				return nil, err
			}
			draws = append(draws, func(rp hal.RenderPassEncoder) {
				rp.SetPipeline(st.prog.pipeline)
				rp.SetBindGroup(0, bg, nil)
				rp.SetVertexBuffer(0, st.vertices.buf, st.vertexOff)
				if c.kind == cmdDrawIndexed {
					rp.SetIndexBuffer(st.indices.buf, gputypes.IndexFormatUint16, st.indexOff)
					rp.DrawIndexed(c.count, 1, c.first, c.base, 0)
					return
				}
				rp.Draw(c.count, 1, c.first, 0)
			})

		case cmdClear:
			prog, err := b.internalProgram(program.ShadingSolid, p.info.Format, p.target.desc.Samples())
			if err != nil {
				return nil, err
			}
			ub, err := viewport()
			if err != nil {
				return nil, err
			}
			bg, err := group(prog, ub, 0, program.UniformSize, nil)
			if err != nil {
				return nil, err
			}
			first := uint32(len(solid) / program.SolidVertexStride) //nolint:gosec // G115: bounded by command count
			col := c.color
			solid = appendQuad(solid, c.rect.Rect(), func(buf []byte, _ geom.Point) []byte {
				return appendFloats(buf, col.R, col.G, col.B, col.A)
			})
			draws = append(draws, func(rp hal.RenderPassEncoder) {
				rp.SetPipeline(prog.pipeline)
				rp.SetBindGroup(0, bg, nil)
				rp.SetVertexBuffer(0, solidBuf, 0)
				rp.Draw(6, 1, first, 0)
			})

		case cmdCopy:
			if c.src.tex == nil {
				return nil, ErrTextureDestroyed
			}
			prog, err := b.internalProgram(program.ShadingTextured, p.info.Format, p.target.desc.Samples())
			if err != nil {
				return nil, err
			}
			ub, err := viewport()
			if err != nil {
				return nil, err
			}
			bg, err := group(prog, ub, 0, program.UniformSize, c.src)
			if err != nil {
				return nil, err
			}
			first := uint32(len(textured) / program.TexturedVertexStride) //nolint:gosec // G115: bounded by command count
			sw, sh := float64(c.src.desc.Width), float64(c.src.desc.Height)
			src := c.rect.Rect()
			dst := geom.RectXYWH(float64(c.dst.X), float64(c.dst.Y), src.Width(), src.Height())
			textured = appendQuad(textured, dst, func(buf []byte, pt geom.Point) []byte {
				u := (src.Left + (pt.X - dst.Left)) / sw
				v := (src.Top + (pt.Y - dst.Top)) / sh
				return appendFloats(buf, float32(u), float32(v), 1)
			})
			draws = append(draws, func(rp hal.RenderPassEncoder) {
				rp.SetPipeline(prog.pipeline)
				rp.SetBindGroup(0, bg, nil)
				rp.SetVertexBuffer(0, texBuf, 0)
				rp.Draw(6, 1, first, 0)
			})
		}
	}

	var err error
	if solidBuf, err = p.vertexBuffer(solid, "gr_pass_clears"); err != nil {
		return nil, err
	}
	if texBuf, err = p.vertexBuffer(textured, "gr_pass_copies"); err != nil {
		return nil, err
	}
	return draws, nil
}

type bindKey struct {
	prog    *Program
	uniform *Buffer
	off     uint64
	size    uint64
	tex     *Texture
}

func (p *pass) vertexBuffer(data []byte, label string) (hal.Buffer, error) {
	if len(data) == 0 {
		return nil, nil
	}
	bk, err := p.backend.CreateBuffer(resource.BufferDesc{
		Size:  uint64(len(data)),
		Usage: gputypes.BufferUsageVertex,
		Label: label,
	}, data)
	if err != nil {
		return nil, err
	}
	buf := bk.(*Buffer) //nolint:forcetypeassert // CreateBuffer always returns *Buffer
	p.transient = append(p.transient, buf.Destroy)
	return buf.buf, nil
}

// release frees the command buffer and the pass's transient objects.
func (p *pass) release() {
	if p.cmdBuf != nil {
		if !p.backend.abandoned.Load() {
			p.backend.device.FreeCommandBuffer(p.cmdBuf)
		}
		p.cmdBuf = nil
	}
	if !p.backend.abandoned.Load() {
		for _, fn := range p.transient {
			fn()
		}
	}
	p.transient = nil
}

// appendQuad appends the two triangles of r. attrs appends the per-vertex
// attributes after the position.
func appendQuad(buf []byte, r geom.Rect, attrs func([]byte, geom.Point) []byte) []byte {
	tl := geom.Point{X: r.Left, Y: r.Top}
	tr := geom.Point{X: r.Right, Y: r.Top}
	br := geom.Point{X: r.Right, Y: r.Bottom}
	bl := geom.Point{X: r.Left, Y: r.Bottom}
	for _, pt := range [6]geom.Point{tl, tr, br, tl, br, bl} {
		buf = appendFloats(buf, float32(pt.X), float32(pt.Y))
		buf = attrs(buf, pt)
	}
	return buf
}

func appendFloats(buf []byte, vs ...float32) []byte {
	for _, v := range vs {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}
