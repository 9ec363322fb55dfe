package software

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/gogpu/gr/backend"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/ops"
	"github.com/gogpu/gr/program"
	"github.com/gogpu/gr/resource"
)

// bindings is the pipeline state captured by each draw.
type bindings struct {
	prog       *Program
	uniform    *Buffer
	uniformOff uint64
	tex        *Texture
	filter     ops.Filter
	vertices   *Buffer
	vertexOff  uint64
	indices    *Buffer
	indexOff   uint64
}

// pass records commands and replays them on Submit.
type pass struct {
	backend *Backend
	target  *Texture
	info    ops.Target

	state bindings
	cmds  []func() error
	err   error

	begun, ended, submitted bool
}

func (p *pass) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *pass) record(cmd func() error) {
	if !p.begun || p.ended {
		p.fail(fmt.Errorf("%w: command outside Begin/End", backend.ErrPassState))
		return
	}
	p.cmds = append(p.cmds, cmd)
}

func (p *pass) Begin() error {
	if p.begun {
		return fmt.Errorf("%w: Begin called twice", backend.ErrPassState)
	}
	p.begun = true
	p.backend.passes.Add(1)
	return nil
}

func (p *pass) SetPipeline(prog program.Program) {
	sp, ok := prog.(*Program)
	if !ok || !sp.live {
		p.fail(fmt.Errorf("%w: pipeline %T", backend.ErrForeignObject, prog))
		return
	}
	p.state.prog = sp
}

func (p *pass) SetUniformBuffer(buf resource.Backing, offset, size uint64) {
	b := p.buffer(buf)
	if b != nil && offset+size > b.Size() {
		p.fail(fmt.Errorf("%w: uniform range %d+%d", ErrOutOfRange, offset, size))
		return
	}
	p.state.uniform, p.state.uniformOff = b, offset
}

func (p *pass) SetTexture(tex resource.Backing, filter ops.Filter) {
	t, ok := tex.(*Texture)
	if !ok {
		p.fail(fmt.Errorf("%w: texture %T", backend.ErrForeignObject, tex))
		return
	}
	p.state.tex, p.state.filter = t, filter
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
	st, ok := p.drawState(false)
	if !ok {
		return
	}
	p.record(func() error {
		idx := make([]uint32, vertexCount)
		for i := range idx {
			idx[i] = firstVertex + uint32(i) //nolint:gosec // G115: bounded by vertexCount
		}
		return p.drawTriangles(st, idx)
	})
}

func (p *pass) DrawIndexed(indexCount, firstIndex uint32, baseVertex int32) {
	st, ok := p.drawState(true)
	if !ok {
		return
	}
	p.record(func() error {
		end := st.indexOff + 2*uint64(firstIndex+indexCount)
		if st.indices.data == nil {
			return ErrDestroyed
		}
		if end > uint64(len(st.indices.data)) {
			return fmt.Errorf("%w: %d indices from %d", ErrOutOfRange, indexCount, firstIndex)
		}
		idx := make([]uint32, indexCount)
		for i := range idx {
			v := int64(st.indices.uint16At(st.indexOff+2*uint64(firstIndex+uint32(i)))) + int64(baseVertex) //nolint:gosec // G115: bounded by indexCount
			if v < 0 {
				return fmt.Errorf("%w: negative vertex index", ErrOutOfRange)
			}
			idx[i] = uint32(v) //nolint:gosec // G115: checked non-negative
		}
		return p.drawTriangles(st, idx)
	})
}

func (p *pass) drawState(indexed bool) (bindings, bool) {
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
		return st, true
	}
	return bindings{}, false
}

func (p *pass) Clear(scissor geom.IRect, c ops.Color) {
	p.record(func() error {
		draw.Draw(p.target.img, toRect(scissor), image.NewUniform(c), image.Point{}, draw.Src)
		return nil
	})
}

func (p *pass) Resolve(dst resource.Backing, rect geom.IRect) {
	t, ok := dst.(*Texture)
	if !ok {
		p.fail(fmt.Errorf("%w: resolve target %T", backend.ErrForeignObject, dst))
		return
	}
	p.record(func() error {
		if t.img == nil {
			return ErrDestroyed
		}
		r := toRect(rect)
		draw.Draw(t.img, r, p.target.img, r.Min, draw.Src)
		return nil
	})
}

func (p *pass) CopyToTexture(src resource.Backing, srcRect geom.IRect, dst geom.IPoint) {
	t, ok := src.(*Texture)
	if !ok {
		p.fail(fmt.Errorf("%w: copy source %T", backend.ErrForeignObject, src))
		return
	}
	p.record(func() error {
		if t.img == nil {
			return ErrDestroyed
		}
		sr := toRect(srcRect)
		dr := sr.Sub(sr.Min).Add(image.Pt(dst.X, dst.Y))
		draw.Draw(p.target.img, dr, t.img, sr.Min, draw.Src)
		return nil
	})
}

func (p *pass) End() error {
	if !p.begun || p.ended {
		p.fail(fmt.Errorf("%w: End without Begin", backend.ErrPassState))
	}
	p.ended = true
	return p.err
}

func (p *pass) replay() error {
	if p.err != nil {
		return p.err
	}
	if p.target.img == nil {
		return ErrDestroyed
	}
	for _, cmd := range p.cmds {
		if err := cmd(); err != nil {
			return err
		}
	}
	return nil
}

func toRect(r geom.IRect) image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Right, r.Bottom)
}
