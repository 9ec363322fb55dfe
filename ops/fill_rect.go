package ops

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/program"
	"github.com/gogpu/gr/proxy"
	"github.com/gogpu/gr/resource"
)

// MaxFillRects caps the rectangles batched into one FillRectOp, keeping
// vertex indices within uint16.
const MaxFillRects = 1024

type coloredRect struct {
	rect  geom.Rect
	color Color
}

// FillRectOp draws a batch of solid rectangles with one blend mode.
type FillRectOp struct {
	opBase
	rects []coloredRect
	blend program.Blend

	prog     program.Program
	uniform  *resource.Resource
	vertices *resource.Resource
	indices  *resource.Resource
}

// NewFillRectOp returns an op filling r with c.
func NewFillRectOp(r geom.Rect, c Color, blend program.Blend) *FillRectOp {
	return &FillRectOp{
		opBase: opBase{class: ClassFillRect, bounds: r},
		rects:  []coloredRect{{rect: r, color: c}},
		blend:  blend,
	}
}

// NumRects returns the number of batched rectangles.
func (op *FillRectOp) NumRects() int { return len(op.rects) }

// VisitProxies implements Op.
func (op *FillRectOp) VisitProxies(func(proxy.Proxy)) {}

// Prepare implements Op.
func (op *FillRectOp) Prepare(fs *FlushState) error {
	prog, err := fs.Program(program.SolidColor{
		Format:      fs.TargetFormat(),
		Blend:       op.blend,
		SampleCount: fs.TargetSamples(),
	})
	if err != nil {
		return err
	}

	verts := make([]byte, 0, len(op.rects)*4*program.SolidVertexStride)
	idx := make([]byte, 0, len(op.rects)*6*2)
	for i, cr := range op.rects {
		r := cr.rect
		for _, p := range [4]geom.Point{
			{X: r.Left, Y: r.Top}, {X: r.Right, Y: r.Top},
			{X: r.Right, Y: r.Bottom}, {X: r.Left, Y: r.Bottom},
		} {
			verts = appendFloats(verts, float32(p.X), float32(p.Y),
				cr.color.R, cr.color.G, cr.color.B, cr.color.A)
		}
		base := uint16(i * 4) //nolint:gosec // G115: bounded by MaxFillRects
		for _, k := range [6]uint16{0, 1, 2, 0, 2, 3} {
			idx = binary.LittleEndian.AppendUint16(idx, base+k)
		}
	}

	if op.uniform, err = fs.ViewportUniform(); err != nil {
		return err
	}
	if op.vertices, err = fs.UploadVertices(verts); err != nil {
		return err
	}
	if op.indices, err = fs.UploadIndices(idx); err != nil {
		return err
	}
	op.prog = prog
	return nil
}

// Execute implements Op.
func (op *FillRectOp) Execute(_ *FlushState, pass RenderPass) error {
	pass.SetPipeline(op.prog)
	pass.SetUniformBuffer(op.uniform.Backing(), 0, program.UniformSize)
	pass.SetVertexBuffer(op.vertices.Backing(), 0)
	pass.SetIndexBuffer(op.indices.Backing(), 0)
	pass.DrawIndexed(uint32(len(op.rects)*6), 0, 0) //nolint:gosec // G115: bounded by MaxFillRects
	return nil
}

func (op *FillRectOp) combine(incoming Op) bool {
	in, ok := incoming.(*FillRectOp)
	if !ok || in.blend != op.blend || len(op.rects)+len(in.rects) > MaxFillRects {
		return false
	}
	op.rects = append(op.rects, in.rects...)
	return true
}

func appendFloats(buf []byte, vs ...float32) []byte {
	for _, v := range vs {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}
