package ops

import (
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/program"
	"github.com/gogpu/gr/proxy"
	"github.com/gogpu/gr/resource"
)

// MaxTextureVertices caps the triangle vertices batched into one TextureOp.
const MaxTextureVertices = 6 * 4096

// TexVertex is a polygon vertex in device space with a normalized texture
// coordinate.
type TexVertex struct {
	Pos geom.Point
	UV  geom.Point
}

type texPolygon struct {
	verts []TexVertex
	alpha float32
}

// TextureOp draws a batch of convex polygons sampling one texture proxy.
type TextureOp struct {
	opBase
	proxy  *proxy.TextureProxy
	filter Filter
	blend  program.Blend
	polys  []texPolygon
	nverts int

	prog     program.Program
	uniform  *resource.Resource
	vertices *resource.Resource
}

// NewTextureOp draws srcRect (in texels) of p into dstRect with coverage
// alpha. The op holds a reference to p until it is executed.
func NewTextureOp(p *proxy.TextureProxy, srcRect, dstRect geom.Rect, alpha float32, filter Filter) *TextureOp {
	w, h := p.Dimensions()
	sx, sy := 1/float64(w), 1/float64(h)
	verts := []TexVertex{
		{Pos: geom.Pt(dstRect.Left, dstRect.Top), UV: geom.Pt(srcRect.Left*sx, srcRect.Top*sy)},
		{Pos: geom.Pt(dstRect.Right, dstRect.Top), UV: geom.Pt(srcRect.Right*sx, srcRect.Top*sy)},
		{Pos: geom.Pt(dstRect.Right, dstRect.Bottom), UV: geom.Pt(srcRect.Right*sx, srcRect.Bottom*sy)},
		{Pos: geom.Pt(dstRect.Left, dstRect.Bottom), UV: geom.Pt(srcRect.Left*sx, srcRect.Bottom*sy)},
	}
	return NewTexturePolygonOp(p, verts, alpha, filter)
}

// NewTexturePolygonOp draws a convex polygon of at least three vertices
// sampling p. The op holds a reference to p until it is executed.
func NewTexturePolygonOp(p *proxy.TextureProxy, verts []TexVertex, alpha float32, filter Filter) *TextureOp {
	var bounds geom.Rect
	for i, v := range verts {
		pt := geom.Rect{Left: v.Pos.X, Top: v.Pos.Y, Right: v.Pos.X, Bottom: v.Pos.Y}
		if i == 0 {
			bounds = pt
			continue
		}
		bounds.Left = min(bounds.Left, pt.Left)
		bounds.Top = min(bounds.Top, pt.Top)
		bounds.Right = max(bounds.Right, pt.Right)
		bounds.Bottom = max(bounds.Bottom, pt.Bottom)
	}
	op := &TextureOp{
		opBase: opBase{class: ClassTexture, bounds: bounds},
		proxy:  p,
		filter: filter,
		blend:  program.BlendSrcOver,
		polys:  []texPolygon{{verts: verts, alpha: alpha}},
		nverts: fanVertices(len(verts)),
	}
	refProxies(op)
	return op
}

// Proxy returns the sampled texture proxy.
func (op *TextureOp) Proxy() *proxy.TextureProxy { return op.proxy }

// NumPolygons returns the number of batched polygons.
func (op *TextureOp) NumPolygons() int { return len(op.polys) }

// VisitProxies implements Op.
func (op *TextureOp) VisitProxies(fn func(proxy.Proxy)) { fn(op.proxy) }

// Prepare implements Op.
func (op *TextureOp) Prepare(fs *FlushState) error {
	prog, err := fs.Program(program.TexturedQuad{
		Format:      fs.TargetFormat(),
		Blend:       op.blend,
		SampleCount: fs.TargetSamples(),
	})
	if err != nil {
		return err
	}
	if op.nverts == 0 {
		op.prog = prog
		return nil
	}

	data := make([]byte, 0, op.nverts*program.TexturedVertexStride)
	for _, poly := range op.polys {
		v := poly.verts
		for i := 1; i+1 < len(v); i++ {
			for _, tv := range [3]TexVertex{v[0], v[i], v[i+1]} {
				data = appendFloats(data, float32(tv.Pos.X), float32(tv.Pos.Y),
					float32(tv.UV.X), float32(tv.UV.Y), poly.alpha)
			}
		}
	}
	if op.uniform, err = fs.ViewportUniform(); err != nil {
		return err
	}
	if op.vertices, err = fs.UploadVertices(data); err != nil {
		return err
	}
	op.prog = prog
	return nil
}

// Execute implements Op.
func (op *TextureOp) Execute(_ *FlushState, pass RenderPass) error {
	if op.nverts == 0 {
		return nil
	}
	tex, err := op.proxy.Backing()
	if err != nil {
		return err
	}
	pass.SetPipeline(op.prog)
	pass.SetUniformBuffer(op.uniform.Backing(), 0, program.UniformSize)
	pass.SetTexture(tex, op.filter)
	pass.SetVertexBuffer(op.vertices.Backing(), 0)
	pass.Draw(uint32(op.nverts), 0) //nolint:gosec // G115: bounded by MaxTextureVertices
	return nil
}

func (op *TextureOp) combine(incoming Op) bool {
	in, ok := incoming.(*TextureOp)
	if !ok || in.proxy != op.proxy || in.filter != op.filter || in.blend != op.blend {
		return false
	}
	if op.nverts+in.nverts > MaxTextureVertices {
		return false
	}
	op.polys = append(op.polys, in.polys...)
	op.nverts += in.nverts
	return true
}

// fanVertices returns the triangle-list vertex count of an n-gon fan.
func fanVertices(n int) int {
	if n < 3 {
		return 0
	}
	return (n - 2) * 3
}
