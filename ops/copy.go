package ops

import (
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/proxy"
)

// CopyOp copies a rectangle of another texture into the render target.
// Copies never combine.
type CopyOp struct {
	opBase
	src     *proxy.TextureProxy
	srcRect geom.IRect
	dst     geom.IPoint
}

// NewCopyOp copies srcRect of src to dst in the target. The op holds a
// reference to src until it is executed.
func NewCopyOp(src *proxy.TextureProxy, srcRect geom.IRect, dst geom.IPoint) *CopyOp {
	op := &CopyOp{
		opBase:  opBase{class: ClassCopy, bounds: geom.IRectXYWH(dst.X, dst.Y, srcRect.Width(), srcRect.Height()).Rect()},
		src:     src,
		srcRect: srcRect,
		dst:     dst,
	}
	refProxies(op)
	return op
}

// VisitProxies implements Op.
func (op *CopyOp) VisitProxies(fn func(proxy.Proxy)) { fn(op.src) }

// Prepare implements Op.
func (op *CopyOp) Prepare(*FlushState) error { return nil }

// Execute implements Op.
func (op *CopyOp) Execute(_ *FlushState, pass RenderPass) error {
	tex, err := op.src.Backing()
	if err != nil {
		return err
	}
	pass.CopyToTexture(tex, op.srcRect, op.dst)
	return nil
}

func (op *CopyOp) combine(Op) bool { return false }
