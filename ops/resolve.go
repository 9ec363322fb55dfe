package ops

import (
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/proxy"
)

// ResolveOp resolves the multisampled render target into a single-sample
// texture. Consecutive resolves into the same texture merge.
type ResolveOp struct {
	opBase
	dst  *proxy.TextureProxy
	rect geom.IRect
}

// NewResolveOp resolves rect of the target into dst. The op holds a
// reference to dst until it is executed.
func NewResolveOp(dst *proxy.TextureProxy, rect geom.IRect) *ResolveOp {
	op := &ResolveOp{
		opBase: opBase{class: ClassResolve, bounds: rect.Rect()},
		dst:    dst,
		rect:   rect,
	}
	refProxies(op)
	return op
}

// Rect returns the resolved area.
func (op *ResolveOp) Rect() geom.IRect { return op.rect }

// VisitProxies implements Op.
func (op *ResolveOp) VisitProxies(fn func(proxy.Proxy)) { fn(op.dst) }

// Prepare implements Op.
func (op *ResolveOp) Prepare(*FlushState) error { return nil }

// Execute implements Op.
func (op *ResolveOp) Execute(_ *FlushState, pass RenderPass) error {
	tex, err := op.dst.Backing()
	if err != nil {
		return err
	}
	pass.Resolve(tex, op.rect)
	return nil
}

func (op *ResolveOp) combine(incoming Op) bool {
	in, ok := incoming.(*ResolveOp)
	if !ok || in.dst != op.dst {
		return false
	}
	op.rect = op.rect.Union(in.rect)
	return true
}
