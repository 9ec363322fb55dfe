package ops

import (
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/proxy"
)

// ClearOp sets every pixel inside a scissor rectangle to a color.
type ClearOp struct {
	opBase
	scissor geom.IRect
	color   Color
}

// NewClearOp returns a clear of scissor to c.
func NewClearOp(scissor geom.IRect, c Color) *ClearOp {
	return &ClearOp{
		opBase:  opBase{class: ClassClear, bounds: scissor.Rect()},
		scissor: scissor,
		color:   c,
	}
}

// Scissor returns the cleared rectangle.
func (op *ClearOp) Scissor() geom.IRect { return op.scissor }

// Color returns the clear color.
func (op *ClearOp) Color() Color { return op.color }

// VisitProxies implements Op.
func (op *ClearOp) VisitProxies(func(proxy.Proxy)) {}

// Prepare implements Op.
func (op *ClearOp) Prepare(*FlushState) error { return nil }

// Execute implements Op.
func (op *ClearOp) Execute(_ *FlushState, pass RenderPass) error {
	pass.Clear(op.scissor, op.color)
	return nil
}

// A later clear covering this one replaces it outright. A later clear of
// the same color inside this one changes nothing.
func (op *ClearOp) combine(incoming Op) bool {
	in, ok := incoming.(*ClearOp)
	if !ok {
		return false
	}
	if in.scissor.Contains(op.scissor) {
		op.scissor = in.scissor
		op.color = in.color
		return true
	}
	if in.color == op.color && op.scissor.Contains(in.scissor) {
		return true
	}
	return false
}
