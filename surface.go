package gr

import (
	"image/color"

	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/ops"
	"github.com/gogpu/gr/program"
	"github.com/gogpu/gr/proxy"
)

// SurfaceDrawContext records draws into one render target. Nothing reaches
// the GPU until the owning Context flushes.
//
// Draws on an abandoned or released context are dropped silently.
type SurfaceDrawContext struct {
	ctx      *Context
	rt       *proxy.RenderTargetProxy
	released bool
}

// Context returns the owning context.
func (s *SurfaceDrawContext) Context() *Context { return s.ctx }

// Target returns the render target proxy.
func (s *SurfaceDrawContext) Target() *proxy.RenderTargetProxy { return s.rt }

// Texture returns the proxy to sample the surface's pixels from. For a
// multisampled surface this is the resolve texture.
func (s *SurfaceDrawContext) Texture() *proxy.TextureProxy { return s.rt.SampledProxy() }

// Width returns the surface width in pixels.
func (s *SurfaceDrawContext) Width() int {
	w, _ := s.rt.Dimensions()
	return w
}

// Height returns the surface height in pixels.
func (s *SurfaceDrawContext) Height() int {
	_, h := s.rt.Dimensions()
	return h
}

// Bounds returns the surface rectangle with its origin at (0,0).
func (s *SurfaceDrawContext) Bounds() geom.IRect {
	w, h := s.rt.Dimensions()
	return geom.IRectWH(w, h)
}

// SampleCount returns the MSAA sample count of the surface.
func (s *SurfaceDrawContext) SampleCount() uint32 { return s.rt.SampleCount() }

func (s *SurfaceDrawContext) addOp(op ops.Op) {
	if s.released || s.ctx.IsAbandoned() {
		op.VisitProxies(func(p proxy.Proxy) { p.Release() })
		s.ctx.logger().Debug("gr: draw dropped on closed surface", "class", op.ClassID())
		return
	}
	if err := s.ctx.manager.AddOp(s.rt, op); err != nil {
		s.ctx.logger().Debug("gr: draw dropped", "class", op.ClassID(), "err", err)
	}
}

// samples reports whether tp is the surface's own target or resolve
// texture. Such draws are dropped when recorded.
func (s *SurfaceDrawContext) samples(tp *proxy.TextureProxy) bool {
	if tp.ID() == s.rt.ID() {
		return true
	}
	r := s.rt.ResolveProxy()
	return r != nil && tp.ID() == r.ID()
}

// Clear sets every pixel of rect, clipped to the surface, to c.
func (s *SurfaceDrawContext) Clear(rect geom.IRect, c color.Color) {
	rect = rect.Intersect(s.Bounds())
	if rect.IsEmpty() {
		return
	}
	s.addOp(ops.NewClearOp(rect, ops.ColorFrom(c)))
}

// FillRect blends c over r with source-over.
func (s *SurfaceDrawContext) FillRect(r geom.Rect, c color.Color) {
	s.FillRectBlend(r, c, program.BlendSrcOver)
}

// FillRectBlend fills r with c using blend.
func (s *SurfaceDrawContext) FillRectBlend(r geom.Rect, c color.Color, blend program.Blend) {
	r = r.Intersect(s.Bounds().Rect())
	if r.IsEmpty() {
		return
	}
	col := ops.ColorFrom(c)
	if blend == program.BlendSrcOver && col.A == 0 {
		return
	}
	s.addOp(ops.NewFillRectOp(r, col, blend))
}

// DrawTexture draws the texel rectangle src of tp into dst, scaled by
// alpha. The op keeps tp alive until it executes. Drawing the surface's
// own Texture into it is dropped.
func (s *SurfaceDrawContext) DrawTexture(tp *proxy.TextureProxy, src, dst geom.Rect, alpha float32, filter ops.Filter) {
	if tp == nil || alpha <= 0 || src.IsEmpty() || !dst.Intersects(s.Bounds().Rect()) {
		return
	}
	s.addOp(ops.NewTextureOp(tp, src, dst, alpha, filter))
}

// DrawPolygon draws a convex polygon textured with tp. UVs are normalized
// to the texture size.
func (s *SurfaceDrawContext) DrawPolygon(tp *proxy.TextureProxy, verts []ops.TexVertex, alpha float32, filter ops.Filter) {
	if tp == nil || alpha <= 0 || len(verts) < 3 {
		return
	}
	s.addOp(ops.NewTexturePolygonOp(tp, verts, alpha, filter))
}

// CopyFrom copies srcRect of src to dst in this surface without blending.
func (s *SurfaceDrawContext) CopyFrom(src *proxy.TextureProxy, srcRect geom.IRect, dst geom.IPoint) {
	if src == nil {
		return
	}
	w, h := src.Dimensions()
	srcRect = srcRect.Intersect(geom.IRectWH(w, h))
	if srcRect.IsEmpty() {
		return
	}
	s.addOp(ops.NewCopyOp(src, srcRect, dst))
}

// Resolve records a resolve of the multisampled surface into its resolve
// texture. It does nothing for single-sampled surfaces.
//
// Draws recorded after Resolve in the same flush may or may not reach the
// resolve texture depending on the backend: the software backend resolves
// at the point of the call, the native backend at the end of the pass.
// Call Resolve last.
func (s *SurfaceDrawContext) Resolve() {
	r := s.rt.ResolveProxy()
	if r == nil {
		return
	}
	s.addOp(ops.NewResolveOp(r, s.Bounds()))
}

// Release drops the surface's reference to its render target. Work already
// recorded still executes at the next flush.
// Later draws are dropped.
func (s *SurfaceDrawContext) Release() {
	if s.released {
		return
	}
	s.released = true
	s.rt.Release()
}
