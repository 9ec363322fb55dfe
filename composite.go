package gr

import (
	"github.com/gogpu/gr/bsp"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/ops"
	"github.com/gogpu/gr/proxy"
)

// Layer3D is a textured quad placed in 3D for Composite3D.
type Layer3D struct {
	// Texture is stretched over Rect.
	Texture *proxy.TextureProxy

	// Rect is the quad in layer space. An empty Rect uses the texture
	// bounds.
	Rect geom.Rect

	// Transform maps layer space to surface space. Z grows toward the
	// viewer; w is divided out after mapping.
	Transform geom.Matrix44

	// Alpha scales the layer's coverage. Layers with zero alpha are
	// skipped.
	Alpha float32

	Filter ops.Filter
}

// Composite3D draws layers into s in depth order. The transformed quads
// are sorted with a BSP tree so that intersecting or cyclically
// overlapping layers are split and painted back to front. Layers whose
// quad maps to no area, or behind the viewer, are skipped, as are layers
// textured with s itself.
//
// It returns the number of polygon fragments recorded.
func (c *Context) Composite3D(s *SurfaceDrawContext, layers []Layer3D) (int, error) {
	if s.ctx != c {
		return 0, ErrForeignSurface
	}
	if err := c.closedErr(); err != nil {
		return 0, err
	}

	polys := make([]bsp.Polygon, 0, len(layers))
	for i, l := range layers {
		if l.Texture == nil || l.Alpha <= 0 {
			continue
		}
		if s.samples(l.Texture) {
			c.logger().Warn("gr: layer samples its own surface", "layer", i)
			continue
		}
		r := l.Rect
		if r.IsEmpty() {
			w, h := l.Texture.Dimensions()
			r = geom.RectXYWH(0, 0, float64(w), float64(h))
		}
		p, err := bsp.NewPolygonFromQuad(r, l.Transform, i)
		if err != nil {
			c.logger().Debug("gr: layer skipped", "layer", i, "err", err)
			continue
		}
		polys = append(polys, p)
	}

	tree := bsp.NewTree(polys)
	fragments := 0
	tree.TraverseBackToFront(func(p *bsp.Polygon) {
		l := &layers[p.ID]
		verts := make([]ops.TexVertex, len(p.Vertices))
		for i, v := range p.Vertices {
			verts[i] = ops.TexVertex{Pos: v.Pos.XY(), UV: v.UV}
		}
		s.DrawPolygon(l.Texture, verts, l.Alpha, l.Filter)
		fragments++
	})
	c.logger().Debug("gr: composited layers",
		"layers", len(layers), "polygons", len(polys), "fragments", fragments)
	return fragments, nil
}
