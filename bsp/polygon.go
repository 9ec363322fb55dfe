package bsp

import (
	"errors"
	"math"

	"github.com/gogpu/gr/geom"
)

// SplitThreshold is the distance from a plane below which a vertex counts
// as lying on it.
const SplitThreshold = 0.05

// ErrDegenerate is returned for polygons with fewer than three vertices or
// no well-defined normal.
var ErrDegenerate = errors.New("bsp: degenerate polygon")

// Vertex is a polygon corner with its texture coordinate.
type Vertex struct {
	Pos geom.Vec3
	UV  geom.Point
}

// Polygon is a planar convex polygon. Fragments produced by splitting keep
// the ID and normal of the polygon they came from.
type Polygon struct {
	Vertices []Vertex
	Normal   geom.Vec3

	// ID identifies the layer the polygon belongs to.
	ID int
}

// NewPolygon returns a polygon over verts with its normal computed by
// Newell's method, which tolerates nearly collinear corners.
func NewPolygon(verts []Vertex, id int) (Polygon, error) {
	if len(verts) < 3 {
		return Polygon{}, ErrDegenerate
	}
	n := newellNormal(verts)
	if n.Length() == 0 || math.IsNaN(n.X) {
		return Polygon{}, ErrDegenerate
	}
	return Polygon{Vertices: verts, Normal: n.Normalize(), ID: id}, nil
}

// NewPolygonFromQuad maps the corners of r through m, dividing by w, and
// returns the resulting polygon. UVs run from (0,0) at the top-left corner
// of r to (1,1) at the bottom-right. It fails when a corner lands behind
// the viewer or the mapped quad has no area in any projection.
func NewPolygonFromQuad(r geom.Rect, m geom.Matrix44, id int) (Polygon, error) {
	corners := [4]Vertex{
		{Pos: geom.V3(r.Left, r.Top, 0), UV: geom.Pt(0, 0)},
		{Pos: geom.V3(r.Right, r.Top, 0), UV: geom.Pt(1, 0)},
		{Pos: geom.V3(r.Right, r.Bottom, 0), UV: geom.Pt(1, 1)},
		{Pos: geom.V3(r.Left, r.Bottom, 0), UV: geom.Pt(0, 1)},
	}
	verts := make([]Vertex, 0, 4)
	for _, c := range corners {
		p, ok := m.MapPoint(c.Pos)
		if !ok {
			return Polygon{}, ErrDegenerate
		}
		verts = append(verts, Vertex{Pos: p, UV: c.UV})
	}
	return NewPolygon(verts, id)
}

// IsFacingPositiveZ reports whether the polygon faces a viewer on +Z.
func (p *Polygon) IsFacingPositiveZ() bool { return p.Normal.Z > 0 }

// distance returns the signed distance of pt from the polygon's plane.
func (p *Polygon) distance(pt geom.Vec3) float64 {
	return p.Normal.Dot(pt.Sub(p.Vertices[0].Pos))
}

// side is the result of classifying a polygon against a plane.
type side uint8

const (
	sideFront side = iota
	sideBack
	sideCoplanarFront
	sideCoplanarBack
	sideSplit
)

// classify places p relative to the plane of splitter.
func classify(splitter, p *Polygon) side {
	var front, back bool
	for _, v := range p.Vertices {
		switch d := splitter.distance(v.Pos); {
		case d > SplitThreshold:
			front = true
		case d < -SplitThreshold:
			back = true
		}
	}
	switch {
	case front && back:
		return sideSplit
	case front:
		return sideFront
	case back:
		return sideBack
	case splitter.Normal.Dot(p.Normal) >= 0:
		return sideCoplanarFront
	default:
		return sideCoplanarBack
	}
}

// split cuts p along the plane of splitter. Vertices within SplitThreshold
// of the plane go to both fragments. A fragment that collapses below three
// vertices is returned empty.
func split(splitter, p *Polygon) (front, back Polygon) {
	n := len(p.Vertices)
	dist := make([]float64, n)
	for i, v := range p.Vertices {
		dist[i] = splitter.distance(v.Pos)
	}
	sign := func(d float64) int {
		switch {
		case d > SplitThreshold:
			return 1
		case d < -SplitThreshold:
			return -1
		}
		return 0
	}

	var fv, bv []Vertex
	for i := range n {
		j := (i + 1) % n
		a, b := p.Vertices[i], p.Vertices[j]
		sa, sb := sign(dist[i]), sign(dist[j])
		if sa >= 0 {
			fv = append(fv, a)
		}
		if sa <= 0 {
			bv = append(bv, a)
		}
		if sa*sb < 0 {
			t := dist[i] / (dist[i] - dist[j])
			cut := Vertex{Pos: a.Pos.Lerp(b.Pos, t), UV: a.UV.Lerp(b.UV, t)}
			fv = append(fv, cut)
			bv = append(bv, cut)
		}
	}
	if len(fv) >= 3 {
		front = Polygon{Vertices: fv, Normal: p.Normal, ID: p.ID}
	}
	if len(bv) >= 3 {
		back = Polygon{Vertices: bv, Normal: p.Normal, ID: p.ID}
	}
	return front, back
}

func newellNormal(verts []Vertex) geom.Vec3 {
	var n geom.Vec3
	for i, v := range verts {
		w := verts[(i+1)%len(verts)].Pos
		n.X += (v.Pos.Y - w.Y) * (v.Pos.Z + w.Z)
		n.Y += (v.Pos.Z - w.Z) * (v.Pos.X + w.X)
		n.Z += (v.Pos.X - w.X) * (v.Pos.Y + w.Y)
	}
	return n
}
