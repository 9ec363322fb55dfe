package bsp

import "github.com/gogpu/gr/geom"

const none = -1

type node struct {
	poly          Polygon
	coplanarFront []Polygon
	coplanarBack  []Polygon
	front, back   int
}

// Tree is a BSP tree over a set of polygons. It is built once per frame,
// traversed, and discarded.
type Tree struct {
	nodes []node
	root  int
}

// Order selects the traversal direction.
type Order uint8

const (
	BackToFront Order = iota
	FrontToBack
)

// NewTree partitions polys. The first polygon of every subset becomes the
// splitting plane of its node. Polygons with fewer than three vertices are
// ignored. The input slice is not modified.
func NewTree(polys []Polygon) *Tree {
	t := &Tree{root: none}
	polys = usable(polys)
	if len(polys) == 0 {
		return t
	}
	t.nodes = make([]node, 0, len(polys))

	type work struct {
		polys  []Polygon
		parent int
		front  bool
	}
	stack := []work{{polys: polys, parent: none}}
	for len(stack) > 0 {
		w := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		idx := len(t.nodes)
		t.nodes = append(t.nodes, node{poly: w.polys[0], front: none, back: none})
		switch {
		case w.parent == none:
			t.root = idx
		case w.front:
			t.nodes[w.parent].front = idx
		default:
			t.nodes[w.parent].back = idx
		}

		n := &t.nodes[idx]
		var front, back []Polygon
		for i := 1; i < len(w.polys); i++ {
			p := &w.polys[i]
			switch classify(&n.poly, p) {
			case sideFront:
				front = append(front, *p)
			case sideBack:
				back = append(back, *p)
			case sideCoplanarFront:
				n.coplanarFront = append(n.coplanarFront, *p)
			case sideCoplanarBack:
				n.coplanarBack = append(n.coplanarBack, *p)
			case sideSplit:
				f, b := split(&n.poly, p)
				if f.Vertices != nil {
					front = append(front, f)
				}
				if b.Vertices != nil {
					back = append(back, b)
				}
			}
		}
		if len(back) > 0 {
			stack = append(stack, work{polys: back, parent: idx})
		}
		if len(front) > 0 {
			stack = append(stack, work{polys: front, parent: idx, front: true})
		}
	}
	return t
}

func usable(polys []Polygon) []Polygon {
	for i := range polys {
		if len(polys[i].Vertices) >= 3 {
			continue
		}
		out := make([]Polygon, 0, len(polys)-1)
		out = append(out, polys[:i]...)
		for _, p := range polys[i+1:] {
			if len(p.Vertices) >= 3 {
				out = append(out, p)
			}
		}
		return out
	}
	return polys
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// NumPolygons returns the number of polygons and fragments in the tree.
func (t *Tree) NumPolygons() int {
	n := 0
	for i := range t.nodes {
		n += 1 + len(t.nodes[i].coplanarFront) + len(t.nodes[i].coplanarBack)
	}
	return n
}

// TraverseBackToFront visits every polygon from farthest to nearest for a
// viewer on the +Z axis looking toward -Z.
func (t *Tree) TraverseBackToFront(visit func(p *Polygon)) {
	t.Traverse(geom.V3(0, 0, -1), BackToFront, visit)
}

// TraverseFrontToBack visits polygons in the exact reverse of
// TraverseBackToFront.
func (t *Tree) TraverseFrontToBack(visit func(p *Polygon)) {
	t.Traverse(geom.V3(0, 0, -1), FrontToBack, visit)
}

// Traverse visits every polygon in the given order for a viewer looking
// along viewDir.
func (t *Tree) Traverse(viewDir geom.Vec3, order Order, visit func(p *Polygon)) {
	if t.root == none {
		return
	}

	// A stack entry either expands a node or visits one polygon.
	type item struct {
		node int
		poly *Polygon
	}
	stack := []item{{node: t.root}}
	push := func(node int) {
		if node != none {
			stack = append(stack, item{node: node})
		}
	}
	pushPolys := func(polys []Polygon, reverse bool) {
		// Pushed so that pops come out in slice order, or reversed.
		if reverse {
			for i := range polys {
				stack = append(stack, item{poly: &polys[i]})
			}
			return
		}
		for i := len(polys) - 1; i >= 0; i-- {
			stack = append(stack, item{poly: &polys[i]})
		}
	}

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.poly != nil {
			visit(it.poly)
			continue
		}

		n := &t.nodes[it.node]
		// A polygon facing the viewer has its back half-space farther away.
		farChild, nearChild := n.front, n.back
		farCoplanar, nearCoplanar := n.coplanarFront, n.coplanarBack
		if n.poly.Normal.Dot(viewDir) < 0 {
			farChild, nearChild = n.back, n.front
			farCoplanar, nearCoplanar = n.coplanarBack, n.coplanarFront
		}
		firstChild, secondChild := farChild, nearChild
		firstCoplanar, secondCoplanar := farCoplanar, nearCoplanar
		reverse := order == FrontToBack
		if reverse {
			firstChild, secondChild = nearChild, farChild
			firstCoplanar, secondCoplanar = nearCoplanar, farCoplanar
		}

		// Visit order: first child, first coplanars, node, second
		// coplanars, second child. Push in reverse.
		push(secondChild)
		pushPolys(secondCoplanar, reverse)
		stack = append(stack, item{poly: &n.poly})
		pushPolys(firstCoplanar, reverse)
		push(firstChild)
	}
}
