// Package bsp orders 3D-transformed layer polygons for depth-correct
// compositing.
//
// A Tree partitions polygons by the planes they lie in. Walking it yields
// an exact back-to-front (or front-to-back) order even for polygons that
// intersect each other, which a Z sort cannot provide: straddling polygons
// are split along the partitioning plane.
//
// Nodes live in a flat arena and refer to each other by index, so a tree
// is built iteratively and dropped in one piece.
//
//	tree := bsp.NewTree(polys)
//	tree.TraverseBackToFront(func(p *bsp.Polygon) {
//		draw(p.ID, p.Vertices)
//	})
package bsp
