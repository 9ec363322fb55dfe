// Package geom holds the small set of geometric value types the gr core
// needs at its boundary: float rectangles for op bounds, integer rectangles
// for scissors and copies, 2D points, 3D vectors and a 4x4 matrix for 3D
// layer transforms.
//
// It is deliberately minimal. Paths, curves and stroking live in the host
// graphics library, not here.
package geom
