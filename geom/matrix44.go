package geom

import "math"

// Matrix44 is a 4x4 transformation matrix in row-major order, applied to
// column vectors:
//
//	| M[0]  M[1]  M[2]  M[3]  |   | x |
//	| M[4]  M[5]  M[6]  M[7]  | * | y |
//	| M[8]  M[9]  M[10] M[11] |   | z |
//	| M[12] M[13] M[14] M[15] |   | w |
//
// It describes the placement of composited layers in 3D space.
type Matrix44 struct {
	M [16]float64
}

// Identity44 returns the identity matrix.
func Identity44() Matrix44 {
	return Matrix44{M: [16]float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}}
}

// Translate44 creates a translation matrix.
func Translate44(x, y, z float64) Matrix44 {
	m := Identity44()
	m.M[3], m.M[7], m.M[11] = x, y, z
	return m
}

// Scale44 creates a scaling matrix.
func Scale44(x, y, z float64) Matrix44 {
	m := Identity44()
	m.M[0], m.M[5], m.M[10] = x, y, z
	return m
}

// RotateX44 creates a rotation around the X axis (angle in radians).
func RotateX44(angle float64) Matrix44 {
	c, s := math.Cos(angle), math.Sin(angle)
	m := Identity44()
	m.M[5], m.M[6] = c, -s
	m.M[9], m.M[10] = s, c
	return m
}

// RotateY44 creates a rotation around the Y axis (angle in radians).
func RotateY44(angle float64) Matrix44 {
	c, s := math.Cos(angle), math.Sin(angle)
	m := Identity44()
	m.M[0], m.M[2] = c, s
	m.M[8], m.M[10] = -s, c
	return m
}

// Perspective44 creates a CSS-style perspective matrix with the viewer at
// distance d on the +Z axis.
func Perspective44(d float64) Matrix44 {
	m := Identity44()
	if d != 0 {
		m.M[14] = -1 / d
	}
	return m
}

// Multiply returns m * n (n is applied first).
func (m Matrix44) Multiply(n Matrix44) Matrix44 {
	var out Matrix44
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m.M[row*4+k] * n.M[k*4+col]
			}
			out.M[row*4+col] = sum
		}
	}
	return out
}

// MapPoint transforms p (with w=1) and performs the perspective divide.
// ok is false when the point maps behind the viewer (w <= 0).
func (m Matrix44) MapPoint(p Vec3) (out Vec3, ok bool) {
	x := m.M[0]*p.X + m.M[1]*p.Y + m.M[2]*p.Z + m.M[3]
	y := m.M[4]*p.X + m.M[5]*p.Y + m.M[6]*p.Z + m.M[7]
	z := m.M[8]*p.X + m.M[9]*p.Y + m.M[10]*p.Z + m.M[11]
	w := m.M[12]*p.X + m.M[13]*p.Y + m.M[14]*p.Z + m.M[15]
	if w <= 0 {
		return Vec3{}, false
	}
	return Vec3{X: x / w, Y: y / w, Z: z / w}, true
}

// MapVector transforms a direction by the upper-left 3x3 block.
func (m Matrix44) MapVector(v Vec3) Vec3 {
	return Vec3{
		X: m.M[0]*v.X + m.M[1]*v.Y + m.M[2]*v.Z,
		Y: m.M[4]*v.X + m.M[5]*v.Y + m.M[6]*v.Z,
		Z: m.M[8]*v.X + m.M[9]*v.Y + m.M[10]*v.Z,
	}
}

// IsIdentity reports whether m is the identity matrix.
func (m Matrix44) IsIdentity() bool {
	return m == Identity44()
}
