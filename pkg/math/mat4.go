package math

import "github.com/chewxy/math32"

// Mat4 is a 4x4 matrix in column-major order.
// Layout: [m0 m4 m8  m12]
//
//	[m1 m5 m9  m13]
//	[m2 m6 m10 m14]
//	[m3 m7 m11 m15]
type Mat4 [16]float32

// Identity returns an identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate returns a translation matrix.
func Translate(x, y, z float32) Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		x, y, z, 1,
	}
}

// Scale returns a scale matrix.
func Scale(x, y, z float32) Mat4 {
	return Mat4{
		x, 0, 0, 0,
		0, y, 0, 0,
		0, 0, z, 0,
		0, 0, 0, 1,
	}
}

// Compose builds translation * rotation * scale.
func Compose(t Vec3, r Quat, s Vec3) Mat4 {
	return Translate(t.X, t.Y, t.Z).Mul(r.ToMat4()).Mul(Scale(s.X, s.Y, s.Z))
}

// At returns the element at row, col.
func (m Mat4) At(row, col int) float32 {
	return m[col*4+row]
}

// Set stores v at row, col.
func (m *Mat4) Set(row, col int, v float32) {
	m[col*4+row] = v
}

// Mul multiplies this matrix by another (m * other).
func (m Mat4) Mul(other Mat4) Mat4 {
	var result Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			result[col*4+row] =
				m[0*4+row]*other[col*4+0] +
					m[1*4+row]*other[col*4+1] +
					m[2*4+row]*other[col*4+2] +
					m[3*4+row]*other[col*4+3]
		}
	}
	return result
}

// TransformPoint transforms a 3D point by this matrix (assumes w=1).
func (m Mat4) TransformPoint(p [3]float32) [3]float32 {
	x := m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12]
	y := m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13]
	z := m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14]
	w := m[3]*p[0] + m[7]*p[1] + m[11]*p[2] + m[15]
	if w != 0 && w != 1 {
		return [3]float32{x / w, y / w, z / w}
	}
	return [3]float32{x, y, z}
}

// TransformVec3 transforms a Vec3 point by this matrix.
func (m Mat4) TransformVec3(v Vec3) Vec3 {
	p := m.TransformPoint(v.Array())
	return Vec3{p[0], p[1], p[2]}
}

// Basis returns the upper-left 3x3 portion as m[row][col].
func (m Mat4) Basis() [3][3]float32 {
	var b [3][3]float32
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			b[row][col] = m.At(row, col)
		}
	}
	return b
}

// Translation returns the translation column.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

// Rotation extracts the rotation of the upper 3x3 basis. A mirroring
// basis is treated as a rotation with a negative x scale.
func (m Mat4) Rotation() Quat {
	_, q, _ := m.Decompose()
	return q
}

// ScaleVector returns the lengths of the three basis columns.
func (m Mat4) ScaleVector() Vec3 {
	return Vec3{
		math32.Sqrt(m[0]*m[0] + m[1]*m[1] + m[2]*m[2]),
		math32.Sqrt(m[4]*m[4] + m[5]*m[5] + m[6]*m[6]),
		math32.Sqrt(m[8]*m[8] + m[9]*m[9] + m[10]*m[10]),
	}
}

// Decompose splits the matrix into translation, rotation and scale.
// The basis is assumed to be free of shear. When the basis mirrors
// (negative determinant) the x scale comes back negative, so Compose
// rebuilds the same matrix.
func (m Mat4) Decompose() (Vec3, Quat, Vec3) {
	b := m.Basis()
	s := m.ScaleVector()
	if determinant3(b) < 0 {
		s.X = -s.X
		for row := 0; row < 3; row++ {
			b[row][0] = -b[row][0]
		}
	}
	return m.Translation(), QuatFromBasis(b), s
}

func determinant3(b [3][3]float32) float32 {
	return b[0][0]*(b[1][1]*b[2][2]-b[1][2]*b[2][1]) -
		b[0][1]*(b[1][0]*b[2][2]-b[1][2]*b[2][0]) +
		b[0][2]*(b[1][0]*b[2][1]-b[1][1]*b[2][0])
}

// ApproxEqual reports whether every element differs by at most tol.
func (m Mat4) ApproxEqual(other Mat4, tol float32) bool {
	for i := range m {
		if math32.Abs(m[i]-other[i]) > tol {
			return false
		}
	}
	return true
}
