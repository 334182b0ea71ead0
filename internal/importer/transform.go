package importer

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/blendscene/internal/config"
	"github.com/Faultbox/blendscene/internal/scene"
	"github.com/Faultbox/blendscene/pkg/blend"
	"github.com/Faultbox/blendscene/pkg/math"
)

// matrixEpsilon is the float32 machine epsilon. Matrix elements at or below
// it are read as zero.
const matrixEpsilon = 1.1920929e-7

// TransformResolver computes local transforms of object records.
type TransformResolver struct {
	fixUpAxis bool
}

// NewTransformResolver creates a resolver for the given import settings.
func NewTransformResolver(cfg config.ImportConfig) *TransformResolver {
	return &TransformResolver{fixUpAxis: cfg.FixUpAxis}
}

// FixUpAxis reports whether the resolver converts Z-up data to Y-up.
func (r *TransformResolver) FixUpAxis() bool {
	return r.fixUpAxis
}

// Compute returns the transform of rec relative to its parent.
//
// The record's loc and rot (Euler XYZ, radians) form the global matrix,
// which parentInverseBind (nil for roots) brings into the parent's space.
// Scale is the column-norm scale of parentInverseBind times the record's
// size, not the parent's current scale.
func (r *TransformResolver) Compute(rec blend.Record, parentInverseBind *math.Mat4) (scene.Transform, error) {
	loc, err := vec3Field(rec, "loc")
	if err != nil {
		return scene.Transform{}, err
	}
	rot, err := vec3Field(rec, "rot")
	if err != nil {
		return scene.Transform{}, err
	}
	size, err := vec3Field(rec, "size")
	if err != nil {
		return scene.Transform{}, err
	}

	global := math.Translate(loc.X, loc.Y, loc.Z).Mul(math.QuatFromEulerXYZ(rot.X, rot.Y, rot.Z).ToMat4())
	local := global
	scale := size
	if parentInverseBind != nil {
		local = parentInverseBind.Mul(global)
		scale = parentInverseBind.ScaleVector().MulComponents(size)
	}

	t := scene.Transform{
		Translation: local.Translation(),
		Rotation:    local.Rotation(),
		Scale:       scale,
	}
	if r.fixUpAxis {
		t = FixTransform(t)
	}
	return t, nil
}

// ParentInverse returns the parentinv matrix of rec, or nil when rec has no
// parent. The matrix is used as stored, without axis fix-up.
func (r *TransformResolver) ParentInverse(rec blend.Record) (*math.Mat4, error) {
	parent, err := blend.PointerField(rec, "parent")
	if err != nil {
		if errors.Is(err, blend.ErrFieldNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if parent.IsNull() {
		return nil, nil
	}
	m, err := ReadNamedMatrix(rec, "parentinv", false)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// WorldMatrix reads the object's stored world matrix (obmat), fixed up the
// same way Compute fixes transforms.
func (r *TransformResolver) WorldMatrix(rec blend.Record) (math.Mat4, error) {
	return ReadNamedMatrix(rec, "obmat", r.fixUpAxis)
}

// SizeSignums returns the sign of each size component of rec, permuted like
// the scale when fix-up is on. A negative product means the object mirrors
// its geometry.
func (r *TransformResolver) SizeSignums(rec blend.Record) (math.Vec3, error) {
	size, err := vec3Field(rec, "size")
	if err != nil {
		return math.Vec3{}, err
	}
	s := size.Signum()
	if r.fixUpAxis {
		s.Y, s.Z = s.Z, s.Y
	}
	return s, nil
}

// ReadNamedMatrix reads a square matrix field stored column by column. The
// size is the integer square root of the element count; 3x3 matrices are
// widened to 4x4. With applyFixUp the matrix is decomposed, converted to
// Y-up and recomposed.
func ReadNamedMatrix(rec blend.Record, field string, applyFixUp bool) (math.Mat4, error) {
	arr, err := blend.ArrayField(rec, field)
	if err != nil {
		return math.Mat4{}, err
	}
	values := arr.Float32s()
	n := isqrt(len(values))
	if n == 0 || n*n != len(values) || n > 4 {
		return math.Mat4{}, fmt.Errorf("%w: %s has %d elements", ErrMalformedMatrix, field, len(values))
	}

	m := math.Identity()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := values[j*n+i]
			if math32.Abs(v) <= matrixEpsilon {
				v = 0
			}
			m.Set(i, j, v)
		}
	}

	if applyFixUp {
		t, q, s := m.Decompose()
		fixed := FixTransform(scene.Transform{Translation: t, Rotation: q, Scale: s})
		m = fixed.Matrix()
	}
	return m, nil
}

// FixTransform converts a Z-up transform to Y-up: (x, y, z) becomes
// (x, z, -y) for the translation and the rotation axis, and the y and z
// scales swap.
func FixTransform(t scene.Transform) scene.Transform {
	return scene.Transform{
		Translation: math.Vec3{X: t.Translation.X, Y: t.Translation.Z, Z: -t.Translation.Y},
		Rotation:    math.Quat{X: t.Rotation.X, Y: t.Rotation.Z, Z: -t.Rotation.Y, W: t.Rotation.W},
		Scale:       math.Vec3{X: t.Scale.X, Y: t.Scale.Z, Z: t.Scale.Y},
	}
}

// UnfixTransform undoes FixTransform.
func UnfixTransform(t scene.Transform) scene.Transform {
	return scene.Transform{
		Translation: math.Vec3{X: t.Translation.X, Y: -t.Translation.Z, Z: t.Translation.Y},
		Rotation:    math.Quat{X: t.Rotation.X, Y: -t.Rotation.Z, Z: t.Rotation.Y, W: t.Rotation.W},
		Scale:       math.Vec3{X: t.Scale.X, Y: t.Scale.Z, Z: t.Scale.Y},
	}
}

func vec3Field(rec blend.Record, name string) (math.Vec3, error) {
	arr, err := blend.ArrayField(rec, name)
	if err != nil {
		return math.Vec3{}, err
	}
	if arr.Len() < 3 {
		return math.Vec3{}, fmt.Errorf("%w: %s has %d elements, want 3", blend.ErrFieldType, name, arr.Len())
	}
	v := arr.Float32s()
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
}

func isqrt(n int) int {
	r := int(math32.Sqrt(float32(n)))
	for r*r > n {
		r--
	}
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}
