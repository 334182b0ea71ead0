package scene

import "github.com/Faultbox/blendscene/pkg/math"

// Transform is an affine transform split into translation, rotation and
// scale. Scale may be negative or non-uniform.
type Transform struct {
	Translation math.Vec3
	Rotation    math.Quat
	Scale       math.Vec3
}

// IdentityTransform returns the transform that changes nothing.
func IdentityTransform() Transform {
	return Transform{
		Rotation: math.QuatIdentity(),
		Scale:    math.One(),
	}
}

// Matrix returns translation * rotation * scale.
func (t Transform) Matrix() math.Mat4 {
	return math.Compose(t.Translation, t.Rotation, t.Scale)
}

// Combine returns child expressed in the space t is expressed in.
func (t Transform) Combine(child Transform) Transform {
	return Transform{
		Translation: t.Rotation.Rotate(child.Translation.MulComponents(t.Scale)).Add(t.Translation),
		Rotation:    t.Rotation.Mul(child.Rotation).Normalize(),
		Scale:       t.Scale.MulComponents(child.Scale),
	}
}

// ApproxEqual compares two transforms within tol.
func (t Transform) ApproxEqual(other Transform, tol float32) bool {
	return t.Translation.ApproxEqual(other.Translation, tol) &&
		t.Rotation.SameRotation(other.Rotation, tol) &&
		t.Scale.ApproxEqual(other.Scale, tol)
}
