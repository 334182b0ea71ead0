package math

import (
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3MulComponents(t *testing.T) {
	got := Vec3{2, 1, 1}.MulComponents(Vec3{1, 3, 1})
	want := Vec3{2, 3, 1}
	if got != want {
		t.Errorf("Vec3.MulComponents() = %v, want %v", got, want)
	}
}

func TestVec3Signum(t *testing.T) {
	got := Vec3{-2, 0, 5}.Signum()
	want := Vec3{-1, 0, 1}
	if got != want {
		t.Errorf("Vec3.Signum() = %v, want %v", got, want)
	}
}

func TestVec3MinMax(t *testing.T) {
	a := Vec3{1, 5, -3}
	b := Vec3{2, -1, 0}
	if got := a.Min(b); got != (Vec3{1, -1, -3}) {
		t.Errorf("Min() = %v", got)
	}
	if got := a.Max(b); got != (Vec3{2, 5, 0}) {
		t.Errorf("Max() = %v", got)
	}
}

func TestVec3Normalize(t *testing.T) {
	n := Vec3{3, 4, 0}.Normalize()
	l := n.Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}
	if (Vec3{}).Normalize() != (Vec3{}) {
		t.Error("normalizing the zero vector should return zero")
	}
}
