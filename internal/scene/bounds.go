package scene

import "github.com/Faultbox/blendscene/pkg/math"

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// BoundsOf returns the smallest box holding every point.
func BoundsOf(points ...math.Vec3) (Bounds, bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}
	b := Bounds{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b.Min = b.Min.Min(p)
		b.Max = b.Max.Max(p)
	}
	return b, true
}

// Union returns the box holding both b and other.
func (b Bounds) Union(other Bounds) Bounds {
	return Bounds{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// Transformed returns the box holding b's eight corners after m.
func (b Bounds) Transformed(m math.Mat4) Bounds {
	corners := make([]math.Vec3, 0, 8)
	for i := 0; i < 8; i++ {
		c := b.Min
		if i&1 != 0 {
			c.X = b.Max.X
		}
		if i&2 != 0 {
			c.Y = b.Max.Y
		}
		if i&4 != 0 {
			c.Z = b.Max.Z
		}
		corners = append(corners, m.TransformVec3(c))
	}
	out, _ := BoundsOf(corners...)
	return out
}

// Center returns the middle of the box.
func (b Bounds) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}
