package partition

import "github.com/unixpickle/model3d/model3d"

// cross computes the cross product of two vectors directly from their
// components, rather than relying on a Coord3D.Cross method, so this
// package's geometry does not depend on an unconfirmed part of model3d's
// surface beyond the field accessors (.X, .Y, .Z) and arithmetic methods
// (.Add, .Sub, .Scale, .Dot, .Norm, .Normalize) exercised elsewhere.
func cross(a, b model3d.Coord3D) model3d.Coord3D {
	return model3d.XYZ(
		a.Y*b.Z-a.Z*b.Y,
		a.Z*b.X-a.X*b.Z,
		a.X*b.Y-a.Y*b.X,
	)
}

// triangleNormalArea returns the unit face normal and the triangle's
// area; a degenerate triangle yields the zero vector and zero area.
func triangleNormalArea(v0, v1, v2 model3d.Coord3D) (normal model3d.Coord3D, area float64) {
	raw := cross(v1.Sub(v0), v2.Sub(v0))
	n := raw.Norm()
	if n == 0 {
		return model3d.Origin, 0
	}
	return raw.Scale(1 / n), 0.5 * n
}

// edgeKey packs an unordered pair of vertex (or cluster) ids into a single
// 64-bit key for O(1) map lookups.
func edgeKey(a, b int) int64 {
	if a > b {
		a, b = b, a
	}
	return int64(a)<<32 | int64(b)
}
