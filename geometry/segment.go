package geometry

import "github.com/o0olele/octree-nav/math32"

// SegmentAABB clips the segment from a to b against the box with the slab
// method. It returns the parameter range [tmin, tmax] within [0, 1] where the
// segment is inside the box, and false when it misses.
func SegmentAABB(a, b math32.Vector3, aabb AABB) (float32, float32, bool) {
	const eps = 1e-6
	dir := b.Sub(a)
	tmin, tmax := float32(0), float32(1)

	for axis := 0; axis < 3; axis++ {
		origin, d := a.Get(axis), dir.Get(axis)
		lo, hi := aabb.Min.Get(axis), aabb.Max.Get(axis)

		if math32.Abs(d) < eps {
			if origin < lo || origin > hi {
				return 0, 0, false
			}
			continue
		}

		t1 := (lo - origin) / d
		t2 := (hi - origin) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math32.Max(tmin, t1)
		tmax = math32.Min(tmax, t2)
		if tmin > tmax {
			return 0, 0, false
		}
	}
	return tmin, tmax, true
}

// SegmentCrosses reports whether the segment passes through the interior of
// the box rather than only grazing a face, edge or corner.
func SegmentCrosses(a, b math32.Vector3, aabb AABB) bool {
	tmin, tmax, ok := SegmentAABB(a, b, aabb)
	if !ok {
		return false
	}
	mid := a.Add(b.Sub(a).Mul((tmin + tmax) / 2))
	for axis := 0; axis < 3; axis++ {
		p := mid.Get(axis)
		if !(p > aabb.Min.Get(axis) && p < aabb.Max.Get(axis)) {
			return false
		}
	}
	return true
}
