package geometry

import "github.com/o0olele/octree-nav/math32"

// AABB is axis-aligned bounding box
type AABB struct {
	Min math32.Vector3 `json:"min"`
	Max math32.Vector3 `json:"max"`
}

// NewAABB returns the box with the given center and full size.
func NewAABB(center, size math32.Vector3) AABB {
	half := size.Mul(0.5)
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

// Contains checks if the point is inside the AABB, boundary included.
func (aabb AABB) Contains(point math32.Vector3) bool {
	return point.X >= aabb.Min.X && point.X <= aabb.Max.X &&
		point.Y >= aabb.Min.Y && point.Y <= aabb.Max.Y &&
		point.Z >= aabb.Min.Z && point.Z <= aabb.Max.Z
}

// ContainsAABB checks if other lies fully inside the AABB.
func (aabb AABB) ContainsAABB(other AABB) bool {
	return aabb.Contains(other.Min) && aabb.Contains(other.Max)
}

// ContainsInterior checks if other lies inside the AABB without touching
// its faces.
func (aabb AABB) ContainsInterior(other AABB) bool {
	return other.Min.X > aabb.Min.X && other.Max.X < aabb.Max.X &&
		other.Min.Y > aabb.Min.Y && other.Max.Y < aabb.Max.Y &&
		other.Min.Z > aabb.Min.Z && other.Max.Z < aabb.Max.Z
}

// Center returns the center of the AABB
func (aabb AABB) Center() math32.Vector3 {
	return math32.Vector3{
		X: (aabb.Min.X + aabb.Max.X) / 2,
		Y: (aabb.Min.Y + aabb.Max.Y) / 2,
		Z: (aabb.Min.Z + aabb.Max.Z) / 2,
	}
}

// Size returns the size of the AABB
func (aabb AABB) Size() math32.Vector3 {
	return aabb.Max.Sub(aabb.Min)
}

// Intersects checks if the AABB intersects with another AABB. Touching faces,
// edges and corners count as intersecting.
func (aabb AABB) Intersects(other AABB) bool {
	return aabb.Min.X <= other.Max.X && aabb.Max.X >= other.Min.X &&
		aabb.Min.Y <= other.Max.Y && aabb.Max.Y >= other.Min.Y &&
		aabb.Min.Z <= other.Max.Z && aabb.Max.Z >= other.Min.Z
}

// IsEmpty checks if the AABB is empty (invalid)
func (aabb AABB) IsEmpty() bool {
	return aabb.Min.X >= aabb.Max.X || aabb.Min.Y >= aabb.Max.Y || aabb.Min.Z >= aabb.Max.Z
}

// Encapsulate returns the smallest box holding both boxes.
func (aabb AABB) Encapsulate(other AABB) AABB {
	return AABB{Min: aabb.Min.Min(other.Min), Max: aabb.Max.Max(other.Max)}
}

// Octant returns child i of the midpoint split. Bit 0 selects the upper X
// half, bit 1 the upper Y half and bit 2 the upper Z half. The eight octants
// share their inner faces exactly and their union is the box.
func (aabb AABB) Octant(i int) AABB {
	c := aabb.Center()
	var o AABB
	o.Min.X, o.Max.X = split(i&1 != 0, aabb.Min.X, c.X, aabb.Max.X)
	o.Min.Y, o.Max.Y = split(i&2 != 0, aabb.Min.Y, c.Y, aabb.Max.Y)
	o.Min.Z, o.Max.Z = split(i&4 != 0, aabb.Min.Z, c.Z, aabb.Max.Z)
	return o
}

func split(upper bool, lo, mid, hi float32) (float32, float32) {
	if upper {
		return mid, hi
	}
	return lo, mid
}
