package math32

import "fmt"

// Vector3i is an integer grid coordinate.
type Vector3i struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
	Z int32 `json:"z"`
}

func (v Vector3i) Add(other Vector3i) Vector3i {
	return Vector3i{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

func (v Vector3i) Sub(other Vector3i) Vector3i {
	return Vector3i{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

func (v Vector3i) Max(other Vector3i) Vector3i {
	return Vector3i{Max(v.X, other.X), Max(v.Y, other.Y), Max(v.Z, other.Z)}
}

func (v Vector3i) Min(other Vector3i) Vector3i {
	return Vector3i{Min(v.X, other.X), Min(v.Y, other.Y), Min(v.Z, other.Z)}
}

// Abs returns the component-wise absolute value.
func (v Vector3i) Abs() Vector3i {
	return Vector3i{AbsInt(v.X), AbsInt(v.Y), AbsInt(v.Z)}
}

// Within reports whether 0 <= v < size on every axis.
func (v Vector3i) Within(size Vector3i) bool {
	return v.X >= 0 && v.X < size.X &&
		v.Y >= 0 && v.Y < size.Y &&
		v.Z >= 0 && v.Z < size.Z
}

// Volume returns X*Y*Z.
func (v Vector3i) Volume() int {
	return int(v.X) * int(v.Y) * int(v.Z)
}

// ToVector3 converts the coordinate to a float vector.
func (v Vector3i) ToVector3() Vector3 {
	return Vector3{float32(v.X), float32(v.Y), float32(v.Z)}
}

func (v Vector3i) String() string {
	return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z)
}
