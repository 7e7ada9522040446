package math32

import (
	"fmt"
	"math"
)

// Vector3 represents a 3D vector.
type Vector3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Splat returns a vector with all components set to s.
func Splat(s float32) Vector3 {
	return Vector3{s, s, s}
}

// Add adds two vectors.
func (v Vector3) Add(other Vector3) Vector3 {
	return Vector3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub subtracts two vectors.
func (v Vector3) Sub(other Vector3) Vector3 {
	return Vector3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Mul multiplies a vector by a scalar.
func (v Vector3) Mul(s float32) Vector3 {
	return Vector3{v.X * s, v.Y * s, v.Z * s}
}

// Min returns the component-wise minimum.
func (v Vector3) Min(other Vector3) Vector3 {
	return Vector3{Min(v.X, other.X), Min(v.Y, other.Y), Min(v.Z, other.Z)}
}

// Max returns the component-wise maximum.
func (v Vector3) Max(other Vector3) Vector3 {
	return Vector3{Max(v.X, other.X), Max(v.Y, other.Y), Max(v.Z, other.Z)}
}

// MaxComponent returns the largest of X, Y and Z.
func (v Vector3) MaxComponent() float32 {
	return Max(v.X, Max(v.Y, v.Z))
}

// Distance calculates the distance between two vectors.
func (v Vector3) Distance(other Vector3) float32 {
	diff := v.Sub(other)
	return float32(math.Sqrt(float64(diff.X*diff.X + diff.Y*diff.Y + diff.Z*diff.Z)))
}

// DistanceSquared calculates the squared distance between two vectors.
func (v Vector3) DistanceSquared(other Vector3) float32 {
	diff := v.Sub(other)
	return diff.X*diff.X + diff.Y*diff.Y + diff.Z*diff.Z
}

// Length calculates the length of a vector.
func (v Vector3) Length() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

// Dot calculates the dot product of two vectors.
func (v Vector3) Dot(other Vector3) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// String returns a string representation of the vector.
func (v Vector3) String() string {
	return fmt.Sprintf("[%.2f,%.2f,%.2f]", v.X, v.Y, v.Z)
}

// Get returns the value of the vector at the given axis index.
func (v Vector3) Get(i int) float32 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	case 2:
		return v.Z
	}
	return 0
}
