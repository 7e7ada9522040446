package math32

import "math"

const (
	// MaxFloat32 is the largest finite float32.
	MaxFloat32 float32 = math.MaxFloat32

	Sqrt2 float32 = math.Sqrt2
	Sqrt3 float32 = 1.7320508075688772
)

// Inf returns positive infinity as a float32.
func Inf() float32 {
	return float32(math.Inf(1))
}

// IsInf reports whether f is positive infinity.
func IsInf(f float32) bool {
	return math.IsInf(float64(f), 1)
}

// Min returns the minimum of two values.
func Min[T float32 | int32 | int](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Max returns the maximum of two values.
func Max[T float32 | int32 | int](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Abs returns the absolute value of a float32.
func Abs(a float32) float32 {
	if a < 0 {
		return -a
	}
	return a
}

// AbsInt returns the absolute value of an int32.
func AbsInt(a int32) int32 {
	if a < 0 {
		return -a
	}
	return a
}

// Sqrt returns the square root of a float32.
func Sqrt(a float32) float32 {
	return float32(math.Sqrt(float64(a)))
}

// ApproxEqual compares two floats with a relative tolerance. Two infinities
// of the same sign are equal.
func ApproxEqual(a, b float32) bool {
	if a == b {
		return true
	}
	if IsInf(a) || IsInf(b) {
		return false
	}
	scale := Max(1, Max(Abs(a), Abs(b)))
	return Abs(a-b) <= 1e-5*scale
}

// Floor returns the greatest integer value less than or equal to a.
func Floor(a float32) float32 {
	return float32(math.Floor(float64(a)))
}
