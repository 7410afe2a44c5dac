package arith

import "math"

// Scalar is the arithmetic contract of a real number representation.
// Implementations are value types; the zero value is 0.
type Scalar[T any] interface {
	Add(T) T
	Sub(T) T
	Mul(T) T

	// Cmp returns -1, 0 or +1. It is a strict total order on finite values.
	Cmp(T) int

	// FromNative converts a float64. The receiver is ignored.
	FromNative(float64) T

	Float64() float64
	IsFinite() bool
}

// Native is a float64 Scalar.
type Native float64

func (a Native) Add(b Native) Native { return a + b }
func (a Native) Sub(b Native) Native { return a - b }
func (a Native) Mul(b Native) Native { return a * b }

func (a Native) Cmp(b Native) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (Native) FromNative(v float64) Native { return Native(v) }

func (a Native) Float64() float64 { return float64(a) }

func (a Native) IsFinite() bool {
	return !math.IsNaN(float64(a)) && !math.IsInf(float64(a), 0)
}

// FromNative is a convenience for T{}.FromNative(v).
func FromNative[T Scalar[T]](v float64) T {
	var zero T
	return zero.FromNative(v)
}
