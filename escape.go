package mandelbrot

import (
	"math"

	"github.com/AdrikGG/Mandelbrot/arith"
)

// DefaultEscapeRadius2 is the squared escape radius used when Params leaves
// it unset.
const DefaultEscapeRadius2 = 4

// Escape is the result of iterating z = z^2 + c from z = 0.
//
// Count is the zero-based index of the iteration whose result first left
// the escape radius. Points that never escape report Count equal to the
// iteration bound and Escaped false.
type Escape struct {
	Count   int
	Escaped bool
}

// EscapeTime evaluates c = cx + i*cy in float64. Non-finite input or
// intermediates count as escaped at iteration 0.
func EscapeTime(cx, cy float64, bound int, radius2 float64) Escape {
	if !finite(cx) || !finite(cy) {
		return Escape{Count: 0, Escaped: true}
	}
	var zx, zy float64
	for i := range bound {
		xt := zx * zy
		zx = zx*zx - zy*zy + cx
		zy = 2*xt + cy
		m := zx*zx + zy*zy
		if m >= radius2 {
			return Escape{Count: i, Escaped: true}
		}
		if m != m { // NaN
			return Escape{Count: 0, Escaped: true}
		}
	}
	return Escape{Count: bound, Escaped: false}
}

// EscapeTimeOf is EscapeTime over any arith.Scalar.
func EscapeTimeOf[T arith.Scalar[T]](cx, cy T, bound int, radius2 T) Escape {
	if !cx.IsFinite() || !cy.IsFinite() {
		return Escape{Count: 0, Escaped: true}
	}
	var zx, zy T
	for i := range bound {
		xt := zx.Mul(zy)
		zx = zx.Mul(zx).Sub(zy.Mul(zy)).Add(cx)
		zy = xt.Add(xt).Add(cy)
		m := zx.Mul(zx).Add(zy.Mul(zy))
		if !m.IsFinite() {
			return Escape{Count: 0, Escaped: true}
		}
		if m.Cmp(radius2) >= 0 {
			return Escape{Count: i, Escaped: true}
		}
	}
	return Escape{Count: bound, Escaped: false}
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
