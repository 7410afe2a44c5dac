package arith

import "math"

// Float is the limb type of a Pair.
type Float interface {
	float32 | float64
}

// Pair is an unevaluated sum Hi + Lo with |Lo| <= ulp(Hi)/2 after every
// operation.
type Pair[F Float] struct {
	Hi, Lo F
}

type (
	// Extended is a double-double value.
	Extended = Pair[float64]
	// Single is a double-single value, the representation used on the GPU.
	Single = Pair[float32]
)

// Dekker split constants: 2^(p/2)+1 for a p-bit significand.
const (
	splitSingle = 8193      // 2^13 + 1
	splitDouble = 134217729 // 2^27 + 1
)

func splitter[F Float]() F {
	var z F
	if _, ok := any(z).(float32); ok {
		return splitSingle
	}
	return splitDouble
}

// Split64 splits x into two float32 limbs whose sum is x rounded to
// roughly 48 bits.
func Split64(x float64) Single {
	hi := float32(x)
	return Single{Hi: hi, Lo: float32(x - float64(hi))}
}

// Add returns a + b.
func (a Pair[F]) Add(b Pair[F]) Pair[F] {
	t1 := a.Hi + b.Hi
	e := t1 - a.Hi
	t2 := ((b.Hi - e) + (a.Hi - (t1 - e))) + a.Lo + b.Lo
	hi := t1 + t2
	return Pair[F]{Hi: hi, Lo: t2 - (hi - t1)}
}

// Sub returns a - b.
func (a Pair[F]) Sub(b Pair[F]) Pair[F] {
	t1 := a.Hi - b.Hi
	e := t1 - a.Hi
	t2 := ((-b.Hi - e) + (a.Hi - (t1 - e))) + a.Lo - b.Lo
	hi := t1 + t2
	return Pair[F]{Hi: hi, Lo: t2 - (hi - t1)}
}

// Mul returns a * b.
func (a Pair[F]) Mul(b Pair[F]) Pair[F] {
	s := splitter[F]()
	cona := F(a.Hi * s)
	conb := F(b.Hi * s)
	a1 := cona - (cona - a.Hi)
	b1 := conb - (conb - b.Hi)
	a2 := a.Hi - a1
	b2 := b.Hi - b1

	c11 := F(a.Hi * b.Hi)
	c21 := F(a2*b2) + (F(a2*b1) + (F(a1*b2) + (F(a1*b1) - c11)))
	c2 := F(a.Hi*b.Lo) + F(a.Lo*b.Hi)

	t1 := c11 + c2
	e := t1 - c11
	t2 := F(a.Lo*b.Lo) + ((c2 - e) + (c11 - (t1 - e))) + c21
	hi := t1 + t2
	return Pair[F]{Hi: hi, Lo: t2 - (hi - t1)}
}

// Neg returns -a.
func (a Pair[F]) Neg() Pair[F] { return Pair[F]{Hi: -a.Hi, Lo: -a.Lo} }

// Cmp orders by Hi, then by Lo.
func (a Pair[F]) Cmp(b Pair[F]) int {
	switch {
	case a.Hi < b.Hi:
		return -1
	case a.Hi > b.Hi:
		return 1
	case a.Lo < b.Lo:
		return -1
	case a.Lo > b.Lo:
		return 1
	}
	return 0
}

// FromNative returns (v, 0) for double limbs. Single limbs receive the
// float32 split of v, which is (v, 0) whenever v is a float32.
func (Pair[F]) FromNative(v float64) Pair[F] {
	var z F
	if _, ok := any(z).(float32); ok {
		s := Split64(v)
		return Pair[F]{Hi: F(s.Hi), Lo: F(s.Lo)}
	}
	return Pair[F]{Hi: F(v)}
}

func (a Pair[F]) Float64() float64 { return float64(a.Hi) + float64(a.Lo) }

func (a Pair[F]) IsFinite() bool {
	h, l := float64(a.Hi), float64(a.Lo)
	return !math.IsNaN(h) && !math.IsInf(h, 0) && !math.IsNaN(l) && !math.IsInf(l, 0)
}
