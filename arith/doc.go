// Package arith provides the real-number representations the escape-time
// evaluator is generic over.
//
// Native wraps float64. Pair is an unevaluated sum of two limbs (Hi + Lo)
// maintained with error-free two-sum and Dekker two-product, which roughly
// doubles the mantissa width of the limb type:
//
//	Extended = Pair[float64]  // double-double, used by the CPU renderers
//	Single   = Pair[float32]  // double-single, mirrors the GPU kernel
//
// All Pair operations force every intermediate to limb precision with an
// explicit conversion so the compiler cannot fuse a multiply and an add.
package arith
